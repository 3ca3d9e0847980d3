package service

import (
	"fmt"

	"github.com/siteops/siteops-backend/pkg/errors"
)

// Ticket statuses
const (
	StatusOpen       = "open"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusOnHold     = "on_hold"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Actor roles
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleRequester  = "requester"
)

// Workflow actions
const (
	ActionAssign   = "assign"
	ActionStart    = "start"
	ActionHold     = "hold"
	ActionResume   = "resume"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
	ActionReopen   = "reopen"
)

// actionResult maps each action to the status it lands in.
var actionResult = map[string]string{
	ActionAssign:   StatusAssigned,
	ActionStart:    StatusInProgress,
	ActionHold:     StatusOnHold,
	ActionResume:   StatusInProgress,
	ActionComplete: StatusCompleted,
	ActionCancel:   StatusCancelled,
	ActionReopen:   StatusOpen,
}

// allowedActions is the workflow table: for each current status, the
// actions each role may take. Enforced here in the service; clients
// only mirror it for UI hints.
var allowedActions = map[string]map[string][]string{
	StatusOpen: {
		RoleAdmin:      {ActionAssign, ActionCancel},
		RoleManager:    {ActionAssign, ActionCancel},
		RoleTechnician: {ActionStart},
		RoleRequester:  {ActionCancel},
	},
	StatusAssigned: {
		RoleAdmin:      {ActionAssign, ActionCancel},
		RoleManager:    {ActionAssign, ActionCancel},
		RoleTechnician: {ActionStart},
	},
	StatusInProgress: {
		RoleAdmin:      {ActionHold, ActionComplete, ActionCancel},
		RoleManager:    {ActionHold, ActionComplete, ActionCancel},
		RoleTechnician: {ActionHold, ActionComplete},
	},
	StatusOnHold: {
		RoleAdmin:      {ActionResume, ActionCancel},
		RoleManager:    {ActionResume, ActionCancel},
		RoleTechnician: {ActionResume},
	},
	StatusCompleted: {
		RoleAdmin: {ActionReopen},
	},
	StatusCancelled: {
		RoleAdmin:   {ActionReopen},
		RoleManager: {ActionReopen},
	},
}

// AllowedActions returns the actions the role may take on a ticket in
// the given status. Empty for terminal states the role cannot touch.
func AllowedActions(status, role string) []string {
	byRole, ok := allowedActions[status]
	if !ok {
		return nil
	}
	return byRole[role]
}

// CanPerform reports whether the role may take the action on a ticket
// in the given status.
func CanPerform(status, role, action string) bool {
	for _, a := range AllowedActions(status, role) {
		if a == action {
			return true
		}
	}
	return false
}

// ApplyAction resolves the status an action leads to, rejecting
// unknown actions and actions the role may not take from the current
// status.
func ApplyAction(status, role, action string) (string, error) {
	next, ok := actionResult[action]
	if !ok {
		return "", errors.BadRequest(fmt.Sprintf("unknown action %q", action))
	}

	if _, ok := allowedActions[status]; !ok {
		return "", errors.BadRequest(fmt.Sprintf("unknown ticket status %q", status))
	}

	if !CanPerform(status, role, action) {
		return "", errors.Forbidden(fmt.Sprintf("role %q may not %s a ticket in status %q", role, action, status))
	}

	return next, nil
}

// ValidPriority reports whether p is a known ticket priority.
func ValidPriority(p string) bool {
	switch p {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}
