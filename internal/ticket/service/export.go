package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/siteops/siteops-backend/internal/ticket/repository"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

var csvHeader = []string{
	"id", "title", "category", "priority", "status",
	"location_id", "assignee_id", "cost", "created_at", "completed_at",
}

// BuildCSV renders tickets as CSV with a fixed header row. Nullable
// fields render empty.
func BuildCSV(tickets []*repository.Ticket) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, t := range tickets {
		row := []string{
			t.ID,
			t.Title,
			t.Category,
			t.Priority,
			t.Status,
			strOrEmpty(t.LocationID),
			strOrEmpty(t.AssigneeID),
			costOrEmpty(t.Cost),
			t.CreatedAt.UTC().Format(time.RFC3339),
			timeOrEmpty(t.CompletedAt),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExportYearCSV exports the year's tickets as a CSV document
func (s *TicketService) ExportYearCSV(ctx context.Context, scope tenant.Scope, year int) ([]byte, error) {
	tickets, err := s.tickets.ListForYear(ctx, scope, year)
	if err != nil {
		return nil, err
	}

	return BuildCSV(tickets)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func costOrEmpty(c *float64) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *c)
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
