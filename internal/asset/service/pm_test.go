package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siteops/siteops-backend/internal/asset/service"
	"github.com/siteops/siteops-backend/pkg/testutil"
)

func TestNextDueAfter(t *testing.T) {
	from := testutil.Date(2026, 1, 15)

	tests := []struct {
		frequency string
		wantYear  int
		wantMonth int
		wantDay   int
	}{
		{service.FrequencyWeekly, 2026, 1, 22},
		{service.FrequencyMonthly, 2026, 2, 15},
		{service.FrequencyQuarterly, 2026, 4, 15},
		{service.FrequencySemiannual, 2026, 7, 15},
		{service.FrequencyAnnual, 2027, 1, 15},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			got := service.NextDueAfter(tt.frequency, from)
			assert.Equal(t, tt.wantYear, got.Year())
			assert.Equal(t, tt.wantMonth, int(got.Month()))
			assert.Equal(t, tt.wantDay, got.Day())
		})
	}
}

func TestNextDueAfterMonthEndRollover(t *testing.T) {
	// January 31 plus a month lands in early March, Go's AddDate
	// normalization, not a saturation to February's end.
	got := service.NextDueAfter(service.FrequencyMonthly, testutil.Date(2026, 1, 31))
	assert.Equal(t, 3, int(got.Month()))
	assert.Equal(t, 3, got.Day())
}

func TestNextDueAfterUnknownFrequency(t *testing.T) {
	assert.True(t, service.NextDueAfter("fortnightly", testutil.Date(2026, 1, 1)).IsZero())
}

func TestValidFrequency(t *testing.T) {
	assert.True(t, service.ValidFrequency(service.FrequencyWeekly))
	assert.True(t, service.ValidFrequency(service.FrequencyAnnual))
	assert.False(t, service.ValidFrequency("fortnightly"))
	assert.False(t, service.ValidFrequency(""))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, service.ValidStatus(service.StatusOperational))
	assert.True(t, service.ValidStatus(service.StatusRetired))
	assert.False(t, service.ValidStatus("broken"))
}
