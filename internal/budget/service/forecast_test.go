package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/siteops/siteops-backend/internal/budget/service"
	"github.com/siteops/siteops-backend/pkg/testutil"
)

func TestElapsedMonths(t *testing.T) {
	tests := []struct {
		name       string
		fiscalYear int
		nowYear    int
		nowMonth   time.Month
		want       int
	}{
		{"march of the running year", 2026, 2026, 3, 3},
		{"december of the running year", 2026, 2026, 12, 12},
		{"january of the running year", 2026, 2026, 1, 1},
		{"finished year", 2025, 2026, 6, 12},
		{"year not yet begun", 2027, 2026, 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.ElapsedMonths(tt.fiscalYear, testutil.Date(tt.nowYear, tt.nowMonth, 15))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewForecast(t *testing.T) {
	t.Run("projects run rate over twelve months", func(t *testing.T) {
		alloc := allocation("HVAC", 2026, 12000)
		// 4 months elapsed, 4000 spent: run rate 1000/month.
		f := service.NewForecast(alloc, 4000, testutil.Date(2026, 4, 20))

		assert.Equal(t, 4, f.ElapsedMonths)
		assert.Equal(t, 1000.0, f.MonthlyAverage)
		assert.Equal(t, 12000.0, f.ProjectedSpend)
		assert.False(t, f.ProjectedOver)
		assert.Equal(t, 0.0, f.ProjectedExcess)
		assert.Equal(t, service.ConfidenceMedium, f.Confidence)
	})

	t.Run("flags projected overspend", func(t *testing.T) {
		alloc := allocation("HVAC", 2026, 10000)
		f := service.NewForecast(alloc, 6000, testutil.Date(2026, 6, 1))

		assert.Equal(t, 12000.0, f.ProjectedSpend)
		assert.True(t, f.ProjectedOver)
		assert.Equal(t, 2000.0, f.ProjectedExcess)
		assert.Equal(t, service.ConfidenceHigh, f.Confidence)
	})

	t.Run("low confidence early in the year", func(t *testing.T) {
		alloc := allocation("HVAC", 2026, 10000)
		f := service.NewForecast(alloc, 500, testutil.Date(2026, 2, 10))

		assert.Equal(t, service.ConfidenceLow, f.Confidence)
	})

	t.Run("no spend projects zero", func(t *testing.T) {
		alloc := allocation("HVAC", 2026, 10000)
		f := service.NewForecast(alloc, 0, testutil.Date(2026, 8, 1))

		assert.Equal(t, 0.0, f.MonthlyAverage)
		assert.Equal(t, 0.0, f.ProjectedSpend)
		assert.False(t, f.ProjectedOver)
	})

	t.Run("future year has no run rate", func(t *testing.T) {
		alloc := allocation("HVAC", 2027, 10000)
		f := service.NewForecast(alloc, 0, testutil.Date(2026, 8, 1))

		assert.Equal(t, 0, f.ElapsedMonths)
		assert.Equal(t, 0.0, f.ProjectedSpend)
		assert.Equal(t, service.ConfidenceLow, f.Confidence)
	})
}
