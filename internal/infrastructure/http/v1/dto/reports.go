package dto

import (
	"time"

	"stocktally/internal/core/apperror"
	"stocktally/internal/domain/reports"
)

// PeriodReportQuery holds the period report query parameters.
type PeriodReportQuery struct {
	Search string `form:"search"`
	Start  string `form:"startDate"`
	End    string `form:"endDate"`
}

// ToFilter converts query parameters to the service filter.
// The reference date anchors the default fiscal window.
func (q *PeriodReportQuery) ToFilter(reference time.Time) (reports.PeriodFilter, error) {
	start, err := ParseOptionalDate("startDate", q.Start)
	if err != nil {
		return reports.PeriodFilter{}, err
	}
	end, err := ParseOptionalDate("endDate", q.End)
	if err != nil {
		return reports.PeriodFilter{}, err
	}
	return reports.PeriodFilter{
		Search:    q.Search,
		Start:     start,
		End:       end,
		Reference: reference,
	}, nil
}

// MonthlyTotalsQuery holds the monthly dashboard query parameters.
type MonthlyTotalsQuery struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month" binding:"required"`
}

// Validate checks the month bounds.
func (q *MonthlyTotalsQuery) Validate() error {
	if q.Month < 1 || q.Month > 12 {
		return apperror.NewValidation("month out of range").
			WithDetail("month", q.Month)
	}
	return nil
}

// CountSummaryQuery holds the count summary query parameters.
type CountSummaryQuery struct {
	Search string `form:"search"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// ToFilter converts query parameters to the service filter.
func (q *CountSummaryQuery) ToFilter() (reports.CountSummaryFilter, error) {
	from, err := ParseOptionalDate("from", q.From)
	if err != nil {
		return reports.CountSummaryFilter{}, err
	}
	to, err := ParseOptionalDate("to", q.To)
	if err != nil {
		return reports.CountSummaryFilter{}, err
	}
	return reports.CountSummaryFilter{Search: q.Search, From: from, To: to}, nil
}
