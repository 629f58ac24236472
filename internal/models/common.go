package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination normalises page and size the same way list queries do.
func NewPagination(page, size, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &Pagination{Page: page, PageSize: size, TotalCount: total}
}

// Period names accepted by analytics endpoints. Part of the wire contract.
type Period string

const (
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodAll     Period = "all"
)

// Valid reports whether the period name is one of the supported values.
func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAll, "":
		return true
	}
	return false
}

// TrendGroupBy enumerates supported trend bucket granularities.
type TrendGroupBy string

const (
	GroupByDay     TrendGroupBy = "day"
	GroupByWeek    TrendGroupBy = "week"
	GroupByMonth   TrendGroupBy = "month"
	GroupByQuarter TrendGroupBy = "quarter"
	GroupByYear    TrendGroupBy = "year"
)

// Valid reports whether the groupBy value is supported.
func (g TrendGroupBy) Valid() bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByQuarter, GroupByYear, "":
		return true
	}
	return false
}
