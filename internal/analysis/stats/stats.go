package stats

import "context"

// Genre holds per-genre aggregates as parallel columns.
type Genre struct {
	Genre            []string `json:"genre"`
	PerformanceCount []int64  `json:"performance_count"`
	Audience         []int64  `json:"audience"`
	TicketRevenue    []int64  `json:"ticket_revenue"`
}

// Regional holds per-region aggregates as parallel columns.
type Regional struct {
	Region             []string `json:"region"`
	PerformanceCount   []int64  `json:"performance_count"`
	ShowCount          []int64  `json:"show_count"`
	TotalTicketSales   []int64  `json:"total_ticket_sales"`
	TotalTicketRevenue []int64  `json:"total_ticket_revenue"`
}

// VenueScale holds per-(year, venue scale) aggregates as parallel columns.
type VenueScale struct {
	Year             []int    `json:"year"`
	Scale            []string `json:"scale"`
	PerformanceCount []int64  `json:"performance_count"`
	TotalTicketSales []int64  `json:"total_ticket_sales"`
}

// Source provides the three canned aggregate statistics.
type Source interface {
	Genre(ctx context.Context) (*Genre, error)
	Regional(ctx context.Context) (*Regional, error)
	VenueScale(ctx context.Context) (*VenueScale, error)
}
