package stats

import (
	"context"
	"sort"

	"gorm.io/gorm"

	errx "github.com/dm-insight-core/server/internal/core/error"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// GenreRow maps a row of genre_stats_tb.
type GenreRow struct {
	Genre            string `gorm:"column:장르"`
	PerformanceCount int64  `gorm:"column:개막편수"`
	Audience         int64  `gorm:"column:관객수"`
	TicketRevenue    int64  `gorm:"column:매출액"`
}

func (GenreRow) TableName() string { return "genre_stats_tb" }

// RegionRow maps a row of region_stats_tb.
type RegionRow struct {
	Region             string `gorm:"column:지역명"`
	PerformanceCount   int64  `gorm:"column:공연건수"`
	ShowCount          int64  `gorm:"column:상연횟수"`
	TotalTicketSales   int64  `gorm:"column:총티켓판매수"`
	TotalTicketRevenue int64  `gorm:"column:총티켓판매액"`
}

func (RegionRow) TableName() string { return "region_stats_tb" }

// FacilityRow maps a row of facility_stats_tb.
type FacilityRow struct {
	Year             int    `gorm:"column:연도"`
	Scale            string `gorm:"column:규모"`
	PerformanceCount int64  `gorm:"column:공연건수"`
	TotalTicketSales int64  `gorm:"column:총티켓판매수"`
}

func (FacilityRow) TableName() string { return "facility_stats_tb" }

// DB aggregates the statistics tables with GROUP BY + SUM. Rows are ordered
// by their group key using byte order so results do not depend on the
// database collation.
type DB struct {
	db *gorm.DB
}

var _ Source = (*DB)(nil)

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

type genreAgg struct {
	Genre            string
	PerformanceCount int64
	Audience         int64
	TicketRevenue    int64
}

func (s *DB) Genre(ctx context.Context) (*Genre, error) {
	var rows []genreAgg
	err := s.db.WithContext(ctx).Model(&GenreRow{}).
		Select(`"장르" AS genre, ` +
			`CAST(COALESCE(SUM("개막편수"), 0) AS BIGINT) AS performance_count, ` +
			`CAST(COALESCE(SUM("관객수"), 0) AS BIGINT) AS audience, ` +
			`CAST(COALESCE(SUM("매출액"), 0) AS BIGINT) AS ticket_revenue`).
		Where(`"장르" IS NOT NULL`).
		Group(`"장르"`).
		Scan(&rows).Error
	if err != nil {
		logx.Error().Err(err).Str("table", GenreRow{}.TableName()).Msg("failed to aggregate genre stats")
		return nil, errx.WrapDatabase(err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Genre < rows[j].Genre })

	out := &Genre{
		Genre:            make([]string, 0, len(rows)),
		PerformanceCount: make([]int64, 0, len(rows)),
		Audience:         make([]int64, 0, len(rows)),
		TicketRevenue:    make([]int64, 0, len(rows)),
	}
	for _, r := range rows {
		out.Genre = append(out.Genre, r.Genre)
		out.PerformanceCount = append(out.PerformanceCount, r.PerformanceCount)
		out.Audience = append(out.Audience, r.Audience)
		out.TicketRevenue = append(out.TicketRevenue, r.TicketRevenue)
	}
	return out, nil
}

type regionAgg struct {
	Region             string
	PerformanceCount   int64
	ShowCount          int64
	TotalTicketSales   int64
	TotalTicketRevenue int64
}

func (s *DB) Regional(ctx context.Context) (*Regional, error) {
	var rows []regionAgg
	err := s.db.WithContext(ctx).Model(&RegionRow{}).
		Select(`"지역명" AS region, ` +
			`CAST(COALESCE(SUM("공연건수"), 0) AS BIGINT) AS performance_count, ` +
			`CAST(COALESCE(SUM("상연횟수"), 0) AS BIGINT) AS show_count, ` +
			`CAST(COALESCE(SUM("총티켓판매수"), 0) AS BIGINT) AS total_ticket_sales, ` +
			`CAST(COALESCE(SUM("총티켓판매액"), 0) AS BIGINT) AS total_ticket_revenue`).
		Where(`"지역명" IS NOT NULL`).
		Group(`"지역명"`).
		Scan(&rows).Error
	if err != nil {
		logx.Error().Err(err).Str("table", RegionRow{}.TableName()).Msg("failed to aggregate regional stats")
		return nil, errx.WrapDatabase(err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Region < rows[j].Region })

	out := &Regional{}
	for _, r := range rows {
		out.Region = append(out.Region, r.Region)
		out.PerformanceCount = append(out.PerformanceCount, r.PerformanceCount)
		out.ShowCount = append(out.ShowCount, r.ShowCount)
		out.TotalTicketSales = append(out.TotalTicketSales, r.TotalTicketSales)
		out.TotalTicketRevenue = append(out.TotalTicketRevenue, r.TotalTicketRevenue)
	}
	return out, nil
}

type facilityAgg struct {
	Year             int
	Scale            string
	PerformanceCount int64
	TotalTicketSales int64
}

// VenueScale returns every year in ascending order, each year's scales in
// byte order.
func (s *DB) VenueScale(ctx context.Context) (*VenueScale, error) {
	var rows []facilityAgg
	err := s.db.WithContext(ctx).Model(&FacilityRow{}).
		Select(`"연도" AS year, "규모" AS scale, ` +
			`CAST(COALESCE(SUM("공연건수"), 0) AS BIGINT) AS performance_count, ` +
			`CAST(COALESCE(SUM("총티켓판매수"), 0) AS BIGINT) AS total_ticket_sales`).
		Where(`"연도" IS NOT NULL AND "규모" IS NOT NULL`).
		Group(`"연도", "규모"`).
		Scan(&rows).Error
	if err != nil {
		logx.Error().Err(err).Str("table", FacilityRow{}.TableName()).Msg("failed to aggregate venue scale stats")
		return nil, errx.WrapDatabase(err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Scale < rows[j].Scale
	})

	out := &VenueScale{}
	for _, r := range rows {
		out.Year = append(out.Year, r.Year)
		out.Scale = append(out.Scale, r.Scale)
		out.PerformanceCount = append(out.PerformanceCount, r.PerformanceCount)
		out.TotalTicketSales = append(out.TotalTicketSales, r.TotalTicketSales)
	}
	return out, nil
}
