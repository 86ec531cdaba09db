package stats

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a single connection keeps the in-memory database alive across queries
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&GenreRow{}, &RegionRow{}, &FacilityRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDBGenreAggregates(t *testing.T) {
	db := openTestDB(t)
	rows := []GenreRow{
		{Genre: "연극", PerformanceCount: 10, Audience: 100, TicketRevenue: 1000},
		{Genre: "뮤지컬", PerformanceCount: 5, Audience: 50, TicketRevenue: 500},
		{Genre: "연극", PerformanceCount: 2, Audience: 20, TicketRevenue: 1337257477586},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := NewDB(db).Genre(context.Background())
	if err != nil {
		t.Fatalf("Genre: %v", err)
	}
	want := &Genre{
		Genre:            []string{"뮤지컬", "연극"},
		PerformanceCount: []int64{5, 12},
		Audience:         []int64{50, 120},
		TicketRevenue:    []int64{500, 1337257478586},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("genre stats mismatch (-want +got):\n%s", diff)
	}
}

func TestDBRegionalAggregates(t *testing.T) {
	db := openTestDB(t)
	rows := []RegionRow{
		{Region: "서울", PerformanceCount: 3, ShowCount: 30, TotalTicketSales: 300, TotalTicketRevenue: 3000},
		{Region: "부산", PerformanceCount: 1, ShowCount: 10, TotalTicketSales: 100, TotalTicketRevenue: 1000},
		{Region: "서울", PerformanceCount: 4, ShowCount: 40, TotalTicketSales: 400, TotalTicketRevenue: 4000},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := NewDB(db).Regional(context.Background())
	if err != nil {
		t.Fatalf("Regional: %v", err)
	}
	want := &Regional{
		Region:             []string{"부산", "서울"},
		PerformanceCount:   []int64{1, 7},
		ShowCount:          []int64{10, 70},
		TotalTicketSales:   []int64{100, 700},
		TotalTicketRevenue: []int64{1000, 7000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("regional stats mismatch (-want +got):\n%s", diff)
	}
}

func TestDBVenueScaleOrdersByYearThenScale(t *testing.T) {
	db := openTestDB(t)
	rows := []FacilityRow{
		{Year: 2024, Scale: "1~300석 미만", PerformanceCount: 6, TotalTicketSales: 60},
		{Year: 2023, Scale: "10,000석 이상", PerformanceCount: 2, TotalTicketSales: 20},
		{Year: 2023, Scale: "1,000~5,000석 미만", PerformanceCount: 4, TotalTicketSales: 40},
		{Year: 2024, Scale: "1~300석 미만", PerformanceCount: 1, TotalTicketSales: 10},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := NewDB(db).VenueScale(context.Background())
	if err != nil {
		t.Fatalf("VenueScale: %v", err)
	}
	want := &VenueScale{
		Year:             []int{2023, 2023, 2024},
		Scale:            []string{"1,000~5,000석 미만", "10,000석 이상", "1~300석 미만"},
		PerformanceCount: []int64{4, 2, 7},
		TotalTicketSales: []int64{40, 20, 70},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("venue stats mismatch (-want +got):\n%s", diff)
	}
}

func TestDBMissingTableIsWrapped(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := NewDB(db).Genre(context.Background()); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestStaticColumnsAreParallel(t *testing.T) {
	ctx := context.Background()
	g, _ := Static{}.Genre(ctx)
	if n := len(g.Genre); len(g.PerformanceCount) != n || len(g.Audience) != n || len(g.TicketRevenue) != n {
		t.Fatalf("genre columns not parallel")
	}
	r, _ := Static{}.Regional(ctx)
	if n := len(r.Region); n != 22 || len(r.PerformanceCount) != n || len(r.ShowCount) != n || len(r.TotalTicketSales) != n || len(r.TotalTicketRevenue) != n {
		t.Fatalf("regional columns not parallel")
	}
	v, _ := Static{}.VenueScale(ctx)
	if n := len(v.Year); n != 14 || len(v.Scale) != n || len(v.PerformanceCount) != n || len(v.TotalTicketSales) != n {
		t.Fatalf("venue columns not parallel")
	}
}
