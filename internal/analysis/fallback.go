package analysis

import "github.com/dm-insight-core/server/internal/analysis/stats"

// UnknownTaskMessage is reported for task identifiers outside the catalogue.
const UnknownTaskMessage = "알 수 없는 분석 유형"

// Fallback returns the static result substituted when the backend for task
// is unavailable.
func Fallback(task Task) Result {
	r := Result{Task: task, Source: SourceFallback}
	switch task {
	case TaskSalesPlanning:
		r.Sales = &SalesForecast{Audience: 15000}
	case TaskSalesSelling:
		r.Sales = &SalesForecast{Audience: 20000}
	case TaskROIBEPPlanning:
		r.ROIBEP = &ROIBEPForecast{ROI: 15.5, BEP: 8000}
	case TaskROIBEPSelling:
		r.ROIBEP = &ROIBEPForecast{ROI: 18.5, BEP: 9500}
	case TaskTicketRisk:
		r.Risk = &RiskAssessment{Labels: []int{0}}
	case TaskGenreStats:
		r.Genre = &stats.Genre{
			Genre:            []string{"뮤지컬", "연극", "서양음악(클래식)", "대중음악", "무용(서양/한국)", "한국음악(국악)", "서커스/마술", "복합"},
			PerformanceCount: []int64{3006, 2932, 8199, 3970, 840, 1356, 835, 440},
			Audience:         []int64{7831448, 2836558, 3290415, 6302709, 606737, 436947, 692155, 225613},
			TicketRevenue:    []int64{465122497, 73411508, 100996136, 756977444, 20633422, 4869454, 28565775, 2799943},
		}
	case TaskRegionalStats:
		r.Regional = &stats.Regional{
			Region:             []string{"서울", "경기", "부산", "대구", "인천"},
			PerformanceCount:   []int64{9966, 2917, 1311, 1279, 687},
			ShowCount:          []int64{82160, 10807, 5429, 5146, 2231},
			TotalTicketSales:   []int64{13384094, 2549324, 1062750, 1002533, 823153},
			TotalTicketRevenue: []int64{946566611, 127171128, 82282070, 56503689, 76098489},
		}
	case TaskVenueStats:
		r.Venue = &stats.VenueScale{
			Year:             []int{2024, 2024, 2024, 2024, 2024, 2024, 2024},
			Scale:            []string{"10,000석 이상", "5,000~10,000석 미만", "1,000~5,000석 미만", "500~1,000석 미만", "300~500석 미만", "1~300석 미만", "0석(좌석미상)"},
			PerformanceCount: []int64{132, 131, 4038, 4558, 4135, 7147, 1493},
			TotalTicketSales: []int64{2682816, 734900, 8227156, 3504875, 2762187, 3429763, 898841},
		}
	default:
		r.Err = UnknownTaskMessage
	}
	return r
}
