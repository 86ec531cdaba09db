package stats

import "context"

// Static serves the aggregates computed from the published performance
// statistics tables. It is used when no statistics database is configured.
type Static struct{}

var _ Source = Static{}

func (Static) Genre(context.Context) (*Genre, error) {
	return &Genre{
		Genre: []string{
			"대중무용", "대중음악", "무용(서양/한국무용)", "뮤지컬", "복합",
			"서양음악(클래식)", "서커스/마술", "연극", "한국음악(국악)",
		},
		PerformanceCount: []int64{115, 7586, 1652, 5963, 862, 15845, 1359, 5399, 2556},
		Audience:         []int64{74897, 11528584, 1196316, 15868658, 459707, 6379810, 1375820, 5469736, 865332},
		TicketRevenue: []int64{
			5232114900, 1337257477586, 39483012874, 923351724391, 6150390882,
			201011077618, 68307452991, 135460853742, 9751860962,
		},
	}, nil
}

func (Static) Regional(context.Context) (*Regional, error) {
	return &Regional{
		Region: []string{
			"강원도", "경기", "경기/인천", "경남", "경북", "경상도", "광주", "대구", "대전", "부산",
			"서울", "세종", "울산", "인천", "전남", "전라도", "전북", "제주도", "충남", "충북", "충청도", "합계",
		},
		PerformanceCount: []int64{
			1061, 6200, 7682, 1564, 1241, 9023, 1137, 2699, 1551, 2825,
			23196, 363, 694, 1482, 724, 2908, 1047, 574, 1026, 613, 3553, 47997,
		},
		ShowCount: []int64{
			2023, 20085, 24338, 4517, 2446, 30292, 4157, 10212, 5876, 10499,
			156078, 648, 2618, 4253, 3051, 10217, 3009, 3699, 2135, 2386, 11045, 237692,
		},
		TotalTicketSales: []int64{
			582917, 4561151, 5977633, 877624, 758169, 6397471, 807256, 2067285, 826402, 2234348,
			26284380, 196873, 460045, 1416482, 400945, 1781171, 572970, 279199, 567710, 325104, 1916089, 43218860,
		},
		TotalTicketRevenue: []int64{
			27478563671, 209759994957, 323572313608, 38098318991, 23892649690, 370460857349, 46550414450, 117366940722, 51950324061, 172433773289,
			1812089619145, 6973849560, 18669174657, 113812318651, 13269617790, 88445301773, 28625269533, 9396123030, 17660121674, 17978892075, 94563187370, 2726005965946,
		},
	}, nil
}

func (Static) VenueScale(context.Context) (*VenueScale, error) {
	scales := []string{
		"1,000~5,000석 미만", "10,000석 이상", "1~300석 미만", "300~500석 미만",
		"5,000~10,000석 미만", "500~1,000석 미만", "좌석 미상",
	}
	return &VenueScale{
		Year:  []int{2023, 2023, 2023, 2023, 2023, 2023, 2023, 2024, 2024, 2024, 2024, 2024, 2024, 2024},
		Scale: append(append([]string(nil), scales...), scales...),
		PerformanceCount: []int64{
			4388, 196, 11253, 5207, 180, 5331, 2726,
			3735, 86, 6616, 3742, 47, 3910, 580,
		},
		TotalTicketSales: []int64{
			9238945, 3706546, 3908329, 3135249, 882933, 3913562, 1251977,
			7293316, 1280626, 2845973, 2353712, 291825, 2906755, 209112,
		},
	}, nil
}
