package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	logx "github.com/dm-insight-core/server/pkg/logger"
)

const (
	uninterpretableText = "분석 결과를 해석할 수 없습니다."
	sectionHeading      = "## 📊 분석 결과\n\n"
)

var riskLevels = map[int]string{
	0: "낮음",
	1: "중간",
	2: "높음",
}

var riskAdvice = map[int]string{
	0: "현재 판매 추세가 양호합니다. 현재 전략을 유지하세요.",
	1: "판매 추세가 기대에 미치지 못합니다. 마케팅 활동 강화를 고려해보세요.",
	2: "판매 위험도가 높습니다. 추가 마케팅 활동과 프로모션을 적극 고려하세요.",
}

// Interpret renders a result as a Korean summary. It never panics.
func Interpret(r Result) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Str("task", r.Task.String()).Interface("panic", rec).Msg("failed to interpret analysis result")
			text = fmt.Sprintf("결과 해석 중 오류 발생: %v", rec)
		}
	}()

	if r.Err != "" {
		return "분석 중 오류가 발생했습니다: " + r.Err
	}
	if r.Risk != nil {
		return interpretRisk(r.Risk)
	}

	switch r.Task {
	case TaskGenreStats:
		return interpretGenre(r)
	case TaskRegionalStats:
		return interpretRegional(r)
	case TaskVenueStats:
		return interpretVenue(r)
	}

	switch {
	case r.Task.isSales() && r.Sales != nil:
		return fmt.Sprintf("🎭 예상 관객 수: 약 %s명\n", humanize.Comma(int64(r.Sales.Audience)))
	case r.Task.isROIBEP() && r.ROIBEP != nil:
		roi := r.ROIBEP.ROI
		if r.ROIBEP.Shape == ShapeNested {
			roi *= 100
		}
		return fmt.Sprintf("📈 예상 ROI(투자수익률): %.2f%%\n⚖️ 손익분기점(BEP): 약 %s명의 관객\n",
			roi, humanize.Comma(int64(r.ROIBEP.BEP)))
	}
	return uninterpretableText
}

func interpretRisk(risk *RiskAssessment) string {
	label := 0
	if len(risk.Labels) > 0 {
		label = risk.Labels[0]
	}
	level, ok := riskLevels[label]
	if !ok {
		level = "알 수 없음"
	}
	advice, ok := riskAdvice[label]
	if !ok {
		advice = "판매 추세를 분석할 충분한 데이터가 없습니다."
	}
	return fmt.Sprintf("⚠️ 티켓 판매 위험도: %s\n", level) + advice
}

func interpretGenre(r Result) string {
	g := r.Genre
	if g == nil || len(g.Genre) == 0 {
		return "장르별 통계 데이터가 준비되었습니다."
	}

	order := topByCount(g.PerformanceCount[:min(len(g.PerformanceCount), len(g.Genre))], 3, nil)
	if len(order) == 0 {
		return "장르별 통계 데이터가 준비되었습니다."
	}

	var b strings.Builder
	b.WriteString("🎭 장르별 통계 분석 결과:\n\n")
	top := order[0]
	fmt.Fprintf(&b, "공연 작품 수가 가장 많은 장르는 '%s'로 %d개 작품이 공연되었습니다.\n", g.Genre[top], g.PerformanceCount[top])
	if len(order) > 1 {
		runners := make([]string, 0, 2)
		for _, i := range order[1:] {
			runners = append(runners, fmt.Sprintf("'%s'(%d개)", g.Genre[i], g.PerformanceCount[i]))
		}
		fmt.Fprintf(&b, "그 다음으로 %s 순입니다.\n", strings.Join(runners, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "전체 %d개 장르에서 총 %d개 작품이 공연되었으며, 총 관객 수는 %s명, 티켓 매출액은 %s원입니다.\n",
		len(g.Genre), sum(g.PerformanceCount), humanize.Comma(sum(g.Audience)), humanize.Comma(sum(g.TicketRevenue)))
	return b.String()
}

func interpretRegional(r Result) string {
	const empty = "지역별 통계 데이터가 준비되었습니다."
	s := r.Regional
	if s == nil || len(s.Region) == 0 {
		return empty
	}
	isTotal := func(i int) bool { return totalRegions[strings.TrimSpace(s.Region[i])] }

	order := topByCount(s.PerformanceCount[:min(len(s.PerformanceCount), len(s.Region))], 3, isTotal)
	if len(order) == 0 {
		return empty
	}

	var b strings.Builder
	b.WriteString("📍 지역별 통계 분석 결과:\n\n")
	top := order[0]
	shows := int64(0)
	if top < len(s.ShowCount) {
		shows = s.ShowCount[top]
	}
	fmt.Fprintf(&b, "공연이 가장 많이 열린 지역은 '%s'로 %d개 공연, %d회 상연이 진행되었습니다.\n",
		s.Region[top], s.PerformanceCount[top], shows)
	if len(order) == 3 {
		fmt.Fprintf(&b, "그 다음으로 '%s'(%d개), '%s'(%d개) 순입니다.\n\n",
			s.Region[order[1]], s.PerformanceCount[order[1]], s.Region[order[2]], s.PerformanceCount[order[2]])
	}
	if best := topByCount(s.TotalTicketSales[:min(len(s.TotalTicketSales), len(s.Region))], 1, isTotal); len(best) == 1 {
		fmt.Fprintf(&b, "티켓 판매가 가장 많은 지역은 '%s'로 총 %s장이 판매되었습니다.\n",
			s.Region[best[0]], humanize.Comma(s.TotalTicketSales[best[0]]))
	}
	return b.String()
}

func interpretVenue(r Result) string {
	const empty = "공연장 규모별 통계 데이터가 준비되었습니다."
	v := r.Venue
	if v == nil || len(v.Year) == 0 || len(v.Scale) == 0 {
		return empty
	}

	latest := slices.Max(v.Year)
	var scales []string
	var counts []int64
	for i, y := range v.Year {
		if y == latest {
			scales = append(scales, v.Scale[i])
			counts = append(counts, v.PerformanceCount[i])
		}
	}
	if len(counts) == 0 {
		return empty
	}
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏛️ 공연장 규모별 통계 분석 결과 (%d년):\n\n", latest)
	fmt.Fprintf(&b, "가장 많은 공연이 열린 공연장 규모는 '%s'로 %d개 공연이 진행되었습니다.\n", scales[best], counts[best])

	prev := latest - 1
	for i, y := range v.Year {
		if y != prev || v.Scale[i] != scales[best] {
			continue
		}
		prevCount := v.PerformanceCount[i]
		change := counts[best] - prevCount
		qualifier := "동일합니다"
		switch {
		case change > 0:
			qualifier = "증가했습니다"
		case change < 0:
			qualifier = "감소했습니다"
			change = -change
		}
		fmt.Fprintf(&b, "이는 %d년(%d개)에 비해 %d개 %s.\n", prev, prevCount, change, qualifier)
		break
	}
	return b.String()
}

// Section joins interpreted texts under the analysis heading.
func Section(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	return sectionHeading + strings.Join(texts, "\n")
}

// totalRegions names summary rows that statistics tables mix in with the
// regions themselves.
var totalRegions = map[string]bool{"합계": true, "전체": true, "총계": true}

// topByCount returns the indexes of the n largest counts, largest first.
// Ties keep their input order. Indexes for which skip reports true are left
// out.
func topByCount(counts []int64, n int, skip func(int) bool) []int {
	order := make([]int, 0, len(counts))
	for i := range counts {
		if skip == nil || !skip(i) {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case counts[a] > counts[b]:
			return -1
		case counts[a] < counts[b]:
			return 1
		}
		return 0
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func sum(xs []int64) int64 {
	var total int64
	for _, x := range xs {
		total += x
	}
	return total
}
