package analysis

// Task names one predictive or aggregate-statistics computation.
type Task string

const (
	TaskSalesPlanning  Task = "accumulated_sales_planning"
	TaskSalesSelling   Task = "accumulated_sales_selling"
	TaskROIBEPPlanning Task = "roi_bep_planning"
	TaskROIBEPSelling  Task = "roi_bep_selling"
	TaskTicketRisk     Task = "ticket_risk_selling"
	TaskGenreStats     Task = "genre_stats"
	TaskRegionalStats  Task = "regional_stats"
	TaskVenueStats     Task = "venue_scale_stats"
)

// Tasks lists every known task, predictions first.
var Tasks = []Task{
	TaskSalesPlanning,
	TaskSalesSelling,
	TaskROIBEPPlanning,
	TaskROIBEPSelling,
	TaskTicketRisk,
	TaskGenreStats,
	TaskRegionalStats,
	TaskVenueStats,
}

// ParseTask validates a task identifier.
func ParseTask(s string) (Task, bool) {
	for _, t := range Tasks {
		if string(t) == s {
			return t, true
		}
	}
	return Task(s), false
}

func (t Task) String() string { return string(t) }

// IsStats reports whether t is a niladic aggregate-statistics task.
func (t Task) IsStats() bool {
	switch t {
	case TaskGenreStats, TaskRegionalStats, TaskVenueStats:
		return true
	}
	return false
}

// IsPrediction reports whether t is served by the prediction backend.
func (t Task) IsPrediction() bool {
	switch t {
	case TaskSalesPlanning, TaskSalesSelling, TaskROIBEPPlanning, TaskROIBEPSelling, TaskTicketRisk:
		return true
	}
	return false
}

func (t Task) isSales() bool {
	return t == TaskSalesPlanning || t == TaskSalesSelling
}

func (t Task) isROIBEP() bool {
	return t == TaskROIBEPPlanning || t == TaskROIBEPSelling
}
