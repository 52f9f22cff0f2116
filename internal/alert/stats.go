package alert

import "time"

// PriorityCounts is an exhaustive count per priority.
type PriorityCounts struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Stats aggregates the active alerts.
type Stats struct {
	Total      int            `json:"total"`
	Unread     int            `json:"unread"`
	ByPriority PriorityCounts `json:"by_priority"`
	// ByType only carries types that occur.
	ByType     map[Type]int `json:"by_type"`
	TodayCount int          `json:"today_count"`
	WeekCount  int          `json:"week_count"`
}

// ComputeStats summarises the active alerts in alerts as of now. "Today"
// is the calendar day of now in loc; a nil loc means time.Local.
func ComputeStats(alerts []Alert, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	s := Stats{ByType: map[Type]int{}}
	for _, a := range alerts {
		if !a.IsActive {
			continue
		}
		s.Total++
		if !a.IsRead {
			s.Unread++
		}
		switch a.Priority {
		case PriorityLow:
			s.ByPriority.Low++
		case PriorityMedium:
			s.ByPriority.Medium++
		case PriorityHigh:
			s.ByPriority.High++
		case PriorityCritical:
			s.ByPriority.Critical++
		}
		s.ByType[a.Type]++
		if !a.Timestamp.Before(midnight) {
			s.TodayCount++
		}
		if !a.Timestamp.Before(weekAgo) {
			s.WeekCount++
		}
	}
	return s
}
