package schedule

import "sort"

// DefaultServerLabel is used when a thread title carries no [bracketed] server tag
const DefaultServerLabel = "Tigerghost"

// DailyEvent holds one calendar day's entries
type DailyEvent struct {
	Day    int    `json:"day"`
	Event1 string `json:"event1,omitempty"` // 15:00-19:00 slot
	Event2 string `json:"event2,omitempty"` // 19:00-23:00 slot
	Extra  string `json:"extra,omitempty"`  // Additional event from the secondary forum
}

// MonthlySchedule is one month's resolved schedule
type MonthlySchedule struct {
	ServerLabel string       `json:"server_label"`
	Month       int          `json:"month"` // 0-11
	Year        int          `json:"year"`
	Days        []DailyEvent `json:"days"`
	ThreadTitle string       `json:"thread_title"`
	ThreadURL   string       `json:"thread_url"`
}

// ThreadRef is a candidate thread discovered on a forum index page
type ThreadRef struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// Valid reports whether the schedule resolved at least one day
func (s *MonthlySchedule) Valid() bool {
	return s != nil && len(s.Days) > 0
}

// SortDays orders Days ascending by day number
func (s *MonthlySchedule) SortDays() {
	sort.SliceStable(s.Days, func(i, j int) bool {
		return s.Days[i].Day < s.Days[j].Day
	})
}

// FindDay returns the entry for the given day of month
func (s *MonthlySchedule) FindDay(day int) (*DailyEvent, bool) {
	for i := range s.Days {
		if s.Days[i].Day == day {
			return &s.Days[i], true
		}
	}
	return nil, false
}

// UpsertExtra sets the Extra field for a day, creating the day if needed.
// An existing Extra is overwritten.
func (s *MonthlySchedule) UpsertExtra(day int, extra string) {
	if d, ok := s.FindDay(day); ok {
		d.Extra = extra
		return
	}
	s.Days = append(s.Days, DailyEvent{Day: day, Extra: extra})
}
