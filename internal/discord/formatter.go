package discord

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	// NoEventsToday is returned for the today view when the day has no entry
	NoEventsToday = "❌ Não há eventos hoje."

	noEventsLine = "• Nenhum evento."
	todayMarker  = " 🎯"
	allDayMarker = " *"
	unsetSlot    = "-"
)

var weekdays = [7]string{
	"Domingo",
	"Segunda-feira",
	"Terça-feira",
	"Quarta-feira",
	"Quinta-feira",
	"Sexta-feira",
	"Sábado",
}

// timeRangePattern detects extras that already carry their own hours
var timeRangePattern = regexp.MustCompile(`\d{2}:\d{2}\s*-\s*\d{2}:\d{2}`)

// Rendered is the description of one period plus what the footer needs to know
type Rendered struct {
	Description    string
	HasAllDayExtra bool
}

// WeekdayName returns the Portuguese name of a weekday
func WeekdayName(d time.Weekday) string {
	return weekdays[d]
}

// Format is FormatSchedule without the footer hints
func Format(s *schedule.MonthlySchedule, p schedule.Period, now time.Time) string {
	return FormatSchedule(s, p, now).Description
}

// FormatSchedule renders the schedule for a period. now must already be in the
// schedule's local timezone; it decides which day is "today".
func FormatSchedule(s *schedule.MonthlySchedule, p schedule.Period, now time.Time) Rendered {
	r := &renderer{}
	r.line(fmt.Sprintf("**%s**", s.ThreadTitle))

	switch p {
	case schedule.Today:
		day, ok := s.FindDay(now.Day())
		if !ok {
			return Rendered{Description: NoEventsToday}
		}
		r.line(fmt.Sprintf("**Hoje, %02d/%d**", day.Day, s.Month+1))
		r.slots(day)
		r.extra(orUnset(day.Extra))

	case schedule.Week:
		start := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
		start = start.AddDate(0, 0, 1-int(now.Weekday()))
		for i := 0; i < 7; i++ {
			d := start.AddDate(0, 0, i)
			mark := ""
			if sameDate(d, now) && int(d.Month())-1 == s.Month {
				mark = todayMarker
			}
			r.line(fmt.Sprintf("**%s, %02d/%d%s**", WeekdayName(d.Weekday()), d.Day(), int(d.Month()), mark))

			day, ok := dayInSchedule(s, d)
			if !ok {
				r.line(noEventsLine)
				continue
			}
			r.slots(day)
			if day.Extra != "" {
				r.extra(day.Extra)
			}
		}

	default:
		current := int(now.Month())-1 == s.Month && now.Year() == s.Year
		days := make([]schedule.DailyEvent, len(s.Days))
		copy(days, s.Days)
		sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })

		for _, day := range days {
			date := time.Date(s.Year, time.Month(s.Month+1), day.Day, 12, 0, 0, 0, time.UTC)
			mark := ""
			if current && day.Day == now.Day() {
				mark = todayMarker
			}
			r.line(fmt.Sprintf("**%s, %02d/%d%s**", WeekdayName(date.Weekday()), day.Day, s.Month+1, mark))
			r.slots(&day)
			if day.Extra != "" {
				r.extra(day.Extra)
			}
		}
	}

	return Rendered{
		Description:    strings.Join(r.lines, "\n"),
		HasAllDayExtra: r.allDay,
	}
}

type renderer struct {
	lines  []string
	allDay bool
}

func (r *renderer) line(s string) {
	r.lines = append(r.lines, s)
}

func (r *renderer) slots(d *schedule.DailyEvent) {
	for _, slot := range schedule.Slots {
		r.line(fmt.Sprintf("• **%s**: %s", slot.Label(), orUnset(slot.Event(d))))
	}
}

func (r *renderer) extra(text string) {
	if text != unsetSlot && !timeRangePattern.MatchString(text) {
		text += allDayMarker
		r.allDay = true
	}
	r.line("• **Evento Adicional**: " + text)
}

// dayInSchedule finds the entry for date, which must fall in the schedule's month
func dayInSchedule(s *schedule.MonthlySchedule, date time.Time) (*schedule.DailyEvent, bool) {
	if int(date.Month())-1 != s.Month || date.Year() != s.Year {
		return nil, false
	}
	return s.FindDay(date.Day())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func orUnset(s string) string {
	if s == "" {
		return unsetSlot
	}
	return s
}
