package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	productID = "-//Metin2 Events//metin2-events//PT"
	uidDomain = "metin2-events"
)

// GenerateICS generates an iCalendar document for a monthly schedule: one event
// per filled slot, with times in loc, and one all-day event per additional event.
// It returns an empty string for a schedule without days.
func GenerateICS(s *schedule.MonthlySchedule, loc *time.Location) string {
	if !s.Valid() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}

	label := s.ServerLabel
	if label == "" {
		label = schedule.DefaultServerLabel
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(fmt.Sprintf("Eventos Metin2 %s - %02d/%d", label, s.Month+1, s.Year))
	cal.SetXWRTimezone(loc.String())

	stamp := time.Now().UTC()
	for _, day := range s.Days {
		date := time.Date(s.Year, time.Month(s.Month+1), day.Day, 0, 0, 0, 0, loc)

		for _, slot := range schedule.Slots {
			name := slot.Event(&day)
			if name == "" {
				continue
			}
			ev := cal.AddEvent(UID(s, day.Day, fmt.Sprintf("evento%d", slot.Number)))
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(wallClock(date, slot.StartHour))
			ev.SetEndAt(wallClock(date, slot.EndHour))
			ev.SetSummary(fmt.Sprintf("%s: %s", slot.Label(), name))
			describe(ev, s)
		}

		if day.Extra != "" {
			ev := cal.AddEvent(UID(s, day.Day, "extra"))
			ev.SetDtStampTime(stamp)
			ev.SetAllDayStartAt(date)
			ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
			ev.SetSummary("Evento Adicional: " + day.Extra)
			describe(ev, s)
		}
	}

	return cal.Serialize()
}

// wallClock returns hour:00 on date's calendar day. Adding hours to midnight
// would drift by one on the days the clocks change.
func wallClock(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
}

// UID returns the stable identifier of one entry, so re-imports update in place
func UID(s *schedule.MonthlySchedule, day int, slot string) string {
	return fmt.Sprintf("%d-%02d-%02d-%s@%s", s.Year, s.Month+1, day, slot, uidDomain)
}

func describe(ev *ical.VEvent, s *schedule.MonthlySchedule) {
	if s.ThreadTitle != "" {
		ev.SetDescription(s.ThreadTitle)
	}
	if s.ThreadURL != "" {
		ev.SetURL(s.ThreadURL)
	}
	ev.SetStatus(ical.ObjectStatusConfirmed)
}
