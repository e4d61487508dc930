package schedule

import "fmt"

// Slot is one of the two fixed daily event windows, in local time
type Slot struct {
	Number      int
	StartHour   int
	EndHour     int
	TriggerHour int // reminder hour, one hour before the start
}

// Slots lists the daily windows in order
var Slots = []Slot{
	{Number: 1, StartHour: 15, EndHour: 19, TriggerHour: 14},
	{Number: 2, StartHour: 19, EndHour: 23, TriggerHour: 18},
}

// Label returns the display name, e.g. "Evento 1"
func (s Slot) Label() string {
	return fmt.Sprintf("Evento %d", s.Number)
}

// Event returns the slot's event name for a day, empty when unset
func (s Slot) Event(d *DailyEvent) string {
	if s.Number == 1 {
		return d.Event1
	}
	return d.Event2
}
