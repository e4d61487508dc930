package discord

import (
	"fmt"
	"time"

	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	ColorSchedule = 0x00ff00
	ColorReminder = 0xffa500

	slotLegend     = "Evento 1 (15:00-19:00), Evento 2 (19:00-23:00)"
	allDayFootnote = "* Durante todo o dia, das 23h do dia anterior às 23h do próprio dia"
	updatedLayout  = "02/01/2006, 15:04:05"
)

// Embed is a Discord message embed. Unavailable marks a stored period result
// whose schedule could not be built; it is never sent to Discord.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Unavailable bool    `json:"unavailable,omitempty"`
}

type Footer struct {
	Text string `json:"text"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// PeriodTitle returns the heading used for a period
func PeriodTitle(p schedule.Period) string {
	switch p {
	case schedule.Today:
		return "Hoje"
	case schedule.Month:
		return "Este Mês"
	case schedule.Next:
		return "Próximo Mês"
	default:
		return "Esta Semana"
	}
}

// Embeds builds the embed list for one period of a schedule
func Embeds(p schedule.Period, s *schedule.MonthlySchedule, now time.Time) []Embed {
	rendered := FormatSchedule(s, p, now)

	label := s.ServerLabel
	if label == "" {
		label = schedule.DefaultServerLabel
	}

	footer := fmt.Sprintf("%s\nAtualizado a %s", slotLegend, now.Format(updatedLayout))
	if rendered.HasAllDayExtra {
		footer += "\n\n\n" + allDayFootnote
	}

	return []Embed{{
		Title:       fmt.Sprintf("📅 Eventos Metin2 %s - %s", label, PeriodTitle(p)),
		Description: rendered.Description,
		Color:       ColorSchedule,
		Footer:      &Footer{Text: footer},
	}}
}

// UnavailableEmbeds is stored for a period whose schedule is absent or failed
func UnavailableEmbeds() []Embed {
	return []Embed{{Unavailable: true}}
}

// IsUnavailable reports whether a stored result marks an absent schedule
func IsUnavailable(embeds []Embed) bool {
	return len(embeds) == 0 || embeds[0].Unavailable
}

// NothingScheduled is the reply for a period without a schedule
func NothingScheduled(p schedule.Period) string {
	return fmt.Sprintf("❌ Não há nada agendado (%s).", PeriodTitle(p))
}
