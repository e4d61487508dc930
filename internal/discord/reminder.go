package discord

import (
	"fmt"
	"time"

	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

// Reminders returns the countdown embeds due at now. It is empty outside the
// trigger hours, when today is not in the schedule or the slot has no event.
func Reminders(s *schedule.MonthlySchedule, now time.Time) []Embed {
	if int(now.Month())-1 != s.Month || now.Year() != s.Year {
		return nil
	}
	today, ok := s.FindDay(now.Day())
	if !ok {
		return nil
	}

	var embeds []Embed
	for _, slot := range schedule.Slots {
		name := slot.Event(today)
		if now.Hour() != slot.TriggerHour || name == "" {
			continue
		}

		start := time.Date(now.Year(), now.Month(), now.Day(), slot.StartHour, 0, 0, 0, now.Location())
		minutes := int(start.Sub(now) / time.Minute)

		embed := Embed{
			Title:       "📅 Contagem Decrescente!",
			Description: fmt.Sprintf("**%s**: %s\n⏰ Começa dentro de %d minutos", slot.Label(), name, minutes),
			Color:       ColorReminder,
		}
		if today.Extra != "" {
			embed.Fields = []Field{{
				Name:  "Evento Adicional",
				Value: fmt.Sprintf("Não te esqueças do evento adicional de hoje:\n%s!", today.Extra),
			}}
		}
		embeds = append(embeds, embed)
	}
	return embeds
}
