package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	// MessageBodySelector matches a post body on the secondary forum
	MessageBodySelector = "div.htmlContent"

	// AdditionalEventsMarker is the paragraph that opens the extra events list
	AdditionalEventsMarker = "Additional events:"
)

// AdditionalEvent is one "Additional events" paragraph, possibly spanning several days
type AdditionalEvent struct {
	Days        []int
	Description string
}

// Substitution replaces every From with To
type Substitution struct {
	From string
	To   string
}

// Translations brings recurring English event phrases to their Portuguese names.
// Order matters: later entries see the output of earlier ones.
var Translations = []Substitution{
	{"Harvest Festival", "Caça os Saqueadores"},
	{"Mining event", "Spawn de Veios"},
	{"(Map: ", "("},
	// The Deserto/Desert pair round-trips; kept as the forum bot has always applied it.
	{"Deserto", "Desert"},
	{"Desert", "Deserto"},
	{" and ", " e "},
	{" and ", " e "},
	{"Catch carp", "Captura de Carpas"},
	{"Open the Fisherman's Chests to get special rewards", "Abre os Baús do Pescador para obteres recompensas especiais"},
}

var (
	// "August 28, + 29, + 30, +31 Harvest Festival ..."
	additionalEventPattern = regexp.MustCompile(`^(\p{L}+)\s+(\d{1,2})((?:\s*,\s*\+\s*\d{1,2})*)`)
	extraDayPattern        = regexp.MustCompile(`\d{1,2}`)

	cestRangePattern = regexp.MustCompile(`\b(\d{2}):(\d{2})\s*-\s*(\d{2}):(\d{2})\s*CEST\b`)
)

// ParseAdditionalEvents finds the message body whose first paragraph mentions the
// server and collects the paragraphs between the "Additional events:" marker and the
// next blank paragraph.
func ParseAdditionalEvents(doc *goquery.Document, serverFilter *regexp.Regexp) []AdditionalEvent {
	var paragraphs *goquery.Selection

	doc.Find(MessageBodySelector).EachWithBreak(func(_ int, body *goquery.Selection) bool {
		ps := body.Find("p")
		if ps.Length() == 0 {
			return true
		}
		if serverFilter == nil || serverFilter.MatchString(ps.First().Text()) {
			paragraphs = ps
			return false
		}
		return true
	})

	events := make([]AdditionalEvent, 0)
	if paragraphs == nil {
		return events
	}

	collecting := false
	paragraphs.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if !collecting {
			collecting = strings.EqualFold(text, AdditionalEventsMarker)
			return true
		}
		if text == "" {
			return false
		}
		if evt, ok := ParseAdditionalEventLine(text); ok {
			events = append(events, evt)
		}
		return true
	})

	return events
}

// ParseAdditionalEventLine parses "<Month> <day>[, + <day>]* <description>".
// The description is translated and converted to Lisbon time.
func ParseAdditionalEventLine(line string) (AdditionalEvent, bool) {
	match := additionalEventPattern.FindStringSubmatch(line)
	if match == nil {
		return AdditionalEvent{}, false
	}
	if _, ok := schedule.MonthIndex(match[1]); !ok {
		return AdditionalEvent{}, false
	}

	days := make([]int, 0, 1)
	for _, d := range extraDayPattern.FindAllString(match[2]+" "+match[3], -1) {
		day, err := strconv.Atoi(d)
		if err != nil || day < 1 || day > 31 {
			continue
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return AdditionalEvent{}, false
	}

	rest := strings.TrimLeft(line[len(match[0]):], ", \t\u00a0")
	description := CleanDescription(rest)
	if description == "" {
		return AdditionalEvent{}, false
	}

	return AdditionalEvent{Days: days, Description: description}, true
}

// CleanDescription applies the translations, the CEST shift and the trailing
// parenthesis cleanup to an additional event description
func CleanDescription(s string) string {
	s = Translate(strings.TrimSpace(s))
	s = ConvertCESTToLisbon(s)
	if strings.HasSuffix(s, " )") {
		s = strings.TrimSuffix(s, " )") + ")"
	}
	return s
}

// Translate applies Translations in order
func Translate(s string) string {
	for _, sub := range Translations {
		s = strings.ReplaceAll(s, sub.From, sub.To)
	}
	return s
}

// ConvertCESTToLisbon shifts every "HH:MM - HH:MM CEST" range back one hour
// (wrapping at midnight) and drops the CEST suffix. Minutes are kept as written.
func ConvertCESTToLisbon(s string) string {
	return cestRangePattern.ReplaceAllStringFunc(s, func(r string) string {
		m := cestRangePattern.FindStringSubmatch(r)
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%02d:%s - %02d:%s", (start+23)%24, m[2], (end+23)%24, m[4])
	})
}

// MergeAdditionalEvents sets Extra on every day an additional event lists
func MergeAdditionalEvents(s *schedule.MonthlySchedule, events []AdditionalEvent) {
	for _, evt := range events {
		for _, day := range evt.Days {
			s.UpsertExtra(day, evt.Description)
		}
	}
}
