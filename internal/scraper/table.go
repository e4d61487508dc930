package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const noEventPlaceholder = "-"

var (
	slot1Pattern = regexp.MustCompile(`evento\s*1`)
	slot2Pattern = regexp.MustCompile(`evento\s*2`)

	// First standalone 1-2 digit run, e.g. "01" in "sexta-feira, agosto 01, 2025"
	dayPattern = regexp.MustCompile(`\b(\d{1,2})\b`)
)

// ParseMonthlyTable returns the days of the first table, in document order, that
// mentions both event slots and yields at least one day. It returns an empty slice
// when no table qualifies.
func ParseMonthlyTable(doc *goquery.Document) []schedule.DailyEvent {
	var days []schedule.DailyEvent

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		text := strings.ToLower(table.Text())
		if !slot1Pattern.MatchString(text) || !slot2Pattern.MatchString(text) {
			return true
		}

		days = parseTableCells(table.Find("td"))
		return len(days) == 0
	})

	if days == nil {
		return []schedule.DailyEvent{}
	}
	return days
}

// parseTableCells reads cells as (date, event 1, event 2) triples. A trailing
// partial triple is ignored.
func parseTableCells(cells *goquery.Selection) []schedule.DailyEvent {
	days := make([]schedule.DailyEvent, 0)
	seen := make(map[int]bool)

	for i := 0; i+2 < cells.Length(); i += 3 {
		dayText := strings.TrimSpace(cells.Eq(i).Text())
		event1Text := strings.TrimSpace(cells.Eq(i + 1).Text())
		event2Text := strings.TrimSpace(cells.Eq(i + 2).Text())

		if isHeaderRow(dayText, event1Text) {
			continue
		}

		match := dayPattern.FindStringSubmatch(dayText)
		if match == nil {
			continue
		}
		day, err := strconv.Atoi(match[1])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		// a repeated day keeps its first row
		if seen[day] {
			continue
		}
		seen[day] = true

		days = append(days, schedule.DailyEvent{
			Day:    day,
			Event1: slotValue(event1Text),
			Event2: slotValue(event2Text),
		})
	}

	return days
}

// isHeaderRow matches the "Data | Evento 1 | Evento 2" header by text only
func isHeaderRow(dayText, event1Text string) bool {
	return strings.ToLower(dayText) == "data" ||
		strings.Contains(strings.ToLower(event1Text), "evento 1")
}

func slotValue(text string) string {
	if text == noEventPlaceholder {
		return ""
	}
	return text
}
