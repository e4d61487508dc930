package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/igor-ruivo/metin2-events/internal/discord"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	Period      schedule.Period           `json:"period"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Available   bool                      `json:"available"`
	Message     string                    `json:"message,omitempty"`
	Schedule    *schedule.MonthlySchedule `json:"schedule,omitempty"`
	Embeds      []discord.Embed           `json:"embeds,omitempty"`
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText prints the embeds roughly the way Discord lays them out
func writeText(w io.Writer, result *OutputResult) error {
	if !result.Available {
		fmt.Fprintln(w, result.Message)
		return nil
	}

	for i, e := range result.Embeds {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, e.Title)
		fmt.Fprintln(w)
		fmt.Fprintln(w, e.Description)
		for _, f := range e.Fields {
			fmt.Fprintf(w, "\n%s\n%s\n", f.Name, f.Value)
		}
		if e.Footer != nil {
			fmt.Fprintf(w, "\n%s\n", e.Footer.Text)
		}
	}
	return nil
}
