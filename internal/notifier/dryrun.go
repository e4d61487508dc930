package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/igor-ruivo/metin2-events/internal/discord"
)

// DescriptionLimit is Discord's maximum embed description length, in characters
const DescriptionLimit = 4096

// DryRunNotifier prints what would be posted without actually sending
type DryRunNotifier struct {
	out   io.Writer
	count int
}

// NewDryRunNotifier creates a dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Send prints the message that would be posted
func (n *DryRunNotifier) Send(ctx context.Context, p discord.Payload) error {
	n.count++
	fmt.Fprintf(n.out, "--- Message %d ---\n", n.count)
	if p.Content != "" {
		fmt.Fprintln(n.out, p.Content)
	}

	for i, e := range p.Embeds {
		fmt.Fprintf(n.out, "[embed %d/%d] %s\n", i+1, len(p.Embeds), e.Title)
		fmt.Fprintln(n.out, e.Description)
		for _, f := range e.Fields {
			fmt.Fprintf(n.out, "> %s: %s\n", f.Name, f.Value)
		}
		if e.Footer != nil {
			fmt.Fprintf(n.out, "-- %s\n", e.Footer.Text)
		}

		length := utf8.RuneCountInString(e.Description)
		if length > DescriptionLimit {
			fmt.Fprintf(n.out, "\n(Length: %d characters, over the %d limit)\n\n", length, DescriptionLimit)
		} else {
			fmt.Fprintf(n.out, "\n(Length: %d characters)\n\n", length)
		}
	}
	return nil
}

// Sent returns how many messages were printed
func (n *DryRunNotifier) Sent() int {
	return n.count
}
