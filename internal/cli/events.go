package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/clickpot/internal/push"
)

func newEventsCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream push events",
		Long: `Connect to the push channel and print events as they arrive.

Events include:
  - connected: The stream opened (SSE only)
  - gameStateUpdate: Full game state snapshot
  - winner: The pot was awarded
  - userCountUpdate: Number of connected players

The stream reconnects after drops. Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			apply := push.DispatchTo(app.Sync, logger)
			seen := 0
			handler := func(ctx context.Context, ev push.Event) {
				printEvent(ev, app.Clock.Now())
				apply(ctx, ev)
				seen++
				if count > 0 && seen >= count {
					cancel()
				}
			}

			return app.Stream.Run(ctx, handler)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

// EventLine is one push event as printed by the CLI
type EventLine struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func printEvent(ev push.Event, now time.Time) {
	if cfg.Output == "json" {
		data := ev.Data
		if !json.Valid(data) {
			data = json.RawMessage("null")
		}
		line, _ := json.Marshal(EventLine{Time: now, Event: string(ev.Name), Data: data})
		fmt.Fprintln(out.w, string(line))
		return
	}

	displayData := strings.ReplaceAll(string(ev.Data), "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	fmt.Fprintf(out.w, "[%s] %s: %s\n", now.Format("2006-01-02 15:04:05"), ev.Name, displayData)
}
