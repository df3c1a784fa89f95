package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mcoot/clickpot/internal/game"
	"github.com/mcoot/clickpot/internal/session"
)

const playHelp = "Enter: click   c: collect   r: refresh   q: quit"

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively with live updates",
		Long: `Play in the terminal. The game state follows the push channel and the
session is renewed in the background.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			pushDone := make(chan error, 1)
			go func() { pushDone <- app.RunPush(ctx) }()
			defer func() {
				cancel()
				<-pushDone
			}()

			// Clicks run on their own so Enter never waits for a confirmation
			var clicks sync.WaitGroup
			defer clicks.Wait()

			var printMu sync.Mutex
			printf := func(format string, a ...any) {
				printMu.Lock()
				defer printMu.Unlock()
				fmt.Fprintf(out.w, format, a...)
			}

			app.Sync.OnChange(func(v game.View) {
				for _, w := range app.Sync.TakeAnnouncements() {
					printf("*** %s won the pot: %.2f ***\n", w.Username, w.Pot)
				}
			})
			app.Session.Subscribe(func(ctx context.Context, snap session.Snapshot) {
				if snap.Reason == session.ReasonRenewalFailed {
					printf("Your session expired, you have been signed out\n")
				}
			})

			// render shows the view, including any error, and then clears the error
			render := func() {
				printMu.Lock()
				out.Print(NewStatus(app.Sync.View()))
				printMu.Unlock()
				app.Sync.DismissError()
			}

			printf("%s\n", playHelp)
			render()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					switch strings.TrimSpace(line) {
					case "":
						clicks.Add(1)
						go func() {
							defer clicks.Done()
							ack, err := app.Sync.Click(ctx)
							if err != nil {
								printf("Click failed: %s\n", err)
							} else {
								printf("%s*\n", strings.Repeat(" ", ack.Offset))
							}
							render()
						}()
						continue
					case "c":
						txID, err := app.Sync.CollectWinnings(ctx)
						if err != nil {
							printf("Collect failed: %s\n", err)
						} else {
							printf("Paid out, transaction %s\n", txID)
						}
					case "r":
						if err := app.Sync.Resync(ctx); err != nil {
							printf("Refresh failed: %s\n", err)
						}
					case "q":
						return nil
					default:
						printf("%s\n", playHelp)
						continue
					}
					render()
				}
			}
		},
	}
}
