package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/clickpot/internal/game"
	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/session"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Status:
		o.printStatus(v)
	case Account:
		o.printAccount(v)
	case ClickResult:
		o.printClickResult(v)
	case Winners:
		o.printWinners(v)
	case PayoutResult:
		o.printPayoutResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Status is the game view as printed by the CLI
type Status struct {
	Session        string  `json:"session"`
	Username       string  `json:"username,omitempty"`
	GlobalClicks   int64   `json:"global_clicks"`
	Pot            float64 `json:"pot"`
	LastWinner     *string `json:"last_winner"`
	LastClickUser  *string `json:"last_click_user"`
	Budget         string  `json:"budget"`
	CanClick       bool    `json:"can_click"`
	NextMilestone  *int64  `json:"next_milestone"`
	Reward         string  `json:"reward,omitempty"`
	Progress       int     `json:"progress"`
	Ring           float64 `json:"ring"`
	ConnectedUsers int     `json:"connected_users,omitempty"`
	PotEarned      float64 `json:"pot_earned,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// NewStatus builds the printable status from a view
func NewStatus(v game.View) Status {
	s := Status{
		Session:        v.Session.String(),
		Username:       v.Username,
		GlobalClicks:   v.State.GlobalClicks,
		Pot:            v.State.Pot,
		LastWinner:     v.State.LastWinner,
		LastClickUser:  v.State.LastClickUser,
		Budget:         v.BudgetLabel(),
		CanClick:       v.CanClick,
		Progress:       v.Milestone.Percent,
		Ring:           v.Ring,
		ConnectedUsers: v.ConnectedUsers,
		PotEarned:      v.PotEarned,
		Error:          v.Error,
	}
	if v.Milestone.HasNext {
		at := v.Milestone.Next.At
		s.NextMilestone = &at
		s.Reward = v.Milestone.Next.Reward
	}
	return s
}

// Account is the signed-in identity as printed by the CLI
type Account struct {
	Session   string     `json:"session"`
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      model.Role `json:"role,omitempty"`
	Language  string     `json:"language,omitempty"`
	Budget    string     `json:"budget,omitempty"`
	PotEarned float64    `json:"pot_earned,omitempty"`
	Paypal    string     `json:"paypal,omitempty"`
}

// NewAccount combines the session snapshot with the profile-derived view
func NewAccount(snap session.Snapshot, v game.View) Account {
	a := Account{
		Session:  snap.State.String(),
		Username: snap.Identity.Username,
		Email:    snap.Identity.Email,
		Role:     snap.Identity.Role,
		Language: snap.Language,
		Paypal:   snap.Identity.PaypalEmail,
	}
	if snap.IsAuthenticated() {
		a.Budget = v.BudgetLabel()
		a.PotEarned = v.PotEarned
	}
	return a
}

// ClickResult summarizes a run of clicks
type ClickResult struct {
	Requested int    `json:"requested"`
	Confirmed int    `json:"confirmed"`
	Error     string `json:"error,omitempty"`
	Status    Status `json:"status"`
}

// Winners is the public winners list
type Winners struct {
	Winners []model.WinnerRecord `json:"winners"`
}

// PayoutResult is the outcome of a payout
type PayoutResult struct {
	TransactionID string `json:"transaction_id"`
}

func (o *Output) printStatus(s Status) {
	fmt.Fprintf(o.w, "Session: %s", s.Session)
	if s.Username != "" {
		fmt.Fprintf(o.w, " (%s)", s.Username)
	}
	fmt.Fprintln(o.w)
	fmt.Fprintf(o.w, "Global clicks: %d\n", s.GlobalClicks)
	fmt.Fprintf(o.w, "Pot: %.2f\n", s.Pot)
	if s.LastWinner != nil {
		fmt.Fprintf(o.w, "Last winner: %s\n", *s.LastWinner)
	}
	if s.Session == session.StateAuthenticated.String() {
		fmt.Fprintf(o.w, "Clicks left: %s\n", s.Budget)
	}
	if s.NextMilestone != nil {
		fmt.Fprintf(o.w, "Next milestone: %d (%s) %s %d%%\n", *s.NextMilestone, s.Reward, progressBar(s.Progress), s.Progress)
	} else {
		fmt.Fprintln(o.w, "All milestones reached")
	}
	if s.ConnectedUsers > 0 {
		fmt.Fprintf(o.w, "Players online: %d\n", s.ConnectedUsers)
	}
	if s.PotEarned > 0 {
		fmt.Fprintf(o.w, "Winnings to collect: %.2f\n", s.PotEarned)
	}
	if s.Error != "" {
		fmt.Fprintf(o.w, "Error: %s\n", s.Error)
	}
}

func (o *Output) printAccount(a Account) {
	if a.Username == "" {
		fmt.Fprintf(o.w, "Session: %s\n", a.Session)
		return
	}
	fmt.Fprintf(o.w, "User: %s <%s>\n", a.Username, a.Email)
	fmt.Fprintf(o.w, "Role: %s\n", a.Role)
	if a.Language != "" {
		fmt.Fprintf(o.w, "Language: %s\n", a.Language)
	}
	if a.Budget != "" {
		fmt.Fprintf(o.w, "Clicks left: %s\n", a.Budget)
	}
	if a.Paypal != "" {
		fmt.Fprintf(o.w, "Payout: %s\n", a.Paypal)
	}
}

func (o *Output) printClickResult(r ClickResult) {
	fmt.Fprintf(o.w, "Clicked %d of %d\n", r.Confirmed, r.Requested)
	if r.Error != "" {
		fmt.Fprintf(o.w, "Stopped: %s\n", r.Error)
	}
	o.printStatus(r.Status)
}

func (o *Output) printWinners(w Winners) {
	if len(w.Winners) == 0 {
		fmt.Fprintln(o.w, "No winners yet")
		return
	}
	for _, winner := range w.Winners {
		date := winner.Date
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(o.w, "%-20s %10.2f  %s\n", winner.Username, winner.Amount, date)
	}
}

func (o *Output) printPayoutResult(p PayoutResult) {
	fmt.Fprintf(o.w, "Paid out, transaction %s\n", p.TransactionID)
}

// progressBar renders percent as a 20-cell bar
func progressBar(percent int) string {
	filled := min(max(percent, 0), 100) / 5
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 20-filled) + "]"
}
