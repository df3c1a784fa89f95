package game

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/session"
)

// AckSpread is the range of Ack offsets
const AckSpread = 32

// Ack is a transient acknowledgement of a local click, for presentation only
type Ack struct {
	ID     uuid.UUID
	Offset int
}

// PendingAction is an optimistic click awaiting confirmation. It carries
// only its own deltas so concurrent actions roll back independently.
type PendingAction struct {
	ID          uuid.UUID
	ClicksDelta int64
	BudgetDelta int64
	// Epochs at apply time; a newer snapshot already accounts for the action
	StateEpoch   uint64
	ProfileEpoch uint64
}

// View is the read-only projection handed to the presentation layer
type View struct {
	State          model.GameState
	Budget         model.ClickBudget
	Unlimited      bool
	ConnectedUsers int
	Milestone      MilestoneStatus
	Ring           float64
	CanClick       bool
	Pending        int
	Error          string

	Session          session.State
	Username         string
	Role             model.Role
	PotEarned        float64
	PayoutConfigured bool
	AdminBalance     float64
}

// BudgetLabel renders the budget for display
func (v View) BudgetLabel() string {
	if v.Unlimited {
		return "∞"
	}
	return strconv.FormatInt(v.Budget.Remaining, 10)
}

// IsGuest reports whether the user is playing without an account
func (v View) IsGuest() bool {
	return v.Session == session.StateGuest
}
