package model

// Role is the account role reported by the service
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// UnlimitedRole reports whether the role grants unlimited clicks on its own
func (r Role) UnlimitedRole() bool {
	return r == RoleAdmin || r == RoleSuperuser
}

// maxSafeInteger mirrors the largest integer a JSON number can carry exactly.
// The service reports "infinite" free clicks as a value at or above it.
const maxSafeInteger int64 = 1<<53 - 1

// Profile is the response of the profile endpoint
type Profile struct {
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	Role              Role    `json:"role"`
	FreeClicks        int64   `json:"freeClicks"`
	HasInfiniteClicks bool    `json:"hasInfiniteClicks"`
	PotEarned         float64 `json:"potEarned"`
	PaypalEmail       string  `json:"paypalEmail"`
	AdminBalance      float64 `json:"adminBalance"`
}

// Budget derives the local click budget from the profile
func (p Profile) Budget() ClickBudget {
	if p.FreeClicks >= maxSafeInteger {
		return ClickBudget{Unlimited: true}
	}
	remaining := p.FreeClicks
	if remaining < 0 {
		remaining = 0
	}
	return ClickBudget{Remaining: remaining}
}

// Identity returns the cached identity fields carried by the profile
func (p Profile) Identity() Identity {
	return Identity{
		Username:     p.Username,
		Email:        p.Email,
		Role:         p.Role,
		PaypalEmail:  p.PaypalEmail,
		AdminBalance: p.AdminBalance,
	}
}

// Identity holds the profile fields cached alongside the credential.
// Only Username, Email and Role are persisted.
type Identity struct {
	Username     string  `json:"username,omitempty"`
	Email        string  `json:"email,omitempty"`
	Role         Role    `json:"role,omitempty"`
	PaypalEmail  string  `json:"-"`
	AdminBalance float64 `json:"-"`
}

// ClickBudget is the number of free clicks a user has left.
// Unlimited budgets are granted by purchase; role-based grants are
// resolved separately so a budget can be finite while the role is not.
type ClickBudget struct {
	Remaining int64
	Unlimited bool
}
