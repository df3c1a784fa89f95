package session

import (
	"github.com/mcoot/clickpot/internal/credential"
	"github.com/mcoot/clickpot/internal/model"
)

// State is the session state. Exactly one holds at a time.
type State int

const (
	StateAnonymous State = iota
	StateGuest
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Reason says why the session last changed
type Reason string

const (
	ReasonRestored       Reason = "restored"
	ReasonLogin          Reason = "login"
	ReasonCredentialSet  Reason = "credential_set"
	ReasonRenewed        Reason = "renewed"
	ReasonLogout         Reason = "logout"
	ReasonGuest          Reason = "guest"
	ReasonRenewalFailed  Reason = "renewal_failed"
	ReasonAccountDeleted Reason = "account_deleted"
)

// Snapshot is a read-only view of the session
type Snapshot struct {
	State      State
	Credential credential.Credential
	Identity   model.Identity
	Language   string
	Reason     Reason
}

// IsAuthenticated reports whether a credential is held
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// IsGuest reports whether the user chose to play without an account
func (s Snapshot) IsGuest() bool {
	return s.State == StateGuest
}
