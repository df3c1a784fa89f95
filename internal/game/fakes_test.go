package game

import (
	"context"
	"errors"
	"sync"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/credential"
	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/session"
)

// fakeSession is a session whose state the test sets directly
type fakeSession struct {
	mu       sync.Mutex
	state    session.State
	expired  bool
	identity model.Identity
	applied  []model.Profile
}

func (f *fakeSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Snapshot{State: f.state, Identity: f.identity, Credential: credential.Credential{}}
}

func (f *fakeSession) CanAct() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == session.StateAuthenticated && !f.expired
}

func (f *fakeSession) ApplyProfile(ctx context.Context, profile model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != session.StateAuthenticated {
		return nil
	}
	f.identity = profile.Identity()
	f.applied = append(f.applied, profile)
	return nil
}

func (f *fakeSession) set(state session.State, role model.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.identity = model.Identity{Username: "alice", Role: role}
}

// gatedCall lets a test hold a call until it releases it
type gatedCall struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gatedCall {
	return &gatedCall{started: make(chan struct{}, 1), release: make(chan struct{})}
}

// fakeAPI is a scripted GameAPI. Queued results are consumed in order; an
// empty queue means success with the default value.
type fakeAPI struct {
	mu sync.Mutex

	state    model.GameState
	stateErr error

	clickErrs  []error
	clickGates []*gatedCall
	clicks     int

	profiles     []*model.Profile
	profileErrs  []error
	profileGates []*gatedCall
	profile      model.Profile
	profileCalls int

	collectErr   error
	collectCalls int
	adminErr     error
	paymentErr   error
	paypal       string
}

func (f *fakeAPI) GameState(ctx context.Context) (*model.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	st := f.state
	return &st, nil
}

func (f *fakeAPI) Click(ctx context.Context) (*api.ClickResponse, error) {
	f.mu.Lock()
	f.clicks++
	var gate *gatedCall
	if len(f.clickGates) > 0 {
		gate = f.clickGates[0]
		f.clickGates = f.clickGates[1:]
	}
	var err error
	if len(f.clickErrs) > 0 {
		err = f.clickErrs[0]
		f.clickErrs = f.clickErrs[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		gate.started <- struct{}{}
		<-gate.release
	}
	if err != nil {
		return nil, err
	}
	return &api.ClickResponse{}, nil
}

func (f *fakeAPI) Profile(ctx context.Context) (*model.Profile, error) {
	f.mu.Lock()
	f.profileCalls++
	var gate *gatedCall
	if len(f.profileGates) > 0 {
		gate = f.profileGates[0]
		f.profileGates = f.profileGates[1:]
	}
	var err error
	if len(f.profileErrs) > 0 {
		err = f.profileErrs[0]
		f.profileErrs = f.profileErrs[1:]
	}
	p := f.profile
	if len(f.profiles) > 0 {
		p = *f.profiles[0]
		f.profiles = f.profiles[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		gate.started <- struct{}{}
		<-gate.release
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (f *fakeAPI) Collect(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collectCalls++
	if f.collectErr != nil {
		return "", f.collectErr
	}
	return "tx-1", nil
}

func (f *fakeAPI) AdminCollect(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return "", f.adminErr
	}
	return "tx-admin", nil
}

func (f *fakeAPI) SetPaymentMethod(ctx context.Context, paypalEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paymentErr != nil {
		return f.paymentErr
	}
	f.paypal = paypalEmail
	return nil
}

func (f *fakeAPI) setProfile(p model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
}

var errRejected = &api.StatusError{Status: 400, Message: "click rejected by server"}

var errNetwork = errors.New("connection reset")
