package factory

import (
	"net/http/httptest"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/dependencies/mocks"
	"github.com/mcoot/clickpot/internal/storage"
	"github.com/mcoot/clickpot/internal/storage/memory"
	"github.com/mcoot/clickpot/internal/testserver"
	"github.com/mcoot/clickpot/internal/testutil"
)

// TestApp extends App with a running test service and mocked dependencies
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *clockwork.FakeClock
	MockRandom *mocks.MockRandom

	// The service the app talks to
	Server *testserver.Server
	HTTP   *httptest.Server
}

// NewTestApp creates an App wired to a fresh test service, a fake clock and
// an in-memory cache
func NewTestApp(cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	server := testserver.New(testserver.DefaultConfig(), mockClock, testutil.NopLogger())

	t := &TestApp{
		MockClock:  mockClock,
		MockRandom: mocks.NewMockRandom(),
		Server:     server,
		HTTP:       httptest.NewServer(server.Handler()),
	}
	t.App = t.Reopen(memory.New(), cfg)
	return t
}

// Reopen wires another App against the same service and clock, as a
// restarted process sharing store would be
func (t *TestApp) Reopen(store storage.Store, cfg Config) *App {
	client, err := api.New(api.Config{BaseURL: t.HTTP.URL, Timeout: 5 * time.Second}, testutil.NopLogger())
	if err != nil {
		panic(err)
	}
	if cfg.Push.ReconnectDelay == 0 {
		cfg.Push.ReconnectDelay = time.Second
	}
	app, err := newWithDependencies(store, client, t.MockClock, t.MockRandom, cfg)
	if err != nil {
		panic(err)
	}
	return app
}

// Close tears down the app and the service
func (t *TestApp) Close() {
	_ = t.App.Close()
	t.Server.Close()
	t.HTTP.Close()
}
