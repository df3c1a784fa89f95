// Package push consumes the service's push channel.
//
// Two transports carry the same events: a server-sent event stream and a
// WebSocket of JSON envelopes. Stream keeps one of them connected and
// redials after a delay when it drops. Events missed while disconnected are
// not replayed.
package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcoot/clickpot/internal/model"
)

// Event is one push message with its undecoded payload
type Event struct {
	Name model.EventName `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Sink receives decoded push events
type Sink interface {
	ApplySnapshot(ctx context.Context, state model.GameState)
	ApplyWinner(ctx context.Context, winner model.Winner)
	ApplyUserCount(count int)
}

// Dispatch decodes ev and hands it to sink. Unknown and malformed events
// return an error and leave sink untouched.
func Dispatch(ctx context.Context, ev Event, sink Sink) error {
	switch ev.Name {
	case model.EventStateUpdate:
		var state model.GameState
		if err := json.Unmarshal(ev.Data, &state); err != nil {
			return fmt.Errorf("malformed %s event: %w", ev.Name, err)
		}
		sink.ApplySnapshot(ctx, state)
	case model.EventWinner:
		var winner model.Winner
		if err := json.Unmarshal(ev.Data, &winner); err != nil {
			return fmt.Errorf("malformed %s event: %w", ev.Name, err)
		}
		sink.ApplyWinner(ctx, winner)
	case model.EventUserCount:
		var count int
		if err := json.Unmarshal(ev.Data, &count); err != nil {
			return fmt.Errorf("malformed %s event: %w", ev.Name, err)
		}
		sink.ApplyUserCount(count)
	case model.EventConnected:
		// Stream greeting, nothing to apply
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownEvent, ev.Name)
	}
	return nil
}
