package testserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/push"
)

func (s *ServerSuite) dial(dialer push.Dialer) push.Source {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	s.T().Cleanup(cancel)
	src, err := dialer.Dial(ctx)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = src.Close() })
	return src
}

func (s *ServerSuite) next(src push.Source) push.Event {
	ev, err := src.Next(s.ctx)
	s.Require().NoError(err)
	return ev
}

func (s *ServerSuite) TestSSEPush() {
	src := s.dial(&push.SSEDialer{BaseURL: s.http.URL})

	s.Equal(model.EventConnected, s.next(src).Name)

	ev := s.next(src)
	s.Equal(model.EventUserCount, ev.Name)
	s.JSONEq(`1`, string(ev.Data))

	s.server.SetGlobalClicks(42)
	ev = s.next(src)
	s.Require().Equal(model.EventStateUpdate, ev.Name)
	var state model.GameState
	s.Require().NoError(json.Unmarshal(ev.Data, &state))
	s.Equal(int64(42), state.GlobalClicks)
}

func (s *ServerSuite) TestWebSocketPush() {
	src := s.dial(&push.WebSocketDialer{BaseURL: s.http.URL})

	ev := s.next(src)
	s.Equal(model.EventUserCount, ev.Name)
	s.JSONEq(`1`, string(ev.Data))

	s.server.SetGlobalClicks(7)
	ev = s.next(src)
	s.Require().Equal(model.EventStateUpdate, ev.Name)
	var state model.GameState
	s.Require().NoError(json.Unmarshal(ev.Data, &state))
	s.Equal(int64(7), state.GlobalClicks)
}

func (s *ServerSuite) TestWinnerEventPrecedesReset() {
	c, _ := s.registered("alice")
	src := s.dial(&push.WebSocketDialer{BaseURL: s.http.URL})
	s.Equal(model.EventUserCount, s.next(src).Name)

	s.server.SetGlobalClicks(99)
	s.Equal(model.EventStateUpdate, s.next(src).Name)

	_, err := c.Click(s.ctx)
	s.Require().NoError(err)

	ev := s.next(src)
	s.Require().Equal(model.EventWinner, ev.Name)
	var winner model.Winner
	s.Require().NoError(json.Unmarshal(ev.Data, &winner))
	s.Equal("alice", winner.Username)
	s.Equal(0.5, winner.Pot)

	ev = s.next(src)
	s.Equal(model.EventStateUpdate, ev.Name)
}

func (s *ServerSuite) TestUserCountTracksConnections() {
	first := s.dial(&push.WebSocketDialer{BaseURL: s.http.URL})
	s.JSONEq(`1`, string(s.next(first).Data))

	second := s.dial(&push.SSEDialer{BaseURL: s.http.URL})
	s.Equal(model.EventConnected, s.next(second).Name)

	ev := s.next(first)
	s.Equal(model.EventUserCount, ev.Name)
	s.JSONEq(`2`, string(ev.Data))

	s.Require().NoError(second.Close())
	ev = s.next(first)
	s.Equal(model.EventUserCount, ev.Name)
	s.JSONEq(`1`, string(ev.Data))
	s.Eventually(func() bool { return s.server.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func (s *ServerSuite) TestFormatSSEMessage() {
	s.Equal("event: winner\ndata: a\ndata: b\n\n", string(formatSSEMessage("winner", "a\nb")))
}
