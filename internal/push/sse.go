package push

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mcoot/clickpot/internal/model"
)

// SSEPath is where the service serves its event stream
const SSEPath = "/api/events"

// SSEDialer connects to the server-sent event stream
type SSEDialer struct {
	BaseURL string
	Tokens  TokenSource
	// Client defaults to one without a timeout, as streams stay open
	Client *http.Client
}

// Dial opens the event stream
func (d *SSEDialer) Dial(ctx context.Context) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(d.BaseURL, SSEPath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if d.Tokens != nil {
		if token := d.Tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client := d.Client
	if client == nil {
		client = &http.Client{}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return newSSESource(resp.Body), nil
}

type sseSource struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newSSESource(body io.ReadCloser) *sseSource {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseSource{body: body, scanner: scanner}
}

// Next reads lines until a blank line ends an event. Comment lines and
// events without a name are skipped.
func (s *sseSource) Next(ctx context.Context) (Event, error) {
	var name string
	var dataLines []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		switch {
		case line == "":
			if name != "" {
				return Event{Name: model.EventName(name), Data: sseData(dataLines)}, nil
			}
			name = ""
			dataLines = nil
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if err := s.scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return Event{}, ctx.Err()
		}
		return Event{}, fmt.Errorf("stream error: %w", err)
	}
	return Event{}, io.EOF
}

func (s *sseSource) Close() error {
	return s.body.Close()
}

// sseData joins multi-line data. A payload that is not JSON, such as a bare
// greeting, is carried as a JSON string.
func sseData(lines []string) json.RawMessage {
	data := strings.Join(lines, "\n")
	if json.Valid([]byte(data)) {
		return json.RawMessage(data)
	}
	quoted, _ := json.Marshal(data)
	return quoted
}
