package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/pokestock/internal/model"
)

// Subscribe opens the server's change feed. The channel closes when ctx is
// cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan model.ChangeEvent, error) {
	req, err := c.newRequest(ctx, "GET", "/api/cards/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives the client's request timeout.
	stream := &http.Client{Transport: c.HTTP.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening change feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	out := make(chan model.ChangeEvent)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var data strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if data.Len() == 0 {
					continue
				}
				var ev model.ChangeEvent
				err := json.Unmarshal([]byte(data.String()), &ev)
				data.Reset()
				if err != nil {
					slog.Warn("dropping malformed change event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case strings.HasPrefix(line, "data:"):
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
	}()

	return out, nil
}
