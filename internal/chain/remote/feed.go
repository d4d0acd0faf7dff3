package remote

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/igorvidic21/adar/internal/chain"
)

type reserveFeed struct {
	updates chan chain.QuotePayload
	cancel  context.CancelFunc
	once    sync.Once
}

func (f *reserveFeed) Updates() <-chan chain.QuotePayload { return f.updates }

// Cancel tears the feed down. Safe to call more than once.
func (f *reserveFeed) Cancel() { f.once.Do(f.cancel) }

// SubscribeReserves opens a websocket reserve stream for one asset pair. The
// reader reconnects with exponential backoff until the feed is canceled.
func (c *Client) SubscribeReserves(ctx context.Context, inputAddr, outputAddr string, sources []chain.LiquiditySource) (chain.ReserveFeed, error) {
	ctx, cancel := context.WithCancel(ctx)

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	q := url.Values{}
	q.Set("input", inputAddr)
	q.Set("output", outputAddr)
	if len(names) > 0 {
		q.Set("sources", strings.Join(names, ","))
	}
	wsURL := c.WSBase + "/v1/reserves?" + q.Encode()

	feed := &reserveFeed{
		updates: make(chan chain.QuotePayload, 16),
		cancel:  cancel,
	}
	go c.runFeed(ctx, wsURL, outputAddr, feed.updates)
	return feed, nil
}

func (c *Client) runFeed(ctx context.Context, wsURL, outputAddr string, out chan<- chain.QuotePayload) {
	defer close(out)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.consumeReserveStream(ctx, wsURL, out); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Str("asset", outputAddr).Msg("reserve feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return
	}
}

func (c *Client) consumeReserveStream(ctx context.Context, wsURL string, out chan<- chain.QuotePayload) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var payload chain.QuotePayload
		if err := json.Unmarshal(message, &payload); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode reserve payload")
			continue
		}
		if payload.UpdatedAt.IsZero() {
			payload.UpdatedAt = time.Now()
		}

		select {
		case out <- payload:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
