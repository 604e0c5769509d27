package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

// Client is one participant's socket.
type Client struct {
	roomID        string
	participantID string
	conn          *websocket.Conn
	send          chan []byte
	seen          *expirable.LRU[string, struct{}]
	log           zerolog.Logger
}

func newClient(roomID, participantID string, conn *websocket.Conn, buffer, dedupeSize int, dedupeTTL time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		roomID:        roomID,
		participantID: participantID,
		conn:          conn,
		send:          make(chan []byte, buffer),
		seen:          expirable.NewLRU[string, struct{}](dedupeSize, nil, dedupeTTL),
		log:           logger.With().Str("room_id", roomID).Str("participant_id", participantID).Logger(),
	}
}

// enqueue never blocks; it reports false when the buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// firstSeen records an action ID and reports whether it is new. Empty IDs are always new.
func (c *Client) firstSeen(actionID string) bool {
	if actionID == "" {
		return true
	}
	if c.seen.Contains(actionID) {
		return false
	}
	c.seen.Add(actionID, struct{}{})
	return true
}

func (c *Client) writePump(ctx context.Context, pingInterval time.Duration) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.log.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}
