// Package ws pushes live conversation feeds to connected dashboards. Each
// connection gets its own store subscription; two admin sessions therefore
// receive identical shared-inbox updates without coordinating.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/naveenhacks/KVISION/internal/cache"
	"github.com/naveenhacks/KVISION/internal/messaging"
	"github.com/naveenhacks/KVISION/internal/metrics"
	"github.com/naveenhacks/KVISION/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

type Hub struct {
	svc      *messaging.Service
	presence *cache.Client
	log      *zap.SugaredLogger

	mu    sync.RWMutex
	conns map[string]*client
	users map[string]int // open connections per user, drives presence
}

type client struct {
	conn *websocket.Conn
	send chan messaging.FeedUpdate
	quit chan struct{}
}

func NewHub(svc *messaging.Service, presence *cache.Client, log *zap.SugaredLogger) *Hub {
	return &Hub{svc: svc, presence: presence, log: log, conns: make(map[string]*client), users: make(map[string]int)}
}

// HandleConn serves one dashboard connection. The user id and role come from
// the auth middleware; the feed itself decides the effective identity.
func (h *Hub) HandleConn(conn *websocket.Conn, userID string, role models.Role) {
	cid := uuid.NewString()
	c := &client{
		conn: conn,
		send: make(chan messaging.FeedUpdate, sendBuffer),
		quit: make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[cid] = c
	h.users[userID]++
	first := h.users[userID] == 1
	h.mu.Unlock()
	metrics.FeedSubscribers.Inc()
	if h.presence != nil && first {
		_ = h.presence.SetPresence(context.Background(), userID, true)
	}
	h.log.Infow("feed connected", "user", userID, "conn", cid)

	ctx, cancelCtx := context.WithCancel(context.Background())
	unsubscribe, err := h.svc.Watch(ctx, userID, role, func(u messaging.FeedUpdate) {
		select {
		case c.send <- u:
		default:
			// Slow consumer: drop this update, the next one carries the
			// full projection anyway.
		}
	})
	if err != nil {
		h.log.Errorw("feed subscribe failed", "user", userID, "err", err)
		cancelCtx()
		h.drop(cid, userID)
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go h.writePump(c, done)

	// Read loop: the feed is one-way, but reading surfaces pongs and closes.
	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// The send channel stays open: a change-stream callback may still be in
	// flight after unsubscribe, and a send to a closed channel would panic.
	unsubscribe()
	cancelCtx()
	close(c.quit)
	<-done
	h.drop(cid, userID)
	h.log.Infow("feed disconnected", "user", userID, "conn", cid)
}

func (h *Hub) writePump(c *client, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(done)
	}()
	for {
		select {
		case <-c.quit:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
			return
		case update := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(cid, userID string) {
	h.mu.Lock()
	delete(h.conns, cid)
	h.users[userID]--
	last := h.users[userID] <= 0
	if last {
		delete(h.users, userID)
	}
	h.mu.Unlock()
	metrics.FeedSubscribers.Dec()
	if h.presence != nil && last {
		_ = h.presence.SetPresence(context.Background(), userID, false)
	}
}
