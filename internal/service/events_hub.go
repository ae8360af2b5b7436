package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cybersafe_backend/internal/model"
	"cybersafe_backend/pkg/logger"
	"cybersafe_backend/pkg/monitoring"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 16
	presenceTTL    = 2 * time.Minute

	eventsChannel     = "cybersafe:events"
	presenceKeyPrefix = "cybersafe:online:"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventMessage is the wire format pushed to dashboard clients.
type EventMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	EventProgress = "PROGRESS"
	EventReset    = "RESET"
)

// EventClient is one dashboard connection, scoped to a progress key.
type EventClient struct {
	Hub     *EventsHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserKey string
	Limiter *rate.Limiter
}

func (c *EventClient) readPump() {
	defer func() {
		c.Hub.drop(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// Clients only listen; inbound frames keep the connection alive.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("websocket unexpected close", zap.Error(err), zap.String("userKey", c.UserKey))
			}
			break
		}
		if !c.Limiter.Allow() {
			continue
		}
	}
}

func (c *EventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type eventShard struct {
	clients map[*EventClient]struct{}
	mu      sync.RWMutex
}

// EventsHub fans committed progress documents out to connected dashboards.
// Multiple connections per user key are allowed (several open tabs), so
// shards hold client sets keyed by the connection itself. Publishing goes
// through Redis so every instance sees every commit.
type EventsHub struct {
	shards     [shardCount]*eventShard
	register   chan *EventClient
	unregister chan *EventClient
	Redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventsHub(rdb *redis.Client) *EventsHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &EventsHub{
		register:   make(chan *EventClient),
		unregister: make(chan *EventClient),
		Redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &eventShard{clients: make(map[*EventClient]struct{})}
	}
	return h
}

// drop hands a finished connection back to the run loop. Once the hub has
// stopped nobody receives on unregister, so the send must not block a
// lingering connection goroutine forever.
func (h *EventsHub) drop(c *EventClient) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *EventsHub) shardFor(userKey string) *eventShard {
	f := fnv.New32a()
	f.Write([]byte(userKey))
	return h.shards[f.Sum32()%shardCount]
}

type eventEnvelope struct {
	UserKey string          `json:"userKey"`
	Payload json.RawMessage `json:"payload"`
}

func (h *EventsHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, eventsChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var env eventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Log.Error("events envelope unmarshal error", zap.Error(err))
				continue
			}
			h.deliverLocal(env.UserKey, env.Payload)
		}
	}()

	heartbeat := time.NewTicker(time.Minute)
	defer heartbeat.Stop()

	for {
		select {
		case client := <-h.register:
			s := h.shardFor(client.UserKey)
			s.mu.Lock()
			s.clients[client] = struct{}{}
			s.mu.Unlock()
			h.Redis.Set(h.ctx, presenceKeyPrefix+client.UserKey, "1", presenceTTL)
			monitoring.EventsOnlineClients.Inc()

		case client := <-h.unregister:
			s := h.shardFor(client.UserKey)
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.Send)
				monitoring.EventsOnlineClients.Dec()
			}
			s.mu.Unlock()
			h.Redis.Del(h.ctx, presenceKeyPrefix+client.UserKey)

		case <-heartbeat.C:
			h.refreshPresence()

		case <-h.ctx.Done():
			pubsub.Close()
			return
		}
	}
}

func (h *EventsHub) refreshPresence() {
	pipe := h.Redis.Pipeline()
	count := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for client := range s.clients {
			pipe.Expire(h.ctx, presenceKeyPrefix+client.UserKey, presenceTTL)
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		pipe.Exec(h.ctx)
	}
}

// BroadcastProgress publishes a committed document for a user key. Wired as
// a ProgressService subscriber at startup.
func (h *EventsHub) BroadcastProgress(userKey string, doc model.ProgressDocument) {
	h.publish(userKey, EventMessage{Type: EventProgress, Data: doc})
}

func (h *EventsHub) BroadcastReset(userKey string) {
	h.publish(userKey, EventMessage{Type: EventReset, Data: map[string]string{"userKey": userKey}})
}

func (h *EventsHub) publish(userKey string, msg EventMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	env, _ := json.Marshal(eventEnvelope{UserKey: userKey, Payload: payload})
	if err := h.Redis.Publish(h.ctx, eventsChannel, env).Err(); err != nil {
		// Redis down: still deliver to clients on this instance.
		h.deliverLocal(userKey, payload)
	}
	monitoring.EventsMessageCounter.WithLabelValues(msg.Type, "out").Inc()
}

func (h *EventsHub) deliverLocal(userKey string, payload []byte) {
	s := h.shardFor(userKey)
	s.mu.RLock()
	for client := range s.clients {
		if client.UserKey != userKey {
			continue
		}
		select {
		case client.Send <- payload:
		default:
		}
	}
	s.mu.RUnlock()
}

// IsOnline reports whether any instance has a live connection for the key.
func (h *EventsHub) IsOnline(userKey string) bool {
	s := h.shardFor(userKey)
	s.mu.RLock()
	for client := range s.clients {
		if client.UserKey == userKey {
			s.mu.RUnlock()
			return true
		}
	}
	s.mu.RUnlock()

	val, err := h.Redis.Get(h.ctx, presenceKeyPrefix+userKey).Result()
	return err == nil && val == "1"
}

// Stop closes every connection and clears presence keys.
func (h *EventsHub) Stop() {
	logger.Log.Info("events hub stopping")

	var keys []string
	closed := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for client := range s.clients {
			keys = append(keys, presenceKeyPrefix+client.UserKey)
			close(client.Send)
			delete(s.clients, client)
			closed++
		}
		s.mu.Unlock()
	}

	if len(keys) > 0 {
		pipe := h.Redis.Pipeline()
		for _, k := range keys {
			pipe.Del(h.ctx, k)
		}
		pipe.Exec(h.ctx)
	}
	h.cancel()

	monitoring.EventsOnlineClients.Set(0)
	logger.Log.Info("events hub stopped", zap.Int("closedConnections", closed))
}

// ServeWs upgrades an HTTP request into an events connection for userKey.
func ServeWs(hub *EventsHub, w http.ResponseWriter, r *http.Request, userKey string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("websocket upgrade failed", zap.Error(err), zap.String("userKey", userKey))
		return
	}
	client := &EventClient{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		UserKey: userKey,
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	select {
	case client.Hub.register <- client:
	case <-hub.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
