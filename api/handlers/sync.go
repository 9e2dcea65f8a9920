package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
)

// Events pushed to a user's other devices
const (
	EventDoseRecorded        = "dose_recorded"
	EventDoseUpdated         = "dose_updated"
	EventMedicationCreated   = "medication_created"
	EventMedicationUpdated   = "medication_updated"
	EventMedicationDeleted   = "medication_deleted"
	EventMedicationRefilled  = "medication_refilled"
	EventPrescriptionCreated = "prescription_created"
	EventPrescriptionDeleted = "prescription_deleted"
)

const syncWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the mobile app does not send an Origin header; callers are
	// authenticated by Middleware before the upgrade
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Publisher delivers change events to the owner's connected devices
type Publisher interface {
	Publish(userID, event string, data interface{})
}

// SyncMessage is the frame written to sync connections
type SyncMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type syncClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *syncClient) write(msg SyncMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(syncWriteTimeout))
	return c.conn.WriteJSON(msg)
}

// SyncHub keeps every open sync connection per user. A user may be
// connected from several devices at once.
type SyncHub struct {
	clients map[string]map[*syncClient]struct{}
	mutex   sync.Mutex
}

// NewSyncHub returns an empty hub
func NewSyncHub() *SyncHub {
	return &SyncHub{clients: make(map[string]map[*syncClient]struct{})}
}

// ServeWS upgrades the request and registers the connection for the
// authenticated caller until the client goes away
func (h *SyncHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "userId", userID, "error", err)
		return
	}

	client := &syncClient{conn: conn}
	h.add(userID, client)
	zap.S().Debugw("sync client connected", "userId", userID)

	// reads only serve to notice the client going away
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.remove(userID, client)
	conn.Close()
	zap.S().Debugw("sync client disconnected", "userId", userID)
}

// Publish sends an event to all of userID's connections. Connections that
// fail the write are dropped.
func (h *SyncHub) Publish(userID, event string, data interface{}) {
	h.mutex.Lock()
	targets := make([]*syncClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mutex.Unlock()

	msg := SyncMessage{Event: event, Data: data}
	for _, c := range targets {
		if err := c.write(msg); err != nil {
			zap.S().Warnw("dropping sync connection", "userId", userID, "event", event, "error", err)
			h.remove(userID, c)
			c.conn.Close()
		}
	}
}

// Connections returns how many devices userID has connected
func (h *SyncHub) Connections(userID string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients[userID])
}

// Close disconnects every client
func (h *SyncHub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
		delete(h.clients, userID)
	}
}

func (h *SyncHub) add(userID string, c *syncClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*syncClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *SyncHub) remove(userID string, c *syncClient) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set := h.clients[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func publish(p Publisher, userID, event string, data interface{}) {
	if p == nil {
		return
	}
	p.Publish(userID, event, data)
}
