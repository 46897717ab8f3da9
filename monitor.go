package raop

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtcp"
)

// SessionStats is one session's point-in-time telemetry, the payload
// every connected Monitor client receives on each tick.
type SessionStats struct {
	SessionID      string  `json:"session_id"`
	State          string  `json:"state"`
	PacketsSent    uint32  `json:"packets_sent"`
	PacketsResent  uint32  `json:"packets_resent"`
	FractionLost   float64 `json:"fraction_lost"`
	RoundTripDelay float64 `json:"round_trip_ms,omitempty"`
}

// Monitor exposes a read-only websocket feed of live stats for every
// session in a ReceiverGroup. It is a supplementary control surface, not
// part of the AirTunes wire protocol itself: nothing here is read by a
// receiver. Internally it reuses pion/rtcp's ReceiverReport type to
// track the loss/jitter figures it reports, since that is already the
// standard shape for exactly this kind of per-stream reception quality
// summary.
type Monitor struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	counters map[string]*sessionCounters
}

type sessionCounters struct {
	sent, resent uint32
	lastReport   rtcp.ReceiverReport
}

// NewMonitor builds an empty Monitor. ServeHTTP upgrades incoming
// connections to websockets and streams SessionStats until the client
// disconnects.
func NewMonitor() *Monitor {
	return &Monitor{
		clients:  make(map[*websocket.Conn]struct{}),
		counters: make(map[string]*sessionCounters),
	}
}

// ServeHTTP implements http.Handler, upgrading the request to a
// websocket connection and registering it to receive Broadcast calls.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()

	// drain and discard anything the client sends; this is a
	// publish-only feed, but reading keeps the connection's close
	// frame handling alive per the gorilla/websocket contract.
	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// RecordSent increments the sent-packet counter for a session.
func (m *Monitor) RecordSent(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterFor(sessionID).sent++
}

// RecordResent increments the resend counter for a session.
func (m *Monitor) RecordResent(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterFor(sessionID).resent++
}

func (m *Monitor) counterFor(sessionID string) *sessionCounters {
	c, ok := m.counters[sessionID]
	if !ok {
		c = &sessionCounters{}
		m.counters[sessionID] = c
	}
	return c
}

// ReportReceiverReport feeds an RTCP receiver report recovered out of
// the protocol's own loss/jitter tracking into a session's counters, so
// FractionLost in the broadcast stats reflects a standards-shaped
// figure rather than an ad hoc one.
func (m *Monitor) ReportReceiverReport(sessionID string, rr rtcp.ReceiverReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterFor(sessionID).lastReport = rr
}

// Broadcast pushes current stats for every tracked session to all
// connected clients. Callers typically drive this from a ticker.
func (m *Monitor) Broadcast(state func(sessionID string) string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.counters {
		stats := SessionStats{
			SessionID:     id,
			State:         state(id),
			PacketsSent:   c.sent,
			PacketsResent: c.resent,
		}

		if len(c.lastReport.Reports) > 0 {
			rb := c.lastReport.Reports[0]
			stats.FractionLost = float64(rb.FractionLost) / 256.0
			stats.RoundTripDelay = float64(rb.Delay) / 65536.0 * 1000
		}

		data, err := json.Marshal(stats)
		if err != nil {
			continue
		}

		for conn := range m.clients {
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				delete(m.clients, conn)
			}
		}
	}
}
