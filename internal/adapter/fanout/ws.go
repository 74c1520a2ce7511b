package fanout

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ackFrame is the only inbound message the server understands.
type ackFrame struct {
	AckSeq uint64 `json:"ack_seq"`
}

// ServeWS upgrades the request and streams the player's events. Identity
// comes from the X-Player-ID header or the player_id query parameter. On
// connect, unacknowledged critical events are replayed before live traffic.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	playerID := r.Header.Get("X-Player-ID")
	if playerID == "" {
		playerID = r.URL.Query().Get("player_id")
	}
	if playerID == "" {
		http.Error(w, "missing player identity", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := newSession(h, playerID)
	h.register(s)
	for _, entry := range h.Pending(playerID, 0) {
		s.push(Envelope{
			Seq:        entry.Seq,
			ID:         entry.Event.ID,
			Type:       entry.Event.Type,
			OccurredAt: entry.Event.OccurredAt,
			Payload:    entry.Event.Payload,
		})
	}

	go writePump(h, s, conn)
	go readPump(h, s, conn)
}

func readPump(h *Hub, s *session, conn *websocket.Conn) {
	defer func() {
		h.unregister(s)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Debug().Err(err).Str("player", s.playerID).Msg("websocket read")
			}
			return
		}
		var ack ackFrame
		if err := json.Unmarshal(message, &ack); err == nil && ack.AckSeq > 0 {
			h.Ack(s.playerID, ack.AckSeq)
		}
	}
}

func writePump(h *Hub, s *session, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case _, ok := <-s.notify:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			for _, env := range s.drain() {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
