package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is what front ends may send
type clientMessage struct {
	Type string `json:"type"`
}

// Handler upgrades connections and pumps hub events to them
type Handler struct {
	hub     *Hub
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, logger: logger, metrics: metrics}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe()
	h.metrics.IncWSConnections()
	logger := h.logger.With(zap.String("subscriber", sub.ID))
	logger.Debug("stream connected")

	replies := make(chan Event, 4)
	done := make(chan struct{})
	go h.writePump(conn, sub, replies, done, logger)

	replies <- Event{Type: EventSystem, Message: "connected"}
	h.readPump(conn, replies, logger)

	close(done)
	h.hub.Unsubscribe(sub)
	h.metrics.DecWSConnections()
	logger.Debug("stream disconnected")
}

func (h *Handler) readPump(conn *websocket.Conn, replies chan<- Event, logger *zap.Logger) {
	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("stream read error", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		reply := Event{Type: EventPong}
		if err := sonic.Unmarshal(data, &msg); err != nil || msg.Type != "ping" {
			reply = Event{Type: EventError, Message: "unknown message type"}
		}
		select {
		case replies <- reply:
		default:
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sub *Subscriber, replies <-chan Event, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(payload []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Debug("stream write failed", zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case payload, ok := <-sub.Events():
			if !ok || !write(payload) {
				return
			}
		case ev := <-replies:
			ev.Timestamp = time.Now().Unix()
			payload, err := sonic.Marshal(ev)
			if err != nil || !write(payload) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
