package realtime

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/himilo-dev/homeman-api/internal/utils"
)

// WebSocketConn wraps websocket.Conn so hub.go does not import the
// websocket package.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// ServeWS handles one notification socket. The JWT rides in the token
// query parameter because browsers cannot set headers on websocket
// upgrades.
func ServeWS(hub *Hub, secret string) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		claims, err := utils.ParseJWT(secret, conn.Query("token"))
		if err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: userID,
			Conn:   NewWebSocketConn(conn),
			Send:   make(chan []byte, 64),
		}
		hub.RegisterClient(client)
		defer hub.UnregisterClient(client)

		// Unregistering closes Send, which stops this pump.
		go func() {
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					zap.L().Debug("ws: write failed", zap.Error(err))
					return
				}
			}
		}()

		// The socket is push-only; the read loop just detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
