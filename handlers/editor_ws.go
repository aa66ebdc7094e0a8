package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"flyingbus/editor"
	"flyingbus/logger"
	"flyingbus/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamSession pushes save-status and submission events of one session to
// a websocket until either side closes.
func (h *EditorHandler) StreamSession(c *gin.Context) {
	sess, err := h.editorService.Get(c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Default().WithSession(sess.ID()).WithError(err).Warn("websocket upgrade failed")
		return
	}

	send := make(chan editor.Event, wsSendBuffer)
	done := make(chan struct{})

	unsubscribe := sess.Subscribe(func(ev editor.Event) {
		select {
		case <-done:
		case send <- ev:
		default:
			// Slow reader; the next event carries the full state anyway.
		}
	})
	defer unsubscribe()

	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	writeSessionFeed(conn, sess.View(), send, done)
	conn.Close()
}

func writeSessionFeed(conn *websocket.Conn, initial interface{}, send <-chan editor.Event, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	write := func(v interface{}) bool {
		msg, err := json.Marshal(v)
		if err != nil {
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(websocket.TextMessage, msg) == nil
	}

	if !write(map[string]interface{}{"type": "snapshot", "session": initial}) {
		return
	}

	for {
		select {
		case ev := <-send:
			if !write(ev) {
				return
			}
			if ev.Type == editor.EventClosed {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
