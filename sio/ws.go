package sio

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket returns a handler that upgrades the connection and then
// answers each text message, a JSON Request, with a JSON Response.
//
// The handler returns when the client goes away or the context is
// done.
func (s *Service) WebSocket(ctx context.Context) http.Handler {
	upgrader := websocket.Upgrader{}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.Logger.Warn("upgrade error", zap.Error(err))
			return
		}
		defer c.Close()

		remote := c.RemoteAddr().String()
		s.Logger.Info("websocket open", zap.String("remote", remote))

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-done:
			}
		}()

		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				s.Logger.Info("websocket closed", zap.String("remote", remote), zap.Error(err))
				return
			}
			if mt != websocket.TextMessage || len(message) == 0 {
				continue
			}

			js, _ := s.HandleJSON(ctx, message)
			if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
				s.Logger.Warn("websocket write", zap.String("remote", remote), zap.Error(err))
				return
			}
		}
	})
}
