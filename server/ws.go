package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// HandleJobsWS streams fallback job updates to operators over WebSocket.
// Each connected client gets its own queue subscription; slow clients miss
// updates rather than stalling the queue (the subscriber channel drops when
// full).
func (s *Server) HandleJobsWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	updates := s.queue.Subscribe()

	s.logger.Infow("Job feed client connected", "remote", r.RemoteAddr)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.queue.Unsubscribe(updates)
			conn.Close()
			s.logger.Infow("Job feed client disconnected", "remote", r.RemoteAddr)
		}()

		// Drain reads so close frames and client pings are processed
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case job, ok := <-updates:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(job); err != nil {
					return
				}
			}
		}
	}()
}
