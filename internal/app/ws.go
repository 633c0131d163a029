package app

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/whereiam/internal/view"
)

const wsWriteTimeout = 5 * time.Second

// wsSink writes session messages to a websocket. Only the session's writer
// goroutine calls Send.
type wsSink struct {
	conn *websocket.Conn
}

func (s wsSink) Send(m view.Message) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(m)
}

// clientMessage is what the page sends back.
type clientMessage struct {
	Action string `json:"action"` // share
	URL    string `json:"url,omitempty"`
}

// handleWS mounts a view session for the lifetime of the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade error: %v", err)
		return
	}

	path := r.URL.Query().Get("path")
	sess := view.NewSession(s.tracker, path, wsSink{conn}, s.opts, s.logger.WithField("path", path))
	sess.Start()
	defer func() {
		// Closing the socket first fails any send still in flight.
		conn.Close()
		sess.Close()
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugf("websocket read: %v", err)
			}
			return
		}

		switch msg.Action {
		case "share":
			if msg.URL == "" {
				continue
			}
			sess.Share(msg.URL)
		default:
			s.logger.Debugf("unknown action %q", msg.Action)
		}
	}
}
