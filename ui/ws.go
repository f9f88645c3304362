package ui

import(
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skypies/geo"

	"github.com/skypies/livetrack/units"
	"github.com/skypies/livetrack/urlstate"
)

const(
	writeWait   = 10 * time.Second
	sendBacklog = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// {{{ Message{}

// Message is what a viewer sends. Type picks which other fields matter:
//
//   click       id, lat, lng
//   close
//   names       show
//   units       altitude, speed
//   param       op (add|set|delete|deleteValue), name, value
//   checkpoint
type Message struct {
	Type     string  `json:"type"`
	ID       string  `json:"id,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	Show     bool    `json:"show,omitempty"`
	Altitude string  `json:"altitude,omitempty"`
	Speed    string  `json:"speed,omitempty"`
	Op       string  `json:"op,omitempty"`
	Name     string  `json:"name,omitempty"`
	Value    string  `json:"value,omitempty"`
}

// }}}
// {{{ client{}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client)writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			for range c.send {}
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

// }}}
// {{{ s.wsHandler

// Each open websocket is a viewer; the overlay polls while there is one.
func (s *Server)wsHandler(w http.ResponseWriter, r *http.Request) {
	conn,err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warnf("ui: upgrade: %v", err)
		return
	}

	c := &client{conn:conn, send:make(chan []byte, sendBacklog)}
	go c.writeLoop()

	leave := s.Presence.Join()
	s.Logger.Infof("ui: viewer joined from %s, %d watching", r.RemoteAddr, s.Presence.Viewers())

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.sendFrame(c)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		close(c.send)
		s.mu.Unlock()
		leave()
		s.Logger.Infof("ui: viewer left, %d watching", s.Presence.Viewers())
	}()

	for {
		_,data,err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Warnf("ui: read: %v", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Logger.Warnf("ui: bad message %.80q: %v", data, err)
			continue
		}
		s.Handle(msg)
	}
}

// }}}
// {{{ s.Handle

// Handle applies one viewer message to the shared session.
func (s *Server)Handle(msg Message) {
	switch msg.Type {
	case "click":
		f,ok := s.Overlay.Feature(msg.ID)
		if !ok {
			s.Logger.Debugf("ui: click on unknown feature %q", msg.ID)
			return
		}
		s.Overlay.Click(f, geo.Latlong{Lat:msg.Lat, Long:msg.Lng})

	case "close":
		s.Overlay.ClosePopup()

	case "names":
		s.Overlay.SetDisplayNames(msg.Show)

	case "units":
		s.Prefs.SetUnits(units.System{Altitude:msg.Altitude, Speed:msg.Speed})
		s.urlMu.Lock()
		s.URL.Set(urlstate.Speed, s.Prefs.Get().Units.Speed)
		s.urlMu.Unlock()
		s.Broadcast()

	case "param":
		s.urlMu.Lock()
		switch msg.Op {
		case "add":         s.URL.Add(msg.Name, msg.Value)
		case "set":         s.URL.Set(msg.Name, msg.Value)
		case "delete":      s.URL.Delete(msg.Name)
		case "deleteValue": s.URL.DeleteValue(msg.Name, msg.Value)
		default:            s.Logger.Warnf("ui: unknown param op %q", msg.Op)
		}
		s.urlMu.Unlock()
		s.Broadcast()

	case "checkpoint":
		s.urlMu.Lock()
		s.URL.Checkpoint()
		s.urlMu.Unlock()

	default:
		s.Logger.Warnf("ui: unknown message type %q", msg.Type)
	}
}

// }}}
// {{{ s.Broadcast, s.sendFrame

// Broadcast pushes the current frame to every viewer. Viewers that fall too
// far behind miss frames; the next one brings them up to date.
func (s *Server)Broadcast() {
	data,err := json.Marshal(s.Frame())
	if err != nil {
		s.Logger.Errorf("ui: frame: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.Logger.Debugf("ui: viewer backlogged, dropping a frame")
		}
	}
}

func (s *Server)sendFrame(c *client) {
	data,err := json.Marshal(s.Frame())
	if err != nil {
		s.Logger.Errorf("ui: frame: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _,ok := s.clients[c]; !ok { return }
	select {
	case c.send <- data:
	default:
	}
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
