// Package ui serves one shared overlay session over HTTP. Viewers get the
// styled features as JSON, and a websocket that pushes a new frame after
// every render and carries their clicks and settings back.
package ui

import(
	"encoding/json"
	"net/http"
	"sync"

	geojson "github.com/paulmach/go.geojson"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/log"
	"github.com/skypies/livetrack/overlay"
	"github.com/skypies/livetrack/popup"
	"github.com/skypies/livetrack/units"
	"github.com/skypies/livetrack/urlstate"
)

// {{{ Frame{}

// Frame is everything a viewer needs to draw the overlay.
type Frame struct {
	Features  *geojson.FeatureCollection `json:"features"`
	Popup     *popup.Open                `json:"popup"` // nil when closed
	Selection string                     `json:"selection"`
	Prefs     lt.DisplayPreferences      `json:"prefs"`
	Location  string                     `json:"location"`
	Devices   string                     `json:"devices"`
}

// }}}
// {{{ Server{}

type Server struct {
	Overlay  *overlay.Overlay
	Presence *overlay.Presence
	Prefs    *lt.PrefsStore
	URL      *urlstate.Store
	Logger   *log.Logger

	urlMu   sync.Mutex // Store reads then rewrites the address
	mu      sync.Mutex
	clients map[*client]struct{}
}

// New hooks the server onto the overlay's renders. The speed unit in the
// address, if any, wins over the configured one.
func New(o *overlay.Overlay, presence *overlay.Presence, prefs *lt.PrefsStore, url *urlstate.Store, lg *log.Logger) *Server {
	s := &Server{
		Overlay:  o,
		Presence: presence,
		Prefs:    prefs,
		URL:      url,
		Logger:   lg,
		clients:  map[*client]struct{}{},
	}

	if speeds := url.Values(urlstate.Speed); len(speeds) > 0 && units.IsSpeed(speeds[0]) {
		u := prefs.Get().Units
		u.Speed = speeds[0]
		prefs.SetUnits(u)
	}

	o.OnRender = s.Broadcast
	return s
}

// Handler routes the viewer endpoints.
func (s *Server)Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /overlay.json", s.overlayHandler)
	mux.HandleFunc("GET /ws", s.wsHandler)
	mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, overlay.DevicesPage, http.StatusFound)
	})
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK\n"))
	})
	return mux
}

// }}}
// {{{ s.Frame

func (s *Server)Frame() Frame {
	snap := s.Overlay.Snapshot()
	f := Frame{
		Features:  snap.Features,
		Selection: snap.Selection,
		Prefs:     snap.Prefs,
		Location:  s.location(),
		Devices:   overlay.DevicesPage,
	}
	if f.Features == nil {
		f.Features = geojson.NewFeatureCollection()
	}
	if open,ok := snap.Popup.(popup.Open); ok {
		f.Popup = &open
	}
	return f
}

func (s *Server)location() string {
	s.urlMu.Lock()
	defer s.urlMu.Unlock()
	return s.URL.Location()
}

// }}}
// {{{ s.overlayHandler

func (s *Server)overlayHandler(w http.ResponseWriter, r *http.Request) {
	jsonBytes,err := json.Marshal(s.Frame())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(jsonBytes)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
