// Package overlay is the root of the live-tracking map overlay. It ties the
// poller, the data layer, the style engine and the popup together.
//
// All state changes happen under one mutex, which stands in for a UI thread:
// snapshots are applied, features restyled and popups opened one at a time,
// and nothing outside sees a half-reconciled layer.
package overlay

import(
	"context"
	"strconv"
	"sync"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/skypies/geo"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/layer"
	"github.com/skypies/livetrack/log"
	"github.com/skypies/livetrack/poller"
	"github.com/skypies/livetrack/popup"
	"github.com/skypies/livetrack/style"
)

// DevicesPage lists the trackers known to the server.
const DevicesPage = "/devices.html"

// {{{ Overlay{}

type Overlay struct {
	Prefs      *lt.PrefsStore
	Visibility Visibility
	Poller     *poller.Poller
	Clock      func() time.Time
	Logger     *log.Logger
	OnRender   func() // after every visible change, outside the lock

	visMu    sync.Mutex // orders reading visibility with acting on it
	mu       sync.Mutex
	ctx      context.Context
	mounted  bool
	unsubs   []func()
	layer    layer.Layer
	features []lt.Feature // what the last snapshot put on the layer
	popup    *popup.Controller
	prefs    lt.DisplayPreferences
}

// Snapshot is a consistent view of the overlay, for rendering.
type Snapshot struct {
	Features  *geojson.FeatureCollection // nil when the layer can't render itself
	Popup     popup.State
	Selection string
	Prefs     lt.DisplayPreferences
}

// New builds an overlay fed by src. loc is the time zone for popup dates.
func New(src poller.Source, prefs *lt.PrefsStore, vis Visibility, loc *time.Location, lg *log.Logger) *Overlay {
	o := &Overlay{
		Prefs:      prefs,
		Visibility: vis,
		Clock:      time.Now,
		Logger:     lg,
		popup:      popup.NewController(loc),
		prefs:      prefs.Get(),
	}
	o.Poller = poller.New(src, o.apply, lg)
	return o
}

// }}}
// {{{ o.Mount, o.Unmount

// Mount subscribes to visibility and preference changes. Fetches started by
// the overlay live as long as ctx.
func (o *Overlay)Mount(ctx context.Context) {
	o.mu.Lock()
	if o.mounted {
		o.mu.Unlock()
		return
	}
	o.ctx = ctx
	o.mounted = true
	o.unsubs = append(o.unsubs,
		o.Visibility.Subscribe(o.visibilityChanged),
		o.Prefs.Subscribe(o.prefsChanged),
	)
	o.prefs = o.Prefs.Get()
	o.mu.Unlock()

	o.syncVisibility()
}

// Unmount stops polling and drops the subscriptions. Fetches already under
// way finish on their own and are then thrown away.
func (o *Overlay)Unmount() {
	o.visMu.Lock()
	o.mu.Lock()
	unsubs := o.unsubs
	o.unsubs = nil
	o.mounted = false
	o.mu.Unlock()
	o.Poller.Stop()
	o.visMu.Unlock()

	for _,unsub := range unsubs { unsub() }
	o.Logger.Debugf("overlay: unmounted")
}

// }}}
// {{{ o.Attach

// Attach hands the overlay the data layer of a (new) map. The popup is
// reset and polling follows the current visibility.
func (o *Overlay)Attach(l layer.Layer) {
	o.mu.Lock()
	o.layer = l
	o.features = nil
	o.popup.Close()
	o.restyleLocked()
	o.mu.Unlock()

	o.syncVisibility()
	o.rendered()
}

// }}}
// {{{ o.visibilityChanged, o.prefsChanged

// The delivered value may already be stale by the time we get here; the
// current one is read again under visMu.
func (o *Overlay)visibilityChanged(visible bool) {
	o.Logger.Infof("overlay: visible=%v", visible)
	o.syncVisibility()
}

// syncVisibility makes polling follow the current visibility, once mounted
// and attached.
func (o *Overlay)syncVisibility() {
	o.visMu.Lock()
	defer o.visMu.Unlock()

	o.mu.Lock()
	ctx, ready := o.ctx, o.mounted && o.layer != nil
	o.mu.Unlock()

	if !ready { return }
	o.Poller.SetVisible(ctx, o.Visibility.Visible())
}

func (o *Overlay)prefsChanged(p lt.DisplayPreferences) {
	o.mu.Lock()
	o.prefs = p
	o.restyleLocked()
	o.mu.Unlock()
	o.rendered()
}

// }}}
// {{{ o.apply

// apply puts a fresh snapshot on the layer, in place of the previous one.
func (o *Overlay)apply(fc *geojson.FeatureCollection) {
	o.mu.Lock()
	if !o.mounted || o.layer == nil {
		o.mu.Unlock()
		return
	}
	if err := lt.CheckTracks(featuresOf(fc)); err != nil {
		o.Logger.Warnf("overlay: snapshot: %v", err)
	}
	o.features = layer.Reconcile(o.layer, o.features, fc)
	o.mu.Unlock()
	o.rendered()
}

func featuresOf(fc *geojson.FeatureCollection) []lt.Feature {
	out := []lt.Feature{}
	if fc == nil { return out }
	for i,f := range fc.Features {
		if f == nil { continue }
		out = append(out, lt.NewGeoFeature(strconv.Itoa(i), f))
	}
	return out
}

// }}}
// {{{ o.SetDisplayNames

// SetDisplayNames updates the shared preferences; the overlay restyles
// through its subscription before this returns.
func (o *Overlay)SetDisplayNames(show bool) {
	o.Prefs.SetDisplayNames(show)
}

// }}}
// {{{ o.Click, o.ClosePopup

// Click opens the popup for f, a feature on the layer, anchored at the
// clicked position. It reports whether anything changed.
func (o *Overlay)Click(f lt.Feature, at geo.Latlong) bool {
	o.mu.Lock()
	changed := o.popup.Click(f, at, o.prefs)
	if changed { o.restyleLocked() }
	o.mu.Unlock()

	if changed { o.rendered() }
	return changed
}

func (o *Overlay)ClosePopup() bool {
	o.mu.Lock()
	changed := o.popup.Close()
	if changed { o.restyleLocked() }
	o.mu.Unlock()

	if changed { o.rendered() }
	return changed
}

// Feature finds a feature of the current snapshot by id.
func (o *Overlay)Feature(id string) (lt.Feature, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _,f := range o.features {
		if f.ID() == id { return f, true }
	}
	return nil, false
}

// }}}
// {{{ o.Snapshot

func (o *Overlay)Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		Popup:     o.popup.State(),
		Selection: o.popup.Selection(),
		Prefs:     o.prefs,
	}
	if r,ok := o.layer.(interface{ Render() *geojson.FeatureCollection }); ok {
		snap.Features = r.Render()
	}
	return snap
}

// }}}
// {{{ o.restyleLocked, o.rendered

// restyleLocked binds the current preferences and selection into a new style
// function; the layer re-evaluates every feature with it.
func (o *Overlay)restyleLocked() {
	if o.layer == nil { return }
	o.layer.SetStyle(style.Func(o.Clock, o.prefs, o.popup.Selection()))
}

func (o *Overlay)rendered() {
	if o.OnRender != nil { o.OnRender() }
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
