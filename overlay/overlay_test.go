package overlay

import(
	"context"
	"sync"
	"testing"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/skypies/geo"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/layer"
	"github.com/skypies/livetrack/poller"
	"github.com/skypies/livetrack/popup"
	"github.com/skypies/livetrack/style"
)

// go test -v github.com/skypies/livetrack/overlay

var now = time.Date(2024, 7, 14, 12, 0, 0, 0, time.UTC)

// {{{ fakes

type fakeTimer struct{ stopped bool }
func (t *fakeTimer)Stop() { t.stopped = true }

type fakeScheduler struct{ timers []*fakeTimer }
func (s *fakeScheduler)Every(d time.Duration, fn func()) poller.Timer {
	t := &fakeTimer{}
	s.timers = append(s.timers, t)
	return t
}

type fakeSource struct {
	mu    sync.Mutex
	fc    *geojson.FeatureCollection
	gate  chan struct{}
	calls int
}

func (s *fakeSource)Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	if s.gate != nil { <-s.gate }
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.fc, nil
}

func fix(name string, lat, lng float64, age time.Duration, last bool) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{lng, lat})
	f.Properties = map[string]interface{}{
		"name": name,
		"ts":   float64(now.Add(-age).UnixMilli()),
		"alt":  float64(1200),
	}
	if last {
		f.Properties["is_last_fix"] = true
		f.Properties["bearing"] = float64(90)
	}
	return f
}

func track(name string, age time.Duration) *geojson.Feature {
	f := geojson.NewLineStringFeature([][]float64{{6.0, 45.0}, {6.1, 45.1}})
	f.Properties = map[string]interface{}{
		"name":     name,
		"first_ts": float64(now.Add(-age).UnixMilli()),
	}
	return f
}

func snapshot() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.AddFeature(fix("Alice", 45.0, 6.0, 2*time.Hour, false))
	fc.AddFeature(fix("Alice", 45.1, 6.1, time.Hour, true))
	fc.AddFeature(track("Alice", 2*time.Hour))
	fc.AddFeature(fix("Bob", 45.5, 6.5, 30*time.Minute, true))
	fc.AddFeature(track("Bob", 30*time.Minute))
	return fc
}

type rig struct {
	o        *Overlay
	src      *fakeSource
	sched    *fakeScheduler
	presence *Presence
	mem      *layer.Memory
	renders  int
}

func newRig(t *testing.T) *rig {
	r := &rig{
		src:      &fakeSource{fc:snapshot()},
		sched:    &fakeScheduler{},
		presence: NewPresence(),
		mem:      layer.NewMemory(),
	}
	r.o = New(r.src, lt.NewPrefsStore(lt.DefaultPreferences), r.presence, time.UTC, nil)
	r.o.Poller.Scheduler = r.sched
	r.o.Clock = func() time.Time { return now }
	r.o.OnRender = func() { r.renders++ }
	return r
}

// mounted, attached, one viewer, first snapshot applied
func (r *rig)start(t *testing.T) (leave func()) {
	r.o.Mount(context.Background())
	r.o.Attach(r.mem)
	leave = r.presence.Join()
	r.o.Poller.Wait()
	if r.mem.Len() != 5 {
		t.Fatalf("expected the snapshot on the layer, got %d features", r.mem.Len())
	}
	return leave
}

// find returns the feature and its rendered style
func (r *rig)find(t *testing.T, name string, kind geojson.GeometryType, last bool) (lt.Feature, style.VisualStyle) {
	t.Helper()
	for _,f := range r.o.Snapshot().Features.Features {
		tf := lt.Decode(lt.NewGeoFeature("", f))
		if tf.Name != name || tf.Kind != kind || tf.IsLastFix != last { continue }
		feat,ok := r.o.Feature(f.ID.(string))
		if !ok { t.Fatalf("rendered feature %v not on the overlay", f.ID) }
		return feat, f.Properties["style"].(style.VisualStyle)
	}
	t.Fatalf("no %s feature for %q", kind, name)
	return nil, style.VisualStyle{}
}

// }}}

func TestVisibilityDrivesPolling(t *testing.T) {
	r := newRig(t)
	r.o.Mount(context.Background())
	r.o.Attach(r.mem)
	if r.o.Poller.Active() {
		t.Fatalf("nobody watching, yet polling")
	}

	leave := r.presence.Join()
	if !r.o.Poller.Active() {
		t.Fatalf("a viewer joined, yet not polling")
	}
	r.o.Poller.Wait()
	if r.src.calls != 1 || r.mem.Len() != 5 {
		t.Errorf("expected one immediate fetch, got %d calls and %d features", r.src.calls, r.mem.Len())
	}

	// A second viewer changes nothing
	leave2 := r.presence.Join()
	if len(r.sched.timers) != 1 {
		t.Errorf("expected a single timer, got %d", len(r.sched.timers))
	}
	leave2()
	if !r.o.Poller.Active() {
		t.Errorf("one viewer left, should still poll")
	}

	leave()
	if r.o.Poller.Active() || !r.sched.timers[0].stopped {
		t.Errorf("everybody left, should have stopped")
	}
}

func TestRefreshReplacesFeatures(t *testing.T) {
	r := newRig(t)
	leave := r.start(t)
	defer leave()

	before := r.mem.Features()
	r.o.Poller.Refresh(context.Background())
	after := r.mem.Features()
	if len(after) != len(before) {
		t.Fatalf("expected %d features after refresh, got %d", len(before), len(after))
	}
	for _,f := range after {
		for _,old := range before {
			if f.ID() == old.ID() { t.Errorf("old feature %s survived the refresh", f.ID()) }
		}
	}
}

func TestPopupSelectsTrack(t *testing.T) {
	r := newRig(t)
	leave := r.start(t)
	defer leave()

	alice,_ := r.find(t, "Alice", geojson.GeometryPoint, true)
	bob,_ := r.find(t, "Bob", geojson.GeometryPoint, true)

	if !r.o.Click(alice, geo.Latlong{Lat:45.1, Long:6.1}) {
		t.Fatalf("click on Alice changed nothing")
	}
	r.o.Click(bob, geo.Latlong{Lat:45.5, Long:6.5})

	snap := r.o.Snapshot()
	if open,ok := snap.Popup.(popup.Open); !ok || open.Name != "Bob" || snap.Selection != "Bob" {
		t.Fatalf("expected Bob's popup, got %#v", snap.Popup)
	}
	_,aliceTrack := r.find(t, "Alice", geojson.GeometryLineString, false)
	_,bobTrack := r.find(t, "Bob", geojson.GeometryLineString, false)
	if aliceTrack.StrokeWeight != 1 || bobTrack.StrokeWeight != 4 {
		t.Errorf("weights: Alice %v, Bob %v", aliceTrack.StrokeWeight, bobTrack.StrokeWeight)
	}

	rendersBefore := r.renders
	if !r.o.ClosePopup() {
		t.Fatalf("closing an open popup changed nothing")
	}
	if r.renders != rendersBefore+1 {
		t.Errorf("close should render once, rendered %d times", r.renders-rendersBefore)
	}
	_,bobTrack = r.find(t, "Bob", geojson.GeometryLineString, false)
	if bobTrack.StrokeWeight != 1 || r.o.Snapshot().Selection != "" {
		t.Errorf("closing should clear the highlight")
	}
	if r.o.ClosePopup() {
		t.Errorf("closing twice should be a no-op")
	}

	// Tracks are not clickable
	bobLine,_ := r.find(t, "Bob", geojson.GeometryLineString, false)
	if r.o.Click(bobLine, geo.Latlong{}) {
		t.Errorf("click on a track opened a popup")
	}
}

func TestDisplayNamesToggle(t *testing.T) {
	r := newRig(t)
	leave := r.start(t)
	defer leave()

	_,vs := r.find(t, "Alice", geojson.GeometryPoint, true)
	if vs.Label == nil || vs.Label.Text != "Alice · 1h00" {
		t.Fatalf("expected a label on the last fix, got %#v", vs.Label)
	}
	if _,first := r.find(t, "Alice", geojson.GeometryPoint, false); first.Label != nil {
		t.Errorf("earlier fixes carry no label")
	}

	rendersBefore := r.renders
	r.o.SetDisplayNames(false)
	if r.renders != rendersBefore+1 {
		t.Errorf("toggling names should render once, rendered %d times", r.renders-rendersBefore)
	}
	if _,vs = r.find(t, "Alice", geojson.GeometryPoint, true); vs.Label != nil {
		t.Errorf("names hidden, yet labelled: %#v", vs.Label)
	}

	r.o.SetDisplayNames(false)
	if r.renders != rendersBefore+1 {
		t.Errorf("setting the same value should not render")
	}
}

func TestUnmountDropsInflightFetch(t *testing.T) {
	r := newRig(t)
	r.src.gate = make(chan struct{})
	r.o.Mount(context.Background())
	r.o.Attach(r.mem)
	leave := r.presence.Join()

	r.o.Unmount()
	if r.o.Poller.Active() {
		t.Errorf("unmounted, yet polling")
	}
	close(r.src.gate)
	r.o.Poller.Wait()

	if r.src.calls != 1 {
		t.Errorf("the in-flight fetch should have completed")
	}
	if r.mem.Len() != 0 {
		t.Errorf("a snapshot landed after unmount: %d features", r.mem.Len())
	}

	// Subscriptions are gone too
	leave()
	r.presence.Join()
	if r.o.Poller.Active() {
		t.Errorf("visibility still drives an unmounted overlay")
	}
}

func TestAttachResetsPopup(t *testing.T) {
	r := newRig(t)
	leave := r.start(t)
	defer leave()

	alice,_ := r.find(t, "Alice", geojson.GeometryPoint, true)
	r.o.Click(alice, geo.Latlong{})

	r.o.Attach(layer.NewMemory())
	if _,ok := r.o.Snapshot().Popup.(popup.Closed); !ok {
		t.Errorf("a new layer should start without a popup")
	}
}

func TestPresence(t *testing.T) {
	p := NewPresence()
	changes := []bool{}
	unsub := p.Subscribe(func(v bool) { changes = append(changes, v) })

	a := p.Join()
	b := p.Join()
	a()
	a()
	b()
	unsub()
	p.Join()

	if len(changes) != 2 || changes[0] != true || changes[1] != false {
		t.Errorf("expected [true false], got %v", changes)
	}
	if !p.Visible() || p.Viewers() != 1 {
		t.Errorf("expected one viewer, got %d", p.Viewers())
	}
}

func TestPresenceDeliversInOrder(t *testing.T) {
	p := NewPresence()

	var mu sync.Mutex
	seen := []bool{}
	calls := 0
	entered := make(chan struct{})
	p.Subscribe(func(v bool) {
		mu.Lock()
		calls++
		slow := calls == 1
		mu.Unlock()
		if slow {
			close(entered)
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	// A page reload: the old viewer leaves while the new one is joining
	done := make(chan struct{})
	go func() {
		p.change(+1)
		close(done)
	}()
	<-entered
	p.change(-1)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != true || seen[1] != false {
		t.Errorf("expected [true false], got %v", seen)
	}
	if seen[len(seen)-1] != p.Visible() {
		t.Errorf("last delivered %v, actually %v", seen[len(seen)-1], p.Visible())
	}
}

func TestStaleVisibilityIgnored(t *testing.T) {
	r := newRig(t)
	r.o.Mount(context.Background())
	r.o.Attach(r.mem)

	r.o.visibilityChanged(true)
	if r.o.Poller.Active() {
		t.Errorf("nobody watching, yet a stale notification started polling")
	}

	leave := r.presence.Join()
	r.o.visibilityChanged(false)
	if !r.o.Poller.Active() {
		t.Errorf("a viewer is watching, yet a stale notification stopped polling")
	}

	leave()
	r.o.Poller.Wait()
	if r.o.Poller.Active() {
		t.Errorf("everybody left, still polling")
	}
}
