// Package layer is the map data layer the overlay draws into, and the
// reconciler that swaps one trackers snapshot for the next.
package layer

import(
	"fmt"
	"sync"

	geojson "github.com/paulmach/go.geojson"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/style"
)

type StyleFunc func(lt.Feature) style.VisualStyle

// Layer is the slice of a map widget's data layer that the overlay uses.
type Layer interface {
	// AddCollection adds every feature of fc and returns the added features.
	AddCollection(fc *geojson.FeatureCollection) []lt.Feature
	Remove(f lt.Feature)
	// SetStyle replaces the style function; it is evaluated lazily, at render time.
	SetStyle(fn StyleFunc)
}

// {{{ Memory

// Memory is a Layer that just holds its features, for servers and tests.
type Memory struct {
	mu       sync.Mutex
	features []lt.Feature
	styleFn  StyleFunc
	nextID   int
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory)AddCollection(fc *geojson.FeatureCollection) []lt.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := []lt.Feature{}
	if fc == nil { return added }
	for _,f := range fc.Features {
		if f == nil { continue }
		gf := lt.NewGeoFeature(fmt.Sprintf("f%d", m.nextID), f)
		m.nextID++
		m.features = append(m.features, gf)
		added = append(added, gf)
	}
	return added
}

func (m *Memory)Remove(f lt.Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i,existing := range m.features {
		if existing.ID() == f.ID() {
			m.features = append(m.features[:i], m.features[i+1:]...)
			return
		}
	}
}

func (m *Memory)SetStyle(fn StyleFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styleFn = fn
}

func (m *Memory)Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.features)
}

func (m *Memory)Features() []lt.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lt.Feature{}, m.features...)
}

func (m *Memory)Get(id string) (lt.Feature, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _,f := range m.features {
		if f.ID() == id { return f, true }
	}
	return nil, false
}

// }}}
// {{{ m.Render

// Render evaluates the style function over the current features and returns
// them as a FeatureCollection, each feature carrying its id and a "style"
// property.
func (m *Memory)Render() *geojson.FeatureCollection {
	m.mu.Lock()
	defer m.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	for _,f := range m.features {
		out := &geojson.Feature{
			ID:         f.ID(),
			Type:       "Feature",
			Geometry:   f.Geometry(),
			Properties: map[string]interface{}{},
		}
		if gf,ok := f.(*lt.GeoFeature); ok && gf.F != nil {
			for k,v := range gf.F.Properties { out.Properties[k] = v }
		}
		if m.styleFn != nil {
			out.Properties["style"] = m.styleFn(f)
		}
		fc.AddFeature(out)
	}
	return fc
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
