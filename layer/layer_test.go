package layer

import(
	"encoding/json"
	"sort"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/style"
)

// watched records the layer size after every mutation.
type watched struct {
	*Memory
	sizes []int
}

func (w *watched)AddCollection(fc *geojson.FeatureCollection) []lt.Feature {
	added := w.Memory.AddCollection(fc)
	w.sizes = append(w.sizes, w.Memory.Len())
	return added
}

func (w *watched)Remove(f lt.Feature) {
	w.Memory.Remove(f)
	w.sizes = append(w.sizes, w.Memory.Len())
}

func collection(names ...string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _,name := range names {
		f := geojson.NewPointFeature([]float64{6, 45})
		f.SetProperty("name", name)
		fc.AddFeature(f)
	}
	return fc
}

func names(features []lt.Feature) string {
	s := []string{}
	for _,f := range features {
		s = append(s, f.Property("name").(string))
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}

func TestReconcileNeverEmpty(t *testing.T) {
	w := &watched{Memory:NewMemory()}
	old := Reconcile(w, nil, collection("A", "B"))
	w.sizes = nil

	current := Reconcile(w, old, collection("B", "C"))

	if got := names(w.Memory.Features()); got != "B,C" {
		t.Errorf("expected layer to hold B,C; got %s", got)
	}
	if got := names(current); got != "B,C" {
		t.Errorf("expected Reconcile to return B,C; got %s", got)
	}
	for i,n := range w.sizes {
		if n == 0 {
			t.Errorf("layer was empty after step %d (%v)", i, w.sizes)
		}
	}
	if len(w.sizes) == 0 || w.sizes[0] != 4 {
		t.Errorf("expected new features to be added before removal, sizes %v", w.sizes)
	}
}

func TestReconcileWithEmptySnapshot(t *testing.T) {
	m := NewMemory()
	old := Reconcile(m, nil, collection("A"))
	current := Reconcile(m, old, geojson.NewFeatureCollection())
	if m.Len() != 0 || len(current) != 0 {
		t.Errorf("an empty snapshot clears the layer; have %d", m.Len())
	}
	if got := Reconcile(m, current, nil); len(got) != 0 {
		t.Errorf("nil collection should add nothing")
	}
}

func TestMemoryRender(t *testing.T) {
	m := NewMemory()
	added := m.AddCollection(collection("A", "B"))
	if len(added) != 2 || added[0].ID() == added[1].ID() {
		t.Fatalf("features need distinct ids: %v", added)
	}
	if f,ok := m.Get(added[1].ID()); !ok || f.Property("name") != "B" {
		t.Errorf("Get(%s) failed", added[1].ID())
	}

	m.SetStyle(func(f lt.Feature) style.VisualStyle {
		return style.VisualStyle{ZIndex:len(f.Property("name").(string))}
	})
	fc := m.Render()
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 rendered features, got %d", len(fc.Features))
	}
	if fc.Features[0].ID != added[0].ID() {
		t.Errorf("rendered id %v, expected %s", fc.Features[0].ID, added[0].ID())
	}
	if vs,ok := fc.Features[0].Properties["style"].(style.VisualStyle); !ok || vs.ZIndex != 1 {
		t.Errorf("rendered style missing: %#v", fc.Features[0].Properties["style"])
	}
	if _,exists := added[0].Property("style").(style.VisualStyle); exists {
		t.Errorf("Render must not write into the source features")
	}
	if _,err := json.Marshal(fc); err != nil {
		t.Errorf("rendered collection does not marshal: %v", err)
	}
}
