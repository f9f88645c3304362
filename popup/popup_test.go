package popup

import(
	"strings"
	"testing"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/skypies/geo"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/units"
)

var ts = time.Date(2024, 7, 14, 15, 4, 5, 0, time.UTC)

func point(id, name string, extra map[string]interface{}) lt.Feature {
	f := geojson.NewPointFeature([]float64{6.5, 45.25})
	f.Properties = map[string]interface{}{"name":name, "ts":float64(ts.UnixMilli()), "alt":float64(1500)}
	for k,v := range extra { f.Properties[k] = v }
	return lt.NewGeoFeature(id, f)
}

func TestClickThenClickAgain(t *testing.T) {
	c := NewController(nil)
	if _,ok := c.State().(Closed); !ok || c.Selection() != "" {
		t.Fatalf("controller should start closed")
	}

	at := geo.Latlong{Lat:45.25, Long:6.5}
	if !c.Click(point("a", "Alice", nil), at, lt.DefaultPreferences) {
		t.Fatalf("click on a point should open")
	}
	if c.Selection() != "Alice" {
		t.Errorf("selection: %q", c.Selection())
	}

	c.Click(point("b", "Bob", nil), at, lt.DefaultPreferences)
	open,ok := c.State().(Open)
	if !ok || open.Name != "Bob" || open.FeatureID != "b" || c.Selection() != "Bob" {
		t.Errorf("expected a single popup for Bob, got %#v", c.State())
	}

	if !c.Close() {
		t.Errorf("Close should report an open popup")
	}
	if c.Close() {
		t.Errorf("second Close should report nothing open")
	}
	if c.Selection() != "" {
		t.Errorf("closing should clear the selection")
	}
}

func TestClickOnTrackIgnored(t *testing.T) {
	c := NewController(nil)
	line := lt.NewGeoFeature("l", geojson.NewLineStringFeature([][]float64{{6,45},{7,46}}))
	if c.Click(line, geo.Latlong{}, lt.DefaultPreferences) {
		t.Errorf("clicks on tracks should not open a popup")
	}
	if c.Click(nil, geo.Latlong{}, lt.DefaultPreferences) {
		t.Errorf("clicks on nothing should not open a popup")
	}
}

func TestContent(t *testing.T) {
	tf := lt.Decode(point("a", "Alice", map[string]interface{}{
		"speed": float64(36), "msg": "<b>ok</b>", "emergency": true, "valid": false,
	}))
	html := string(Content(tf, units.System{Altitude:units.Feet, Speed:units.MetersPerSecond}, time.UTC))

	for _,want := range []string{
		"<strong>Alice</strong>",
		"2024-07-14 15:04:05 UTC",
		"4921ft 10m/s",
		`href="https://www.google.com/maps/dir//45.25,6.5"`,
		"&lt;b&gt;ok&lt;/b&gt;",
		"<strong>Emergency</strong>",
		"The GPS fix is reported as invalid.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("content lacks %q:\n%s", want, html)
		}
	}

	// Flags come in order: message, emergency, validity
	iMsg := strings.Index(html, "&lt;b&gt;")
	iEm := strings.Index(html, "Emergency")
	iWarn := strings.Index(html, "WARNING")
	if !(iMsg < iEm && iEm < iWarn) {
		t.Errorf("flags out of order: %d %d %d", iMsg, iEm, iWarn)
	}
}

func TestContentPlain(t *testing.T) {
	tf := lt.Decode(point("a", "Alice", map[string]interface{}{"valid": true}))
	paris,_ := time.LoadLocation("Europe/Paris")
	html := string(Content(tf, units.Default, paris))

	if !strings.Contains(html, "1500m<br>") {
		t.Errorf("no speed should mean altitude only:\n%s", html)
	}
	if !strings.Contains(html, "17:04:05") {
		t.Errorf("date should be in the viewer's zone:\n%s", html)
	}
	if strings.Contains(html, "WARNING") || strings.Contains(html, "Emergency") {
		t.Errorf("plain fix has flags:\n%s", html)
	}
}
