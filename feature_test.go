package livetrack

// go test -v github.com/skypies/livetrack

import(
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

var(
	snapshot = []byte(`{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"LineString","coordinates":[[6.10,45.90],[6.20,45.95],[6.30,46.00]]},
 "properties":{"name":"Alice","first_ts":1700000000000}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[6.10,45.90,1000]},
 "properties":{"name":"Alice","ts":1700000000000,"alt":1000,"is_last_fix":false}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[6.30,46.00,1500]},
 "properties":{"name":"Alice","ts":1700000600000,"alt":1500,"speed":32.5,"bearing":270,"is_last_fix":true,"valid":false,"msg":"landed ok","emergency":""}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[7.00,44.00]},
 "properties":{"name":"Bob","ts":1700000300000,"alt":800,"is_last_fix":true,"emergency":true}}
]}`)
)

func loadSnapshot(t *testing.T) []Feature {
	fc,err := geojson.UnmarshalFeatureCollection(snapshot)
	if err != nil { t.Fatalf("unmarshal: %v", err) }
	features := []Feature{}
	for i,f := range fc.Features {
		features = append(features, NewGeoFeature(fmt.Sprintf("f%d", i), f))
	}
	return features
}

func TestDecode(t *testing.T) {
	features := loadSnapshot(t)

	track := Decode(features[0])
	if track.Kind != geojson.GeometryLineString || track.Name != "Alice" {
		t.Errorf("track decoded wrongly: %#v", track)
	}
	if track.FirstTimestamp.UnixMilli() != 1700000000000 {
		t.Errorf("first_ts: got %v", track.FirstTimestamp)
	}
	if len(track.Path) != 3 || track.Path[2].Lat != 46.00 || track.Path[2].Long != 6.30 {
		t.Errorf("path: got %v", track.Path)
	}
	if km := track.LengthKM(); km < 10 || km > 30 {
		t.Errorf("track length looks wrong: %.2fkm", km)
	}

	first := Decode(features[1])
	if first.IsLastFix || first.Bearing != nil || first.SpeedKmh != nil || first.Valid != nil {
		t.Errorf("first fix should have no optional fields: %#v", first)
	}
	if first.Msg != "" || first.Emergency {
		t.Errorf("first fix should have no flags: %#v", first)
	}

	last := Decode(features[2])
	if !last.IsLastFix || last.Bearing == nil || *last.Bearing != 270 {
		t.Errorf("last fix bearing: %#v", last)
	}
	if last.SpeedKmh == nil || math.Abs(*last.SpeedKmh - 32.5) > 1e-9 {
		t.Errorf("last fix speed: %#v", last.SpeedKmh)
	}
	if last.Valid == nil || *last.Valid != false {
		t.Errorf("last fix validity should be explicitly false")
	}
	if last.Msg != "landed ok" || last.Emergency {
		t.Errorf("last fix flags: msg=%q emergency=%v", last.Msg, last.Emergency)
	}
	if last.Position.Lat != 46.00 || last.Position.Long != 6.30 {
		t.Errorf("last fix position: %v", last.Position)
	}
	if age := last.Age(time.UnixMilli(1700000600000).Add(5*time.Minute)); age != 5*time.Minute {
		t.Errorf("age: got %s", age)
	}

	bob := Decode(features[3])
	if !bob.Emergency {
		t.Errorf("Bob should be in emergency")
	}
}

func TestDecodeToleratesJunk(t *testing.T) {
	f := NewGeoFeature("x", &geojson.Feature{Properties:map[string]interface{}{
		"name": 42, "ts": "yesterday", "is_last_fix": "true", "valid": 0,
	}})
	tf := Decode(f)
	if tf.Name != "" || !tf.Timestamp.IsZero() || tf.IsLastFix || tf.Valid != nil {
		t.Errorf("junk properties should decode as absent: %#v", tf)
	}
	if tf.Kind != "" {
		t.Errorf("feature without geometry has kind %q", tf.Kind)
	}
}

func TestCheckTracks(t *testing.T) {
	features := loadSnapshot(t)
	if err := CheckTracks(features); err != nil {
		t.Errorf("valid snapshot rejected: %v", err)
	}

	// Drop Alice's last fix
	broken := []Feature{features[0], features[1], features[3]}
	err := CheckTracks(broken)
	if err == nil || !strings.Contains(err.Error(), `"Alice":0`) {
		t.Errorf("expected Alice to be flagged, got %v", err)
	}
}
