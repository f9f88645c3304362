// Package livetrack holds the data model shared by the live-tracking overlay:
// tracker features decoded from the polled GeoJSON snapshot, and the display
// preferences the overlay observes.
package livetrack

import(
	"fmt"
	"sort"
	"strings"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/skypies/geo"
)

// Feature is all the overlay needs from a map feature; it lets the style and
// reconcile code run without a real map widget.
type Feature interface {
	ID() string
	GeometryType() geojson.GeometryType
	Geometry() *geojson.Geometry
	Property(name string) interface{}
}

// {{{ GeoFeature

// GeoFeature is a Feature backed by a decoded GeoJSON feature.
type GeoFeature struct {
	Id string
	F  *geojson.Feature
}

func NewGeoFeature(id string, f *geojson.Feature) *GeoFeature {
	return &GeoFeature{Id:id, F:f}
}

func (gf *GeoFeature)ID() string { return gf.Id }

func (gf *GeoFeature)Geometry() *geojson.Geometry {
	if gf.F == nil { return nil }
	return gf.F.Geometry
}

func (gf *GeoFeature)GeometryType() geojson.GeometryType {
	if g := gf.Geometry(); g != nil { return g.Type }
	return ""
}

func (gf *GeoFeature)Property(name string) interface{} {
	if gf.F == nil || gf.F.Properties == nil { return nil }
	return gf.F.Properties[name]
}

func (gf *GeoFeature)String() string {
	return fmt.Sprintf("%s:%s[%v]", gf.Id, gf.GeometryType(), gf.Property("name"))
}

// }}}

// {{{ TrackerFeature{}

// TrackerFeature is the typed view of one feature of the trackers snapshot.
// Points are fixes; LineStrings are whole tracks.
type TrackerFeature struct {
	Kind           geojson.GeometryType
	Name           string
	Timestamp      time.Time // ts; the fix time
	FirstTimestamp time.Time // first_ts; the start of a track
	AltitudeM      float64
	SpeedKmh       *float64  // nil when not reported
	Bearing        *float64  // only set on the most recent fix
	Msg            string
	Emergency      bool
	Valid          *bool     // nil when the tracker says nothing about the GPS fix
	IsLastFix      bool

	Position       geo.Latlong   // Points
	Path           []geo.Latlong // LineStrings
}

// }}}
// {{{ Decode

// Decode extracts the tracker properties of a feature. Missing or oddly typed
// properties are left at their zero values.
func Decode(f Feature) TrackerFeature {
	tf := TrackerFeature{Kind:f.GeometryType()}

	tf.Name,_ = f.Property("name").(string)
	if ms,ok := number(f.Property("ts")); ok { tf.Timestamp = time.UnixMilli(int64(ms)) }
	if ms,ok := number(f.Property("first_ts")); ok { tf.FirstTimestamp = time.UnixMilli(int64(ms)) }
	tf.AltitudeM,_ = number(f.Property("alt"))
	if v,ok := number(f.Property("speed")); ok { tf.SpeedKmh = &v }
	if v,ok := number(f.Property("bearing")); ok { tf.Bearing = &v }
	if truthy(f.Property("msg")) { tf.Msg = fmt.Sprintf("%v", f.Property("msg")) }
	tf.Emergency = truthy(f.Property("emergency"))
	if v,ok := f.Property("valid").(bool); ok { tf.Valid = &v }
	tf.IsLastFix,_ = f.Property("is_last_fix").(bool)

	if g := f.Geometry(); g != nil {
		switch g.Type {
		case geojson.GeometryPoint:
			tf.Position = toLatlong(g.Point)
		case geojson.GeometryLineString:
			for _,c := range g.LineString {
				tf.Path = append(tf.Path, toLatlong(c))
			}
		}
	}

	return tf
}

// GeoJSON coordinates are [long, lat, (alt)]
func toLatlong(c []float64) geo.Latlong {
	if len(c) < 2 { return geo.Latlong{} }
	return geo.Latlong{Lat:c[1], Long:c[0]}
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64: return n, true
	case float32: return float64(n), true
	case int:     return float64(n), true
	case int64:   return float64(n), true
	}
	return 0, false
}

// truthy follows the loose rules the snapshot producer relies on: empty
// strings, zero, false and null all mean "absent".
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:    return false
	case bool:   return x
	case string: return x != ""
	}
	if n,ok := number(v); ok { return n != 0 }
	return true
}

// }}}
// {{{ tf.Age, tf.LengthKM

func (tf TrackerFeature)Age(now time.Time) time.Duration { return now.Sub(tf.Timestamp) }

// LengthKM is the flown distance along a track.
func (tf TrackerFeature)LengthKM() float64 {
	km := 0.0
	for i:=1; i<len(tf.Path); i++ {
		km += tf.Path[i-1].DistKM(tf.Path[i])
	}
	return km
}

// }}}

// {{{ CheckTracks

// CheckTracks verifies that every named track in a snapshot has exactly one
// point flagged as its last fix.
func CheckTracks(features []Feature) error {
	lastFixes := map[string]int{}
	for _,f := range features {
		if f.GeometryType() != geojson.GeometryPoint { continue }
		tf := Decode(f)
		if _,exists := lastFixes[tf.Name]; !exists { lastFixes[tf.Name] = 0 }
		if tf.IsLastFix { lastFixes[tf.Name]++ }
	}

	bad := []string{}
	for name,n := range lastFixes {
		if n != 1 { bad = append(bad, fmt.Sprintf("%q:%d", name, n)) }
	}
	if len(bad) == 0 { return nil }

	sort.Strings(bad)
	return fmt.Errorf("CheckTracks: tracks without exactly one last fix: %s", strings.Join(bad, ", "))
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
