// Package style computes how tracker features look on the map. Everything
// here is a pure function of the feature, the wall clock, the viewer's
// preferences and the current selection.
package style

import(
	"fmt"
	"math"
	"strconv"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	planar "github.com/paulmach/go.geo"
	geojson "github.com/paulmach/go.geojson"

	lt "github.com/skypies/livetrack"
)

const(
	// Fixes older than this are drawn faded.
	StaleAge = 12 * time.Hour
	// Fill saturation goes from 10% for a fix this old to 100% for a fix from now.
	SaturationWindow = 5 * time.Hour
	MinSaturation    = 10.0
	MaxSaturation    = 100.0

	FreshOpacity = 0.9
	StaleOpacity = 0.3

	fixHue       = 111.0
	fixLightness = 53.0

	baseZIndex  = 10
	anchorY     = 2.0
	arrowRadius = 5.0

	TrackColor = "#555"
)

type Shape string

const(
	Circle             Shape = "CIRCLE"
	ForwardClosedArrow Shape = "FORWARD_CLOSED_ARROW"
	SpeechBubble       Shape = "M2.5 2C1.7 2 1 2.7 1 3.5 l 0 8 c0 .8.7 1.5 1.5 1.5 H4 l 0 2.4 L 7.7 13 l 4.8 0 " +
		"c.8 0 1.5 -.7 1.5 -1.5 l 0 -8 c 0 -.8 -.7 -1.5 -1.5 -1.5 z"
)

// {{{ Icon{}, Label{}, VisualStyle{}

type Icon struct {
	Path          Shape         `json:"path"`
	Rotation      float64       `json:"rotation"`
	Scale         float64       `json:"scale"`
	FillColor     string        `json:"fillColor"` // CSS colour
	FillHex       string        `json:"fillHex"`
	FillOpacity   float64       `json:"fillOpacity"`
	StrokeColor   string        `json:"strokeColor"`
	StrokeWeight  float64       `json:"strokeWeight"`
	StrokeOpacity float64       `json:"strokeOpacity"`
	Anchor        *planar.Point `json:"anchor,omitempty"`
	LabelOrigin   *planar.Point `json:"labelOrigin"`
}

type Label struct {
	Text     string `json:"text"`
	Color    string `json:"color"`
	FontSize string `json:"fontSize"`
}

// VisualStyle is the union of the point (Icon, Label) and line (Stroke*)
// style options; the zero value means "nothing special".
type VisualStyle struct {
	Icon          *Icon   `json:"icon,omitempty"`
	Label         *Label  `json:"label,omitempty"`
	ZIndex        int     `json:"zIndex,omitempty"`
	Cursor        string  `json:"cursor,omitempty"`
	StrokeColor   string  `json:"strokeColor,omitempty"`
	StrokeWeight  float64 `json:"strokeWeight,omitempty"`
	StrokeOpacity float64 `json:"strokeOpacity,omitempty"`
	FillOpacity   float64 `json:"fillOpacity,omitempty"`
}

func (vs VisualStyle)IsEmpty() bool { return vs == VisualStyle{} }

// }}}

// {{{ Style

// Style dispatches on geometry type; selection is the name of the track whose
// popup is open, or "".
func Style(f lt.Feature, now time.Time, prefs lt.DisplayPreferences, selection string) VisualStyle {
	switch f.GeometryType() {
	case geojson.GeometryPoint:      return FixStyle(lt.Decode(f), now, prefs)
	case geojson.GeometryLineString: return TrackStyle(lt.Decode(f), now, selection)
	default:                         return VisualStyle{}
	}
}

// Func binds the current preferences and selection, leaving the clock to be
// read each time a feature is styled.
func Func(clock func() time.Time, prefs lt.DisplayPreferences, selection string) func(lt.Feature) VisualStyle {
	return func(f lt.Feature) VisualStyle {
		return Style(f, clock(), prefs, selection)
	}
}

// }}}
// {{{ FixStyle

func FixStyle(tf lt.TrackerFeature, now time.Time, prefs lt.DisplayPreferences) VisualStyle {
	s := Saturation(tf.Timestamp, now)
	color := fmt.Sprintf("hsl(%.0f, %s%%, %.0f%%)", fixHue, strconv.FormatFloat(s, 'f', -1, 64), fixLightness)
	hex := colorful.Hsl(fixHue, s/100.0, fixLightness/100.0).Hex()
	opacity := Opacity(tf.Age(now))
	zIndex := baseZIndex

	// Small circle by default.
	icon := Icon{
		Path:        Circle,
		Scale:       3,
		LabelOrigin: planar.NewPoint(0, 3),
	}

	// An arrow when we have a bearing, which only the last fix carries.
	if tf.Bearing != nil {
		icon.Path = ForwardClosedArrow
		icon.Rotation = *tf.Bearing
		icon.Anchor = planar.NewPoint(0, anchorY)
		icon.LabelOrigin = LabelOrigin(*tf.Bearing)
	}

	if tf.Msg != "" {
		icon = speechBubble(icon)
		color, hex = "yellow", "#ffff00"
		zIndex += 10
	}

	// Checked after the message on purpose: red wins.
	if tf.Emergency {
		icon = speechBubble(icon)
		color, hex = "red", "#ff0000"
		opacity = 1
		zIndex += 10
	}

	icon.FillColor, icon.FillHex = color, hex
	icon.FillOpacity, icon.StrokeOpacity = opacity, opacity
	icon.StrokeColor, icon.StrokeWeight = "black", 1

	vs := VisualStyle{Icon:&icon, ZIndex:zIndex, Cursor:"zoom-in"}

	if tf.IsLastFix && prefs.DisplayNames {
		vs.Label = &Label{
			Text:     tf.Name + " · " + AgeLabel(tf.Age(now)),
			Color:    "black",
			FontSize: "14.001px",
		}
	}

	return vs
}

func speechBubble(icon Icon) Icon {
	icon.Path = SpeechBubble
	icon.Scale = 1
	icon.Rotation = 0
	icon.Anchor = planar.NewPoint(7, 9)
	icon.LabelOrigin = planar.NewPoint(0, 32)
	return icon
}

// }}}
// {{{ TrackStyle

func TrackStyle(tf lt.TrackerFeature, now time.Time, selection string) VisualStyle {
	opacity := Opacity(now.Sub(tf.FirstTimestamp))
	weight := 1.0
	if tf.Name != "" && tf.Name == selection {
		weight = 4
	}
	return VisualStyle{
		StrokeColor:   TrackColor,
		StrokeWeight:  weight,
		StrokeOpacity: opacity,
		FillOpacity:   opacity,
		ZIndex:        baseZIndex,
	}
}

// }}}

// {{{ Saturation

// Saturation maps the fix time onto [10%,100%] across the last five hours,
// clamped to [0,100] for fixes outside that window.
func Saturation(ts, now time.Time) float64 {
	old := now.Add(-SaturationWindow)
	s := linearInterpolate(float64(old.UnixMilli()), MinSaturation,
		float64(now.UnixMilli()), MaxSaturation, float64(ts.UnixMilli()))
	return math.Max(0, math.Min(MaxSaturation, s))
}

func linearInterpolate(x1, y1, x2, y2, x float64) float64 {
	return y1 + (x - x1) * (y2 - y1) / (x2 - x1)
}

// }}}
// {{{ Opacity

func Opacity(age time.Duration) float64 {
	if age > StaleAge { return StaleOpacity }
	return FreshOpacity
}

// }}}
// {{{ LabelOrigin

// LabelOrigin rotates the label offset with the arrow. Screen y grows
// downwards, hence the negated bearing.
func LabelOrigin(bearing float64) *planar.Point {
	rad := -bearing * math.Pi / 180.0
	x := -arrowRadius * math.Sin(rad)
	y := arrowRadius * math.Cos(rad)
	return planar.NewPoint(x, y + anchorY)
}

// }}}
// {{{ AgeLabel

// AgeLabel renders an age as "45min" under an hour, "2h05" beyond.
func AgeLabel(age time.Duration) string {
	minutes := int64(math.Round(float64(age) / float64(time.Minute)))
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
