// Package popup is the detail popup shown when a fix is clicked. At most one
// popup is open; its track name is the overlay's selection.
package popup

import(
	"bytes"
	"fmt"
	"html/template"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/skypies/geo"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/units"
)

// {{{ State

// State is either Closed or Open.
type State interface {
	isState()
}

type Closed struct{}

type Open struct {
	Name      string        `json:"name"`
	FeatureID string        `json:"featureId"`
	Position  geo.Latlong   `json:"position"` // where the user clicked
	Content   template.HTML `json:"content"`
}

func (Closed)isState() {}
func (Open)isState() {}

// }}}
// {{{ Controller

// Controller holds the popup state. It is not safe for concurrent use; the
// overlay serializes access.
type Controller struct {
	Location *time.Location // for the fix date; UTC if nil
	state    State
}

func NewController(loc *time.Location) *Controller {
	return &Controller{Location:loc, state:Closed{}}
}

func (c *Controller)State() State {
	if c.state == nil { return Closed{} }
	return c.state
}

// Selection is the name of the track whose popup is open, or "".
func (c *Controller)Selection() string {
	if o,ok := c.State().(Open); ok { return o.Name }
	return ""
}

// Click opens the popup for a fix, replacing any open one. Clicks on anything
// but a point are ignored; the return value says whether the state changed.
func (c *Controller)Click(f lt.Feature, at geo.Latlong, prefs lt.DisplayPreferences) bool {
	if f == nil || f.GeometryType() != geojson.GeometryPoint {
		return false
	}
	tf := lt.Decode(f)
	c.state = Open{
		Name:      tf.Name,
		FeatureID: f.ID(),
		Position:  at,
		Content:   Content(tf, prefs.Units, c.Location),
	}
	return true
}

// Close dismisses the popup; it reports whether one was open.
func (c *Controller)Close() bool {
	_,wasOpen := c.State().(Open)
	c.state = Closed{}
	return wasOpen
}

// }}}

// {{{ Content

var contentTmpl = template.Must(template.New("popup").Parse(
	`<strong>{{.Name}}</strong><br>{{.Date}}<br>{{.Altitude}}{{if .Speed}} {{.Speed}}{{end}}<br>` +
	`<a href="{{.Directions}}" target="_blank">Directions</a>` +
	`{{if .Msg}}<br>{{.Msg}}{{end}}` +
	`{{if .Emergency}}<br><strong>Emergency</strong>{{end}}` +
	`{{if .Invalid}}<br><strong>WARNING:<br>The GPS fix is reported as invalid.<br>` +
	`The actual location might be different.</strong>{{end}}`))

// DirectionsURL is a driving-directions deep link to a fix.
func DirectionsURL(pos geo.Latlong) string {
	return fmt.Sprintf("https://www.google.com/maps/dir//%v,%v", pos.Lat, pos.Long)
}

// Content renders the popup body. Message text is escaped.
func Content(tf lt.TrackerFeature, u units.System, loc *time.Location) template.HTML {
	if loc == nil { loc = time.UTC }
	params := map[string]interface{}{
		"Name":       tf.Name,
		"Date":       tf.Timestamp.In(loc).Format("2006-01-02 15:04:05 MST"),
		"Altitude":   u.FormatAltitude(tf.AltitudeM),
		"Speed":      "",
		"Directions": DirectionsURL(tf.Position),
		"Msg":        tf.Msg,
		"Emergency":  tf.Emergency,
		"Invalid":    tf.Valid != nil && !*tf.Valid,
	}
	if tf.SpeedKmh != nil {
		params["Speed"] = u.FormatSpeed(*tf.SpeedKmh)
	}

	var buf bytes.Buffer
	if err := contentTmpl.Execute(&buf, params); err != nil {
		return template.HTML(template.HTMLEscapeString(tf.Name))
	}
	return template.HTML(buf.String())
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
