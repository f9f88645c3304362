// ltdump fetches one trackers snapshot and prints a line per pilot.
package main

import(
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"github.com/skypies/util/date"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/poller"
	"github.com/skypies/livetrack/proxy"
	"github.com/skypies/livetrack/units"
)

var(
	ctx = context.Background()
	fURL string
	fFile string
	fProxy string
	fKey string
	fAltitude string
	fSpeed string
	fVerbosity int
)

func init() {
	flag.StringVar(&fURL, "url", "", "site serving "+poller.SnapshotPath)
	flag.StringVar(&fFile, "file", "", "read the snapshot from a local file instead")
	flag.StringVar(&fProxy, "proxy", "", "fetch -url through this proxy (http://host/get)")
	flag.StringVar(&fKey, "key", os.Getenv("PROXY_KEY"), "proxy key")
	flag.StringVar(&fAltitude, "alt", units.Meters, "altitude unit (m|ft)")
	flag.StringVar(&fSpeed, "speed", units.KmPerHour, "speed unit (km/h|mi/h|kt|m/s)")
	flag.IntVar(&fVerbosity, "v", 0, "verbosity level")
	flag.Parse()
}

// {{{ pilot{}

type pilot struct {
	name   string
	fixes  []lt.TrackerFeature
	last   *lt.TrackerFeature
	track  *lt.TrackerFeature
}

func pilotsOf(features []lt.Feature) []*pilot {
	byName := map[string]*pilot{}
	for _,f := range features {
		tf := lt.Decode(f)
		p := byName[tf.Name]
		if p == nil {
			p = &pilot{name:tf.Name}
			byName[tf.Name] = p
		}
		if tf.Kind == geojson.GeometryLineString {
			p.track = &tf
			continue
		}
		p.fixes = append(p.fixes, tf)
		if tf.IsLastFix { p.last = &tf }
	}

	out := []*pilot{}
	for _,p := range byName {
		if p.last == nil && len(p.fixes) > 0 { p.last = &p.fixes[len(p.fixes)-1] }
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// }}}
// {{{ source

func source() (poller.Source, error) {
	switch {
	case fFile != "":  return poller.FileSource{Path:fFile}, nil
	case fProxy != "": return proxy.NewSource(fProxy, fURL, fKey), nil
	case fURL != "":   return poller.NewHTTPSource(fURL, "")
	}
	return nil, fmt.Errorf("need -url or -file")
}

// }}}

func main() {
	src,err := source()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ltdump: %v\n", err)
		os.Exit(1)
	}
	fc,err := src.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ltdump: %v\n", err)
		os.Exit(1)
	}

	features := []lt.Feature{}
	for i,f := range fc.Features {
		features = append(features, lt.NewGeoFeature(fmt.Sprintf("f%d", i), f))
	}
	if err := lt.CheckTracks(features); err != nil {
		fmt.Printf("** %v\n", err)
	}

	u := units.System{Altitude:fAltitude, Speed:fSpeed}.Normalized()
	now := time.Now()

	for _,p := range pilotsOf(features) {
		str := fmt.Sprintf("%-20.20s %3d fixes", p.name, len(p.fixes))
		if p.last != nil {
			str += fmt.Sprintf("  %-8s ago  %s", date.RoundDuration(p.last.Age(now)), u.FormatAltitude(p.last.AltitudeM))
			if p.last.SpeedKmh != nil { str += " " + u.FormatSpeed(*p.last.SpeedKmh) }
			str += fmt.Sprintf("  %.5f,%.5f", p.last.Position.Lat, p.last.Position.Long)
			if p.last.Emergency { str += "  EMERGENCY" }
			if p.last.Valid != nil && !*p.last.Valid { str += "  (invalid fix)" }
		}
		if p.track != nil {
			str += fmt.Sprintf("  track %.1fkm", p.track.LengthKM())
		}
		fmt.Println(str)

		if fVerbosity > 0 {
			for i,tf := range p.fixes {
				fmt.Printf("    [%3d] %s %s %s\n", i, tf.Timestamp.UTC().Format(time.RFC3339),
					u.FormatAltitude(tf.AltitudeM), tf.Msg)
			}
		}
	}
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
