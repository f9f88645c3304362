package layer

import(
	geojson "github.com/paulmach/go.geojson"

	lt "github.com/skypies/livetrack"
)

// {{{ Reconcile

// Reconcile replaces old with the contents of fc. The new features go in
// before the old ones come out, so the layer is never empty mid-refresh;
// unchanged features are briefly drawn twice. It returns the features now on
// the layer.
func Reconcile(l Layer, old []lt.Feature, fc *geojson.FeatureCollection) []lt.Feature {
	added := l.AddCollection(fc)
	for _,f := range old {
		l.Remove(f)
	}
	return added
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
