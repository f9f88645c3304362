package proxy

import(
	"context"
	"fmt"
	"net/http"

	geojson "github.com/paulmach/go.geojson"

	"github.com/skypies/livetrack/poller"
)

// {{{ Source{}

// Source fetches the trackers snapshot through a proxy, for upstreams that
// only answer known addresses.
type Source struct {
	ProxyURL string // ends in /get
	Request  Request
	Client   *http.Client
}

func NewSource(proxyURL, snapshotURL, key string) *Source {
	return &Source{
		ProxyURL: proxyURL,
		Request:  Request{URL:snapshotURL, Retry:2, TimeoutS:10, Key:key},
		Client:   &http.Client{},
	}
}

// }}}
// {{{ s.Fetch

func (s *Source)Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	status,body,err := Get(ctx, s.Client, s.ProxyURL, s.Request)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("proxy.Source: %d: %.80s", status, body)
	}
	return poller.Decode(body)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
