package poller

import(
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// SnapshotPath is where the trackers snapshot lives, relative to the site.
const SnapshotPath = "_trackers.geojson"

var ErrNoSnapshot = errors.New("no snapshot available")

// {{{ Decode

func Decode(data []byte) (*geojson.FeatureCollection, error) {
	fc,err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("Decode: %w", err)
	}
	return fc, nil
}

// }}}

// {{{ HTTPSource

type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource resolves path (SnapshotPath when empty) against base.
func NewHTTPSource(base, path string) (*HTTPSource, error) {
	if path == "" { path = SnapshotPath }
	b,err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("NewHTTPSource/base: %w", err)
	}
	ref,err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("NewHTTPSource/path: %w", err)
	}
	return &HTTPSource{
		URL:    b.ResolveReference(ref).String(),
		Client: &http.Client{Timeout:30 * time.Second},
	}, nil
}

func (s *HTTPSource)Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	req,err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPSource/NewRequest: %w", err)
	}
	client := s.Client
	if client == nil { client = http.DefaultClient }

	resp,err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPSource/Get %s: %w", s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTPSource/Get %s: bad status %s", s.URL, resp.Status)
	}
	data,err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("HTTPSource/Read %s: %w", s.URL, err)
	}
	return Decode(data)
}

// }}}
// {{{ FileSource

type FileSource struct {
	Path string
}

func (s FileSource)Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	data,err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("FileSource: %w", err)
	}
	return Decode(data)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
