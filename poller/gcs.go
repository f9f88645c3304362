package poller

import(
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	geojson "github.com/paulmach/go.geojson"
	"google.golang.org/api/option"
)

// {{{ GCSSource{}

// GCSSource reads the snapshot from an object that some other job keeps
// overwriting in a Cloud Storage bucket.
type GCSSource struct {
	Bucket string
	Object string
	client *storage.Client
}

func NewGCSSource(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCSSource, error) {
	client,err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSSource: %w", err)
	}
	return &GCSSource{Bucket:bucket, Object:object, client:client}, nil
}

// }}}
// {{{ s.Fetch, s.Close

func (s *GCSSource)Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	r,err := s.client.Bucket(s.Bucket).Object(s.Object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCS-Open %s|%s: %w", s.Bucket, s.Object, err)
	}
	defer r.Close()

	data,err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("GCS-Read %s|%s: %w", s.Bucket, s.Object, err)
	}
	return Decode(data)
}

func (s *GCSSource)Close() error { return s.client.Close() }

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
