// Package proxy is a small authenticated HTTP relay. Clients POST a protobuf
// Request naming a URL; the proxy fetches it, with retries, and relays the
// upstream status and body.
package proxy

import(
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/skypies/livetrack/log"
)

const(
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = 500 * time.Millisecond
	maxRequestSize = 64 * 1024
)

// {{{ Server{}

type Server struct {
	Key     string
	Client  *http.Client
	Backoff time.Duration // between attempts
	Logger  *log.Logger
}

func NewServer(key string, lg *log.Logger) *Server {
	return &Server{Key:key, Client:&http.Client{}, Backoff:DefaultBackoff, Logger:lg}
}

// Handler serves POST /get and GET /api/health.
func (s *Server)Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /get", s.getHandler)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK\n"))
	})
	return mux
}

// }}}
// {{{ s.getHandler

func (s *Server)getHandler(w http.ResponseWriter, r *http.Request) {
	body,err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		http.Error(w, "[proxy] "+err.Error(), http.StatusBadRequest)
		return
	}
	req,err := UnmarshalRequest(body)
	if err != nil {
		http.Error(w, "[proxy] "+err.Error(), http.StatusBadRequest)
		return
	}

	if !s.validKey(req.Key) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("[proxy] Invalid key"))
		return
	}

	status,respBody,err := s.Fetch(r.Context(), req)
	if err != nil {
		s.Logger.Warnf("proxy: %s: %v", req.URL, err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("[proxy] " + errorJSON(err)))
		return
	}

	s.Logger.Debugf("proxy: %s: %d, %d bytes", req.URL, status, len(respBody))
	w.WriteHeader(status)
	w.Write(respBody)
}

func (s *Server)validKey(key string) bool {
	if s.Key == "" { return false }
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.Key)) == 1
}

func errorJSON(err error) string {
	b,_ := json.Marshal(map[string]string{"error":err.Error()})
	return string(b)
}

// }}}
// {{{ s.Fetch

// Fetch gets req.URL, making up to req.Retry extra attempts when the
// transport fails or upstream answers 5xx. Timeouts count as failures worth
// retrying only with req.RetryOnTimeout. A final 5xx is returned as a
// response, not an error. Negative retry counts and timeouts count as zero.
func (s *Server)Fetch(ctx context.Context, req Request) (int, []byte, error) {
	if req.Retry < 0 { req.Retry = 0 }
	if req.TimeoutS < 0 { req.TimeoutS = 0 }
	timeout := time.Duration(req.TimeoutS) * time.Second
	if timeout == 0 { timeout = DefaultTimeout }

	var status int
	var body []byte
	var err error
	for attempt := 0; attempt <= req.Retry; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, fmt.Errorf("Fetch: %w", ctx.Err())
			case <-time.After(s.Backoff):
			}
		}

		status,body,err = s.attempt(ctx, req.URL, timeout)
		if err == nil && status < 500 {
			return status, body, nil
		}
		if err != nil && isTimeout(err) && !req.RetryOnTimeout {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

func (s *Server)attempt(ctx context.Context, url string, timeout time.Duration) (int, []byte, error) {
	ctx,cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq,err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("Fetch/NewRequest: %w", err)
	}
	resp,err := s.Client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("Fetch/Do: %w", err)
	}
	defer resp.Body.Close()

	body,err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("Fetch/ReadAll: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) { return true }
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// }}}

// {{{ Get

// Get asks the proxy at proxyURL to fetch req.URL on our behalf.
func Get(ctx context.Context, client *http.Client, proxyURL string, req Request) (int, []byte, error) {
	httpReq,err := http.NewRequestWithContext(ctx, http.MethodPost, proxyURL, bytes.NewReader(req.Marshal()))
	if err != nil {
		return 0, nil, fmt.Errorf("proxy.Get/NewRequest: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp,err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("proxy.Get/Do: %w", err)
	}
	defer resp.Body.Close()

	body,err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("proxy.Get/ReadAll: %w", err)
	}
	return resp.StatusCode, body, nil
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
