// livetrack serves the live-tracking overlay to browsers.
package main

import(
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	lt "github.com/skypies/livetrack"
	"github.com/skypies/livetrack/config"
	"github.com/skypies/livetrack/layer"
	"github.com/skypies/livetrack/log"
	"github.com/skypies/livetrack/overlay"
	"github.com/skypies/livetrack/poller"
	"github.com/skypies/livetrack/proxy"
	"github.com/skypies/livetrack/ui"
	"github.com/skypies/livetrack/urlstate"
)

var(
	fConfig string
	fAddr string
	fLogLevel string
	fLocation string
)

func init() {
	flag.StringVar(&fConfig, "config", "livetrack.yml", "path to the YAML config")
	flag.StringVar(&fAddr, "addr", "", "listen address, overrides server.addr")
	flag.StringVar(&fLogLevel, "loglevel", "", "debug|info|warn|error, overrides log.level")
	flag.StringVar(&fLocation, "url", "/", "initial page address, with its query parameters")
	flag.Parse()
}

// {{{ newSource

func newSource(ctx context.Context, cfg *config.Config, lg *log.Logger) (poller.Source, func(), error) {
	noop := func() {}
	sc := cfg.Source

	switch sc.Kind {
	case "http":
		src,err := poller.NewHTTPSource(sc.URL, "")
		return src, noop, err

	case "file":
		return poller.FileSource{Path:sc.Path}, noop, nil

	case "gcs":
		object := sc.Object
		if object == "" { object = poller.SnapshotPath }
		src,err := poller.NewGCSSource(ctx, sc.Bucket, object)
		if err != nil { return nil, noop, err }
		return src, func() { src.Close() }, nil

	case "mqtt":
		src := poller.NewMQTTSource(sc.Broker, sc.Topic, sc.ClientID, lg)
		if err := src.Connect(); err != nil { return nil, noop, err }
		return src, src.Close, nil

	case "proxy":
		return proxy.NewSource(sc.ProxyURL, sc.URL, cfg.Proxy.Key), noop, nil
	}

	return nil, noop, fmt.Errorf("newSource: unknown kind %q", sc.Kind)
}

// }}}
// {{{ serve

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, g *errgroup.Group, srv *http.Server, lg *log.Logger) {
	g.Go(func() error {
		lg.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx,cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// }}}

func main() {
	cfg,err := config.Load(fConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "livetrack: %v\n", err)
		os.Exit(1)
	}
	if fAddr != "" { cfg.Server.Addr = fAddr }
	if fLogLevel != "" { cfg.Log.Level = fLogLevel }

	lg := log.New("livetrack", cfg.Log.Level, cfg.Log.Dir)

	ctx,stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src,closeSource,err := newSource(ctx, cfg, lg)
	if err != nil {
		lg.Errorf("source: %v", err)
		os.Exit(1)
	}
	defer closeSource()

	presence := overlay.NewPresence()
	prefs := lt.NewPrefsStore(cfg.Preferences())
	o := overlay.New(src, prefs, presence, cfg.Location(), lg)

	s := ui.New(o, presence, prefs, urlstate.New(urlstate.NewHistory(fLocation)), lg)
	o.Mount(ctx)
	o.Attach(layer.NewMemory())

	g,gctx := errgroup.WithContext(ctx)
	serve(gctx, g, &http.Server{Addr:cfg.Server.Addr, Handler:s.Handler()}, lg)
	if cfg.Proxy.Addr != "" {
		p := proxy.NewServer(cfg.Proxy.Key, lg.With("component", "proxy"))
		serve(gctx, g, &http.Server{Addr:cfg.Proxy.Addr, Handler:p.Handler()}, lg)
	}

	err = g.Wait()
	o.Unmount()
	o.Poller.Wait()
	if err != nil {
		lg.Errorf("exiting: %v", err)
		os.Exit(1)
	}
	lg.Infof("bye, up %s", time.Since(lg.Start).Round(time.Second))
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
