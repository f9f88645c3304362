// proxy relays GET requests for clients holding the shared key.
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

	"github.com/skypies/livetrack/log"
	"github.com/skypies/livetrack/proxy"
)

var(
	fAddr string
	fKey string
	fLogLevel string
	fLogDir string
)

func init() {
	flag.StringVar(&fAddr, "addr", ":80", "listen address")
	flag.StringVar(&fKey, "key", os.Getenv("PROXY_KEY"), "shared secret; defaults to $PROXY_KEY")
	flag.StringVar(&fLogLevel, "loglevel", "info", "debug|info|warn|error")
	flag.StringVar(&fLogDir, "logdir", "", "directory for rotated logs; stderr if empty")
	flag.Parse()
}

func main() {
	if fKey == "" {
		fmt.Fprintf(os.Stderr, "proxy: no key, use -key or $PROXY_KEY\n")
		os.Exit(1)
	}
	lg := log.New("proxy", fLogLevel, fLogDir)

	ctx,stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr:fAddr, Handler:proxy.NewServer(fKey, lg).Handler()}

	g,gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Infof("started server on %s", fAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx,cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Errorf("exiting: %v", err)
		os.Exit(1)
	}
}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
