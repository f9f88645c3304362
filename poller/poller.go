// Package poller fetches the trackers snapshot on a fixed cadence, but only
// while somebody is looking at the map.
package poller

import(
	"context"
	"sync"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/skypies/livetrack/log"
)

// Interval between two fetches while the page is visible.
const Interval = 2 * time.Minute

// Source produces one trackers snapshot.
type Source interface {
	Fetch(ctx context.Context) (*geojson.FeatureCollection, error)
}

// {{{ Scheduler, Timer, TickerScheduler

// Timer is the handle of a recurring schedule.
type Timer interface {
	Stop()
}

// Scheduler runs fn every d until the returned Timer is stopped. The first
// run is after d, not immediately.
type Scheduler interface {
	Every(d time.Duration, fn func()) Timer
}

type TickerScheduler struct{}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (TickerScheduler)Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{ticker:time.NewTicker(d), done:make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				fn()
			}
		}
	}()
	return t
}

func (t *tickerTimer)Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// }}}

// {{{ Poller{}

// Poller is Idle while timer is nil and Polling otherwise.
type Poller struct {
	Source    Source
	Apply     func(*geojson.FeatureCollection) // gets every good snapshot, in completion order
	Interval  time.Duration
	Scheduler Scheduler
	Logger    *log.Logger

	mu       sync.Mutex
	timer    Timer
	inflight sync.WaitGroup
}

func New(src Source, apply func(*geojson.FeatureCollection), lg *log.Logger) *Poller {
	return &Poller{
		Source:    src,
		Apply:     apply,
		Interval:  Interval,
		Scheduler: TickerScheduler{},
		Logger:    lg,
	}
}

// }}}
// {{{ p.SetVisible

// SetVisible moves the poller between Idle and Polling. Becoming visible
// fetches at once and then on every tick; becoming hidden only stops the
// ticks, so a fetch already under way still lands. Repeated calls with the
// same visibility are no-ops. ctx bounds the fetches started from here.
func (p *Poller)SetVisible(ctx context.Context, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if visible {
		if p.timer != nil { return }
		p.Logger.Debugf("poller: visible, polling every %s", p.Interval)
		p.launch(ctx)
		p.timer = p.Scheduler.Every(p.Interval, func() { p.launch(ctx) })

	} else if p.timer != nil {
		p.Logger.Debugf("poller: hidden, stopping")
		p.timer.Stop()
		p.timer = nil
	}
}

// Stop is SetVisible(false) without needing a context.
func (p *Poller)Stop() {
	p.SetVisible(context.Background(), false)
}

func (p *Poller)Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// }}}
// {{{ p.launch, p.Wait

func (p *Poller)launch(ctx context.Context) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.Refresh(ctx)
	}()
}

// Wait blocks until every fetch started so far has finished.
func (p *Poller)Wait() { p.inflight.Wait() }

// }}}
// {{{ p.Refresh

// Refresh fetches once and applies the snapshot. Failures are logged and
// otherwise ignored; the next tick will try again. It reports whether a
// snapshot was applied.
func (p *Poller)Refresh(ctx context.Context) bool {
	fc,err := p.Source.Fetch(ctx)
	if err == nil && fc == nil {
		err = ErrNoSnapshot
	}
	if err != nil {
		p.Logger.Warnf("poller: skipping update: %v", err)
		return false
	}
	p.Logger.Debugf("poller: %d features", len(fc.Features))
	p.Apply(fc)
	return true
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
