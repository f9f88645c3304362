package overlay

import(
	"sync"
)

// Visibility says whether anybody can currently see the map.
type Visibility interface {
	Visible() bool
	// Subscribe calls fn on every change; the returned func cancels.
	Subscribe(fn func(visible bool)) (unsubscribe func())
}

// {{{ Presence

// Presence is visible while at least one viewer is connected.
type Presence struct {
	notifyMu sync.Mutex // held from a change until its subscribers return
	mu       sync.Mutex
	viewers  int
	subs     map[int]func(bool)
	next     int
}

func NewPresence() *Presence {
	return &Presence{subs:map[int]func(bool){}}
}

func (p *Presence)Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewers > 0
}

func (p *Presence)Viewers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewers
}

func (p *Presence)Subscribe(fn func(bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Join registers a viewer. The returned func must be called exactly once
// when the viewer goes away; extra calls are ignored.
func (p *Presence)Join() (leave func()) {
	p.change(+1)
	var once sync.Once
	return func() { once.Do(func() { p.change(-1) }) }
}

// Changes are serialized through delivery, so subscribers see them in order.
// A subscriber must not Join or leave from its callback.
func (p *Presence)change(delta int) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	before := p.viewers > 0
	p.viewers += delta
	after := p.viewers > 0
	if before == after {
		p.mu.Unlock()
		return
	}
	subs := make([]func(bool), 0, len(p.subs))
	for _,fn := range p.subs { subs = append(subs, fn) }
	p.mu.Unlock()

	for _,fn := range subs { fn(after) }
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
