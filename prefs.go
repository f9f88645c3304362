package livetrack

import(
	"sync"

	"github.com/skypies/livetrack/units"
)

// DisplayPreferences are the viewer's display choices. The overlay only ever
// sees copies of them.
type DisplayPreferences struct {
	DisplayNames bool         `json:"displayNames"`
	Units        units.System `json:"units"`
}

var DefaultPreferences = DisplayPreferences{DisplayNames:true, Units:units.Default}

// {{{ PrefsStore

// PrefsStore owns the shared preferences and tells subscribers when they change.
type PrefsStore struct {
	notifyMu sync.Mutex // held from an update until its subscribers return
	mu       sync.Mutex
	p        DisplayPreferences
	subs     map[int]func(DisplayPreferences)
	next     int
}

func NewPrefsStore(p DisplayPreferences) *PrefsStore {
	return &PrefsStore{p:p, subs:map[int]func(DisplayPreferences){}}
}

func (s *PrefsStore)Get() DisplayPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

// Subscribe registers fn to be called with a snapshot after every change. The
// returned func removes the subscription.
func (s *PrefsStore)Subscribe(fn func(DisplayPreferences)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Update applies fn to a copy of the preferences; subscribers run only if
// something actually changed. Updates are serialized through delivery, so
// the last snapshot a subscriber sees is the stored one. Subscribers must not
// call Update.
func (s *PrefsStore)Update(fn func(*DisplayPreferences)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	p := s.p
	fn(&p)
	if p == s.p {
		s.mu.Unlock()
		return
	}
	s.p = p
	subs := make([]func(DisplayPreferences), 0, len(s.subs))
	for _,sub := range s.subs { subs = append(subs, sub) }
	s.mu.Unlock()

	for _,sub := range subs { sub(p) }
}

func (s *PrefsStore)SetDisplayNames(show bool) {
	s.Update(func(p *DisplayPreferences) { p.DisplayNames = show })
}

func (s *PrefsStore)SetUnits(u units.System) {
	s.Update(func(p *DisplayPreferences) { p.Units = u.Normalized() })
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
