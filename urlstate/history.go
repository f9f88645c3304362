package urlstate

import "sync"

// AddressBar is the page address plus its navigation history.
type AddressBar interface {
	Location() string
	Replace(url string) // rewrite the current history entry
	Push(url string)    // add a new history entry
}

// {{{ History

// History is an in-memory AddressBar with a back stack.
type History struct {
	mu      sync.Mutex
	entries []string
}

func NewHistory(initial string) *History {
	return &History{entries:[]string{initial}}
}

func (h *History)Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

func (h *History)Replace(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[len(h.entries)-1] = url
}

func (h *History)Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, url)
}

// Back pops the current entry; it returns false when there is nowhere to go.
func (h *History)Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 { return false }
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

func (h *History)Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
