// Package urlstate keeps addressable view state in the query string of the
// page address, so that a view can be shared and restored.
package urlstate

import(
	"net/url"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// Parameter names understood by the viewer.
const(
	TrackURL = "track" // URL of a track file; multiple
	TrackID  = "id"    // ID of a stored track; multiple
	Route    = "p"     // encoded route
	League   = "l"
	Speed    = "s"     // speed unit
)

// Store reads and rewrites the query parameters of an AddressBar. Every
// mutation replaces the current history entry, except Checkpoint.
type Store struct {
	Bar AddressBar
}

func New(bar AddressBar) *Store { return &Store{Bar:bar} }

// {{{ params

// params is the query string as an ordered multimap: names keep their first
// appearance order, values keep insertion order within a name.
type params struct {
	u *url.URL
	m *orderedmap.OrderedMap
}

// A location that does not parse behaves as an empty one.
func (s *Store)load() params {
	u,err := url.Parse(s.Bar.Location())
	if err != nil { u = &url.URL{} }

	m := orderedmap.New()
	for _,pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" { continue }
		k,v,_ := strings.Cut(pair, "=")
		name, value := unescape(k), unescape(v)
		if name == "" { continue }
		p := params{m:m}
		p.set(name, append(p.get(name), value))
	}
	return params{u:u, m:m}
}

// unescape decodes a query component the way browsers do: a '%' that does
// not start a valid escape is kept literally, so the pair survives rewrites.
func unescape(s string) string {
	if v,err := url.QueryUnescape(s); err == nil { return v }

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '+' {
			b.WriteByte(' ')
			continue
		}
		if c == '%' && i+2 < len(s) {
			if n,err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (p params)get(name string) []string {
	if v,exists := p.m.Get(name); exists {
		return append([]string{}, v.([]string)...)
	}
	return nil
}

func (p params)set(name string, values []string) {
	if len(values) == 0 {
		p.m.Delete(name)
		return
	}
	p.m.Set(name, values)
}

func (p params)encode() string {
	pairs := []string{}
	for _,name := range p.m.Keys() {
		for _,v := range p.get(name) {
			pairs = append(pairs, url.QueryEscape(name) + "=" + url.QueryEscape(v))
		}
	}
	return strings.Join(pairs, "&")
}

func (s *Store)save(p params) {
	p.u.RawQuery = p.encode()
	s.Bar.Replace(p.u.String())
}

// }}}

// {{{ s.Values

// Values returns every value of the parameter, in insertion order.
func (s *Store)Values(name string) []string {
	return s.load().get(name)
}

// }}}
// {{{ s.Set

// Set replaces all the values of the parameter with a single one.
func (s *Store)Set(name, value string) {
	p := s.load()
	p.set(name, []string{value})
	s.save(p)
}

// }}}
// {{{ s.Add, s.AddValues

// Add appends a value, unless the parameter already has it.
func (s *Store)Add(name, value string) {
	p := s.load()
	values := p.get(name)
	for _,v := range values {
		if v == value {
			s.save(p)
			return
		}
	}
	p.set(name, append(values, value))
	s.save(p)
}

func (s *Store)AddValues(name string, values []string) {
	for _,v := range values {
		s.Add(name, v)
	}
}

// }}}
// {{{ s.Delete, s.DeleteValue

// Delete removes every value of the parameter.
func (s *Store)Delete(name string) {
	p := s.load()
	p.set(name, nil)
	s.save(p)
}

// DeleteValue removes one occurrence of value, keeping the order of the
// others. It reports whether anything was removed.
func (s *Store)DeleteValue(name, value string) bool {
	p := s.load()
	values := p.get(name)
	for i,v := range values {
		if v == value {
			p.set(name, append(values[:i], values[i+1:]...))
			s.save(p)
			return true
		}
	}
	s.save(p)
	return false
}

// }}}
// {{{ s.HasAnyOf, s.HasTrackOrRoute

func (s *Store)HasAnyOf(names ...string) bool {
	p := s.load()
	for _,name := range names {
		if len(p.get(name)) > 0 { return true }
	}
	return false
}

// HasTrackOrRoute is true when the address points at something the viewer
// should center on.
func (s *Store)HasTrackOrRoute() bool {
	return s.HasAnyOf(TrackID, TrackURL, Route)
}

// }}}
// {{{ s.Checkpoint, s.Location

// Checkpoint pushes the current address as a new history entry, marking a
// point the user can come back to.
func (s *Store)Checkpoint() {
	s.Bar.Push(s.Bar.Location())
}

func (s *Store)Location() string { return s.Bar.Location() }

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
