package syntax

import (
	"sort"
	"strings"
	"sync"
)

// Comments stores leading comments by the position of the node they precede.
// One store is shared by the pipeline and every transform run on a file.
type Comments struct {
	mu      sync.Mutex
	leading map[Pos][]string
}

func NewComments() *Comments { return &Comments{leading: map[Pos][]string{}} }

func (c *Comments) AddLeading(pos Pos, text string) {
	c.mu.Lock()
	c.leading[pos] = append(c.leading[pos], text)
	c.mu.Unlock()
}

func (c *Comments) Leading(pos Pos) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.leading[pos]...)
}

func (c *Comments) TakeLeading(pos Pos) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.leading[pos]
	delete(c.leading, pos)
	return out
}

// Find returns the first comment, in position order, that starts with prefix.
func (c *Comments) Find(prefix string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pos := range c.positionsLocked() {
		for _, s := range c.leading[pos] {
			if strings.HasPrefix(s, prefix) {
				return s, true
			}
		}
	}
	return "", false
}

// ReplaceLeading drops every comment starting with prefix, wherever it is
// attached, and prepends text to the comments at pos.
func (c *Comments) ReplaceLeading(pos Pos, prefix, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, list := range c.leading {
		kept := list[:0]
		for _, s := range list {
			if !strings.HasPrefix(s, prefix) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(c.leading, p)
		} else {
			c.leading[p] = kept
		}
	}
	c.leading[pos] = append([]string{text}, c.leading[pos]...)
}

// Reset replaces the whole content with a copy of other's.
func (c *Comments) Reset(other *Comments) {
	snapshot := other.Snapshot()
	c.mu.Lock()
	c.leading = snapshot
	c.mu.Unlock()
}

func (c *Comments) Snapshot() map[Pos][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Pos][]string, len(c.leading))
	for p, l := range c.leading {
		out[p] = append([]string(nil), l...)
	}
	return out
}

func (c *Comments) positionsLocked() []Pos {
	ps := make([]Pos, 0, len(c.leading))
	for p := range c.leading {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}
