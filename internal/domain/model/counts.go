package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Counts is a name -> count mapping that remembers insertion order.
// Iteration order matters to name normalization, so a plain map is not enough.
type Counts struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewCounts returns an empty Counts.
func NewCounts() *Counts {
	return &Counts{m: orderedmap.New[string, int]()}
}

// CountsOf builds Counts from pairs, keeping argument order.
func CountsOf(pairs ...Pair) *Counts {
	c := NewCounts()
	for _, p := range pairs {
		c.Set(p.Name, p.Count)
	}
	return c
}

// Pair is one Counts entry.
type Pair struct {
	Name  string
	Count int
}

func (c *Counts) init() {
	if c.m == nil {
		c.m = orderedmap.New[string, int]()
	}
}

// Inc adds one to name, inserting it at the end when new.
func (c *Counts) Inc(name string) {
	c.Add(name, 1)
}

// Add adds n to name, inserting it at the end when new.
func (c *Counts) Add(name string, n int) {
	c.init()
	cur, _ := c.m.Get(name)
	c.m.Set(name, cur+n)
}

// Set stores n under name. Existing keys keep their position.
func (c *Counts) Set(name string, n int) {
	c.init()
	c.m.Set(name, n)
}

// Get returns the count for name.
func (c *Counts) Get(name string) (int, bool) {
	if c == nil || c.m == nil {
		return 0, false
	}
	return c.m.Get(name)
}

// Delete removes name.
func (c *Counts) Delete(name string) {
	if c == nil || c.m == nil {
		return
	}
	c.m.Delete(name)
}

// Len returns the number of names.
func (c *Counts) Len() int {
	if c == nil || c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Pairs returns the entries in insertion order.
func (c *Counts) Pairs() []Pair {
	out := make([]Pair, 0, c.Len())
	if c.Len() == 0 {
		return out
	}
	for p := c.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, Pair{Name: p.Key, Count: p.Value})
	}
	return out
}

// Map copies the entries into a builtin map. Order is lost.
func (c *Counts) Map() map[string]int {
	out := make(map[string]int, c.Len())
	for _, p := range c.Pairs() {
		out[p.Name] = p.Count
	}
	return out
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (c *Counts) MarshalJSON() ([]byte, error) {
	c.init()
	return c.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (c *Counts) UnmarshalJSON(data []byte) error {
	c.init()
	return c.m.UnmarshalJSON(data)
}
