package plugin

import "sort"

// Detector selects the plugins whose intent matchers accept a text.
type Detector struct {
	registry *Registry
}

// NewDetector returns a detector over reg.
func NewDetector(reg *Registry) *Detector {
	return &Detector{registry: reg}
}

// DetectActive returns matching plugins ordered by priority, then
// registration order. Plugins without matchers are never returned.
func (d *Detector) DetectActive(text string) []*Entry {
	var active []*Entry
	for _, e := range d.registry.List() {
		if len(e.Matchers) == 0 {
			continue
		}
		if e.Matches(text) {
			active = append(active, e)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority > active[j].Priority
		}
		return active[i].seq < active[j].seq
	})
	return active
}

// Filter returns the entries of the given category, preserving order.
func Filter(entries []*Entry, category string) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}
