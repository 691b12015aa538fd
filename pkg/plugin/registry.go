package plugin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Config describes a plugin at registration time.
type Config struct {
	Category     string          `validate:"required"`
	Capabilities []string        `validate:"dive,required"`
	Patterns     []string        `validate:"dive,required"`
	Keywords     []string        `validate:"dive,required"`
	Matchers     []IntentMatcher `validate:"-"`
	Priority     int             `validate:"gte=0,lte=100"`
	Handler      Plugin          `validate:"required"`
	Description  string
}

// Entry is a registered plugin. It is read-only after registration.
type Entry struct {
	Name         string
	Category     string
	Capabilities []string
	Matchers     []IntentMatcher
	Priority     int
	Handler      Plugin
	Description  string
	seq          int
}

// Matches reports whether any matcher accepts text.
func (e *Entry) Matches(text string) bool {
	for _, m := range e.Matchers {
		if m.Matches(text) {
			return true
		}
	}
	return false
}

// Provider is one entry in a capability's provider list.
type Provider struct {
	Name     string
	Priority int
	seq      int
}

// Registry catalogs plugins. Construct one with NewRegistry at startup and
// inject it; registration happens before concurrent reads begin.
type Registry struct {
	mu           sync.RWMutex
	entries      map[string]*Entry
	order        []*Entry
	byCategory   map[string][]*Entry
	capabilities map[string][]Provider
	intents      map[string][]string
	validate     *validator.Validate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:      make(map[string]*Entry),
		byCategory:   make(map[string][]*Entry),
		capabilities: make(map[string][]Provider),
		intents:      make(map[string][]string),
		validate:     validator.New(),
	}
}

// Register adds a plugin. It fails with *ConfigurationError when the config
// is invalid, a pattern does not compile or the name is already taken.
func (r *Registry) Register(name string, cfg Config) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ConfigurationError{Plugin: name, Reason: "name is required"}
	}
	if err := r.validate.Struct(cfg); err != nil {
		return &ConfigurationError{Plugin: name, Reason: describeValidation(err), Err: err}
	}

	matchers := make([]IntentMatcher, 0, len(cfg.Patterns)+len(cfg.Matchers)+1)
	for _, p := range cfg.Patterns {
		m, err := NewRegexMatcher(p)
		if err != nil {
			return &ConfigurationError{Plugin: name, Reason: "invalid intent pattern", Err: err}
		}
		matchers = append(matchers, m)
	}
	if len(cfg.Keywords) > 0 {
		matchers = append(matchers, NewKeywordMatcher(cfg.Keywords...))
	}
	for _, m := range cfg.Matchers {
		if m != nil {
			matchers = append(matchers, m)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return &ConfigurationError{Plugin: name, Reason: "already registered"}
	}

	entry := &Entry{
		Name:         name,
		Category:     cfg.Category,
		Capabilities: dedupe(cfg.Capabilities),
		Matchers:     matchers,
		Priority:     cfg.Priority,
		Handler:      cfg.Handler,
		Description:  cfg.Description,
		seq:          len(r.order),
	}
	r.entries[name] = entry
	r.order = append(r.order, entry)
	r.byCategory[entry.Category] = append(r.byCategory[entry.Category], entry)

	for _, tag := range entry.Capabilities {
		providers := append(r.capabilities[tag], Provider{Name: name, Priority: entry.Priority, seq: entry.seq})
		sort.SliceStable(providers, func(i, j int) bool {
			if providers[i].Priority != providers[j].Priority {
				return providers[i].Priority > providers[j].Priority
			}
			return providers[i].seq < providers[j].seq
		})
		r.capabilities[tag] = providers
	}
	for _, m := range matchers {
		key := m.String()
		r.intents[key] = append(r.intents[key], name)
	}
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(name string, cfg Config) {
	if err := r.Register(name, cfg); err != nil {
		panic(err)
	}
}

// Get returns the named plugin.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// List returns every plugin in registration order.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, len(r.order))
	copy(out, r.order)
	return out
}

// ByCategory returns the plugins of one category in registration order.
func (r *Registry) ByCategory(category string) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, len(r.byCategory[category]))
	copy(out, r.byCategory[category])
	return out
}

// Providers returns the plugins declaring capability, highest priority first.
func (r *Registry) Providers(capability string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, len(r.capabilities[capability]))
	copy(out, r.capabilities[capability])
	return out
}

// Capabilities returns every declared capability tag, sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.capabilities))
	for tag := range r.capabilities {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Patterns returns the intent index: matcher description to plugin names.
func (r *Registry) Patterns() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.intents))
	for k, v := range r.intents {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid config"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
