// Package registry maps (document type, template key) pairs to content
// generators. Templates register themselves in init() functions, so the
// archive can generate documents without hardcoding every text table.
//
// Lookups never fail: a missing key falls back to a random generic template
// for the type, and a type without generics falls back to a minimal record.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vovakirdan/signal-archive/internal/core"
)

// Type is a document type such as "transmission".
type Type string

// Built-in document types.
const (
	Transmission Type = "transmission"
	Intercept    Type = "intercept"
	Narrative    Type = "narrative"
)

// Context is everything a template may draw on when producing content.
type Context struct {
	DocID      string    // ID of the document being generated
	Seq        int       // Sequence number of the document being generated
	Frequency  string    // Source tag, usually a decoder ID
	Now        time.Time // Creation time
	Rand       core.Rand // Random source for all draws
	PriorCount int       // Documents that existed before this one

	// Ref formats the ID of an earlier document by sequence number.
	Ref func(seq int) string
}

// PriorRef returns the ID of a random earlier document. Only sequence numbers
// in [0, PriorCount) are ever chosen; with no prior documents it returns "".
func (c Context) PriorRef() string {
	if c.PriorCount <= 0 || c.Rand == nil {
		return ""
	}
	seq := c.Rand.Intn(c.PriorCount)
	if c.Ref == nil {
		return fmt.Sprintf("#%d", seq)
	}
	return c.Ref(seq)
}

// Template produces document content.
type Template func(ctx Context) string

// Registry holds keyed and generic templates per type. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	keyed   map[Type]map[string]Template
	generic map[Type][]Template
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		keyed:   make(map[Type]map[string]Template),
		generic: make(map[Type][]Template),
	}
}

// Register adds a keyed template.
// Panics if the (type, key) pair is already registered.
func (r *Registry) Register(typ Type, key string, t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byKey, ok := r.keyed[typ]
	if !ok {
		byKey = make(map[string]Template)
		r.keyed[typ] = byKey
	}
	if _, exists := byKey[key]; exists {
		panic(fmt.Sprintf("registry: template %s/%q already registered", typ, key))
	}
	byKey[key] = t
}

// RegisterGeneric appends templates to the generic pool of a type.
func (r *Registry) RegisterGeneric(typ Type, ts ...Template) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generic[typ] = append(r.generic[typ], ts...)
}

// Lookup returns the keyed template for (typ, key). A miss is not an error.
func (r *Registry) Lookup(typ Type, key string) (Template, bool) {
	if key == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.keyed[typ][key]
	return t, ok
}

// Pick returns a uniformly chosen generic template for typ.
func (r *Registry) Pick(typ Type, rng core.Rand) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool := r.generic[typ]
	if len(pool) == 0 {
		return nil, false
	}
	return pool[rng.Intn(len(pool))], true
}

// Resolve returns the keyed template if present, else a random generic one,
// else Fallback.
func (r *Registry) Resolve(typ Type, key string, rng core.Rand) Template {
	if t, ok := r.Lookup(typ, key); ok {
		return t
	}
	if t, ok := r.Pick(typ, rng); ok {
		return t
	}
	return Fallback
}

// Keys returns the registered keys of a type, sorted.
func (r *Registry) Keys(typ Type) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.keyed[typ]))
	for k := range r.keyed[typ] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Generics returns the size of the generic pool of a type.
func (r *Registry) Generics(typ Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.generic[typ])
}

// Fallback is the minimal record used when no template matches.
func Fallback(ctx Context) string {
	return fmt.Sprintf("FREQUENCY: %s\nTIMESTAMP: %s", ctx.Frequency, ctx.Now.UTC().Format(time.RFC3339))
}

// Default is the registry the built-in templates register into.
var Default = New()

// Register adds a keyed template to Default.
func Register(typ Type, key string, t Template) {
	Default.Register(typ, key, t)
}

// RegisterGeneric adds generic templates to Default.
func RegisterGeneric(typ Type, ts ...Template) {
	Default.RegisterGeneric(typ, ts...)
}
