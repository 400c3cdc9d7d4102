package xmlcodec

import (
	"reflect"
	"sync"
)

// Registry resolves a runtime type to the Format that reads and writes
// it. Formats live in two tiers: static defaults, registered once at
// process start, and scoped overrides, pushed and popped around a
// bounded stretch of work. A matching override wins over any static
// format, regardless of specificity.
//
// Registration is rare and mutex-guarded. Resolution is frequent and
// cached per concrete type; any registration invalidates the whole
// cache, which is cheap because registration is rare. A momentarily
// stale cache only causes a redundant recompute, never a wrong answer.
type Registry struct {
	mu        sync.RWMutex
	static    map[reflect.Type]Format
	overrides []registryEntry
	order     []registryEntry // static tier in registration order
	cache     map[reflect.Type]*resolution
	bound     map[Format]reflect.Type
}

type registryEntry struct {
	typ reflect.Type
	f   Format
}

// resolution is the cached outcome for one concrete type: the chosen
// format plus the full compatibility chain, most to least specific,
// which backs Super.
type resolution struct {
	format Format
	chain  []Format
}

// NewRegistry creates a registry pre-populated with the built-in
// formats (scalars, sequences, mappings).
func NewRegistry() *Registry {
	r := &Registry{
		static: make(map[reflect.Type]Format),
		cache:  make(map[reflect.Type]*resolution),
		bound:  make(map[Format]reflect.Type),
	}
	registerBuiltins(r)
	return r
}

// Register binds a static format to typ. Registering two static
// formats for one type is a programming error and panics with
// *RegistrationError. A format with explicit reference semantics must
// implement Allocator; one that does not also panics, at registration
// rather than at an arbitrary point mid-read.
func (r *Registry) Register(typ reflect.Type, f Format) {
	typ = indirectType(typ)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.static[typ]; ok {
		panic(&RegistrationError{Type: typ})
	}
	requireAllocatable(typ, f)
	r.static[typ] = f
	r.order = append(r.order, registryEntry{typ: typ, f: f})
	r.bound[f] = typ
	r.cache = make(map[reflect.Type]*resolution)
}

// SetOverride pushes a scoped format for typ. It shadows the static
// default without removing it and can be reverted with ClearOverride.
func (r *Registry) SetOverride(typ reflect.Type, f Format) {
	typ = indirectType(typ)
	r.mu.Lock()
	defer r.mu.Unlock()
	requireAllocatable(typ, f)
	r.overrides = append(r.overrides, registryEntry{typ: typ, f: f})
	r.bound[f] = typ
	r.cache = make(map[reflect.Type]*resolution)
}

// ClearOverride removes the most recent override for typ.
func (r *Registry) ClearOverride(typ reflect.Type) {
	typ = indirectType(typ)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.overrides) - 1; i >= 0; i-- {
		if r.overrides[i].typ == typ {
			r.overrides = append(r.overrides[:i], r.overrides[i+1:]...)
			break
		}
	}
	r.cache = make(map[reflect.Type]*resolution)
}

// Resolve returns the format for typ: the most specific match among
// registered formats, with overrides in a higher-precedence tier.
// Types matching nothing get the built-in empty-element default.
func (r *Registry) Resolve(typ reflect.Type) Format {
	r.mu.RLock()
	if res, ok := r.cache[typ]; ok {
		r.mu.RUnlock()
		return res.format
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.cache[typ]; ok {
		return res.format
	}
	res := r.resolveLocked(typ)
	r.cache[typ] = res
	return res.format
}

// Super returns the format that would have matched f's own bound type
// had f not been registered. It lets a subtype's format delegate to
// supertype behavior without static inheritance.
func (r *Registry) Super(f Format) (Format, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	typ, ok := r.bound[f]
	if !ok {
		return nil, false
	}
	res, ok := r.cache[typ]
	if !ok {
		res = r.resolveLocked(typ)
		r.cache[typ] = res
	}
	for i, c := range res.chain {
		if c == f && i+1 < len(res.chain) {
			return res.chain[i+1], true
		}
	}
	return nil, false
}

func (r *Registry) resolveLocked(typ reflect.Type) *resolution {
	var chain []Format
	chain = appendMatches(chain, r.overrides, typ)
	chain = appendMatches(chain, r.order, typ)
	if len(chain) == 0 {
		return &resolution{format: defaultEmptyFormat, chain: []Format{defaultEmptyFormat}}
	}
	chain = append(chain, defaultEmptyFormat)
	return &resolution{format: chain[0], chain: chain}
}

// appendMatches collects the entries whose bound type is
// assignable-from typ, ordered most to least specific. Later entries
// win specificity ties, so the newest override shadows older ones.
func appendMatches(chain []Format, entries []registryEntry, typ reflect.Type) []Format {
	var matched []registryEntry
	for _, e := range entries {
		if matchesType(typ, e.typ) {
			matched = append(matched, e)
		}
	}
	// Selection by specificity: a candidate replaces the current best
	// iff the best's bound type is assignable from the candidate's.
	for len(matched) > 0 {
		best := 0
		for i := 1; i < len(matched); i++ {
			if assignable(matched[i].typ, matched[best].typ) {
				best = i
			}
		}
		chain = append(chain, matched[best].f)
		matched = append(matched[:best], matched[best+1:]...)
	}
	return chain
}

// matchesType reports whether a format bound to bound can handle typ.
// Pointer types also match formats bound to their element type.
func matchesType(typ, bound reflect.Type) bool {
	if assignable(typ, bound) {
		return true
	}
	if typ.Kind() == reflect.Ptr && assignable(typ.Elem(), bound) {
		return true
	}
	return false
}

func assignable(from, to reflect.Type) bool {
	if from == to {
		return true
	}
	if to.Kind() == reflect.Interface {
		if from.AssignableTo(to) {
			return true
		}
		return reflect.PtrTo(from).AssignableTo(to)
	}
	return from.AssignableTo(to)
}

// requireAllocatable enforces that a format with reference semantics
// can produce instances before their body parses. Failing here, at
// registration, beats failing at an arbitrary point mid-read.
func requireAllocatable(typ reflect.Type, f Format) {
	if !referenceable(f) {
		return
	}
	if _, ok := f.(Allocator); !ok {
		panic(&RegistrationError{Type: typ, Err: ErrNotAllocatable})
	}
}

// BoundType reports the type a format was registered for.
func (r *Registry) BoundType(f Format) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.bound[f]
	return typ, ok
}
