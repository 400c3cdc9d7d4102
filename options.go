package xmlcodec

import "sync"

// Option configures an ObjectReader or ObjectWriter at construction.
type Option func(*config)

type config struct {
	binding   *Binding
	registry  *Registry
	refs      *ReferenceResolver
	expand    bool
	classAttr string
	classURI  string
	classSet  bool
}

func buildConfig(opts ...Option) config {
	cfg := config{
		binding:  DefaultBinding(),
		registry: DefaultRegistry(),
		refs:     NewReferenceResolver(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithBinding uses b instead of the process-wide default binding.
func WithBinding(b *Binding) Option {
	return func(c *config) { c.binding = b }
}

// WithRegistry uses r instead of the process-wide default registry.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithIDAttributes reconfigures the identifier and reference attribute
// names for the pass.
func WithIDAttributes(id, ref string) Option {
	return func(c *config) { c.refs.SetAttributes(id, ref) }
}

// WithTypeAttribute reconfigures the type-carrying attribute for the
// pass without touching the binding's own default.
func WithTypeAttribute(local, uri string) Option {
	return func(c *config) {
		c.classAttr = local
		c.classURI = uri
		c.classSet = true
	}
}

// WithExpandReferences makes the writer re-emit the body of an
// already-visited object instead of a reference stub, except where
// that would recurse forever (cycles still emit stubs).
func WithExpandReferences() Option {
	return func(c *config) { c.expand = true }
}

var (
	defaultsMu      sync.RWMutex
	defaultRegistry = NewRegistry()
	defaultBinding  = NewBinding()
)

// DefaultRegistry returns the process-wide format registry. Static
// registration into it must happen before any read or write begins.
func DefaultRegistry() *Registry {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultRegistry
}

// DefaultBinding returns the process-wide binding.
func DefaultBinding() *Binding {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaultBinding
}

// ResetDefaults replaces the process-wide registry and binding with
// fresh ones. This is primarily useful for test isolation.
func ResetDefaults() {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultRegistry = NewRegistry()
	defaultBinding = NewBinding()
}
