package xmlcodec

import (
	"reflect"
	"strings"
	"sync"
)

// URIScheme prefixes the namespace URI derived from a bound package
// import path.
const URIScheme = "go:"

// FallbackPrefix qualifies elements of types whose package matched no
// declared prefix.
const FallbackPrefix = "j"

// DefaultTypeAttribute is the local name of the attribute carrying an
// explicit type name when the element's own tag name is
// application-chosen.
const DefaultTypeAttribute = "class"

// NullElement is the canonical element name for a nil value.
const NullElement = "null"

// Binding maps runtime types to wire-level names and namespaces. It
// holds the alias table (bijective), the package-to-prefix table, and
// the type-carrying attribute configuration.
//
// All declarations must happen before any read or write begins;
// declaration is mutex-guarded, lookups tolerate concurrent use.
type Binding struct {
	mu        sync.RWMutex
	aliases   map[reflect.Type]string
	reverse   map[string]reflect.Type
	types     map[string]reflect.Type // qualified name -> type
	prefixes  []packagePrefix         // declaration order is a tie-breaker
	names     map[reflect.Type]string // lazy qualified-name cache
	classAttr string
	classURI  string
}

type packagePrefix struct {
	prefix string
	pkg    string
}

// NewBinding creates an empty binding with the default type-carrying
// attribute.
func NewBinding() *Binding {
	b := &Binding{
		aliases:   make(map[reflect.Type]string),
		reverse:   make(map[string]reflect.Type),
		types:     make(map[string]reflect.Type),
		names:     make(map[reflect.Type]string),
		classAttr: DefaultTypeAttribute,
	}
	for _, typ := range builtinTypes {
		b.types[qualifiedName(typ)] = typ
	}
	return b
}

// SetTypeAttribute configures the attribute used to carry an explicit
// type name. The default is local name "class" with no namespace.
func (b *Binding) SetTypeAttribute(local, uri string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.classAttr = local
	b.classURI = uri
}

// TypeAttribute returns the configured type-carrying attribute.
func (b *Binding) TypeAttribute() (local, uri string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.classAttr, b.classURI
}

// Alias binds typ to a wire alias. The mapping is bijective: rebinding
// either side removes the stale entry for the other.
func (b *Binding) Alias(typ reflect.Type, alias string) {
	typ = indirectType(typ)
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.aliases[typ]; ok {
		delete(b.reverse, old)
	}
	if old, ok := b.reverse[alias]; ok {
		delete(b.aliases, old)
	}
	b.aliases[typ] = alias
	b.reverse[alias] = typ
	b.types[qualifiedName(typ)] = typ
	delete(b.names, typ)
}

// RegisterType makes typ resolvable from its wire identity without an
// alias. Format registration does this implicitly.
func (b *Binding) RegisterType(typ reflect.Type) {
	typ = indirectType(typ)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.types[qualifiedName(typ)] = typ
}

// DeclarePrefix associates a namespace prefix with a package import
// path. Types in that package (or below it) qualify with the prefix.
func (b *Binding) DeclarePrefix(prefix, pkg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prefixes = append(b.prefixes, packagePrefix{prefix: prefix, pkg: pkg})
}

// NameFor returns the wire name for typ: its alias if registered, its
// fully-qualified name otherwise. The result is what the type-carrying
// attribute holds.
func (b *Binding) NameFor(typ reflect.Type) string {
	typ = indirectType(typ)
	b.mu.RLock()
	if alias, ok := b.aliases[typ]; ok {
		b.mu.RUnlock()
		return alias
	}
	if name, ok := b.names[typ]; ok {
		b.mu.RUnlock()
		return name
	}
	b.mu.RUnlock()

	name := qualifiedName(typ)
	b.mu.Lock()
	b.names[typ] = name
	b.types[name] = typ
	b.mu.Unlock()
	return name
}

// ElementName produces the qualified element identity for typ: local
// name (alias or bare type name), namespace prefix, and namespace URI.
// The prefix is the one declared for the longest package match, ties
// broken by declaration order; unmatched packages use FallbackPrefix.
func (b *Binding) ElementName(typ reflect.Type) (prefix, local, uri string) {
	typ = indirectType(typ)
	b.mu.RLock()
	defer b.mu.RUnlock()

	local = typ.Name()
	if alias, ok := b.aliases[typ]; ok {
		local = alias
	}
	pkg := typ.PkgPath()
	if pkg == "" {
		// Predeclared types have no import path; qualifying them
		// would produce a degenerate URI.
		return "", local, ""
	}
	uri = URIScheme + pkg
	prefix = FallbackPrefix
	best := -1
	for _, p := range b.prefixes {
		if len(p.pkg) > best && (pkg == p.pkg || strings.HasPrefix(pkg, p.pkg)) {
			prefix = p.prefix
			best = len(p.pkg)
		}
	}
	return prefix, local, uri
}

// TypeForName resolves a type-carrying attribute value: first the alias
// table, then the registered-type table by qualified name.
func (b *Binding) TypeForName(name string) (reflect.Type, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if typ, ok := b.reverse[name]; ok {
		return typ, nil
	}
	if typ, ok := b.types[name]; ok {
		return typ, nil
	}
	return nil, newTypeError("", name)
}

// TypeForElement resolves an element's wire identity (namespaceUri,
// localName) to a runtime type. Aliases match on the local name alone;
// otherwise the URI's package plus the local name must name a
// registered type.
func (b *Binding) TypeForElement(uri, local string) (reflect.Type, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if typ, ok := b.reverse[local]; ok {
		return typ, nil
	}
	if pkg, ok := strings.CutPrefix(uri, URIScheme); ok {
		if typ, ok := b.types[pkg+"."+local]; ok {
			return typ, nil
		}
	}
	if typ, ok := b.types[local]; ok {
		return typ, nil
	}
	return nil, newTypeError(uri, local)
}

// qualifiedName is the canonical fully-qualified name of a type:
// import path, a dot, and the bare type name.
func qualifiedName(typ reflect.Type) string {
	if pkg := typ.PkgPath(); pkg != "" {
		return pkg + "." + typ.Name()
	}
	return typ.String()
}

func indirectType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
