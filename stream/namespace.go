package stream

// nsBinding is one prefix-to-URI mapping.
type nsBinding struct {
	prefix string
	uri    string
}

// nsStack tracks in-scope namespace bindings. Bindings live in a flat
// slice; counts records how many were declared at each element depth so
// pop can drop exactly one scope. The current default-namespace URI is
// kept denormalized and recomputed by a backward scan when a scope that
// declared it unwinds.
type nsStack struct {
	bindings   []nsBinding
	counts     []int
	defaultURI string
}

// push opens a new scope containing decls.
func (ns *nsStack) push(decls []nsBinding) {
	ns.counts = append(ns.counts, len(decls))
	for _, d := range decls {
		ns.bindings = append(ns.bindings, d)
		if d.prefix == "" {
			ns.defaultURI = d.uri
		}
	}
}

// pop closes the innermost scope.
func (ns *nsStack) pop() {
	if len(ns.counts) == 0 {
		return
	}
	n := ns.counts[len(ns.counts)-1]
	ns.counts = ns.counts[:len(ns.counts)-1]
	recompute := false
	for i := 0; i < n; i++ {
		b := ns.bindings[len(ns.bindings)-1]
		ns.bindings = ns.bindings[:len(ns.bindings)-1]
		if b.prefix == "" {
			recompute = true
		}
	}
	if recompute {
		ns.defaultURI = ""
		for i := len(ns.bindings) - 1; i >= 0; i-- {
			if ns.bindings[i].prefix == "" {
				ns.defaultURI = ns.bindings[i].uri
				break
			}
		}
	}
}

// addToScope declares one extra binding in the innermost open scope.
func (ns *nsStack) addToScope(b nsBinding) {
	ns.bindings = append(ns.bindings, b)
	if len(ns.counts) > 0 {
		ns.counts[len(ns.counts)-1]++
	}
	if b.prefix == "" {
		ns.defaultURI = b.uri
	}
}

// prefixFor finds an in-scope non-default prefix currently bound to
// uri. Bindings shadowed by an inner redeclaration are skipped.
func (ns *nsStack) prefixFor(uri string) (string, bool) {
	for i := len(ns.bindings) - 1; i >= 0; i-- {
		b := ns.bindings[i]
		if b.prefix == "" || b.uri != uri {
			continue
		}
		if got, ok := ns.lookup(b.prefix); ok && got == uri {
			return b.prefix, true
		}
	}
	return "", false
}

// lookup resolves prefix to a URI in the current scope.
func (ns *nsStack) lookup(prefix string) (string, bool) {
	if prefix == "" {
		return ns.defaultURI, ns.defaultURI != ""
	}
	if prefix == "xml" {
		return "http://www.w3.org/XML/1998/namespace", true
	}
	for i := len(ns.bindings) - 1; i >= 0; i-- {
		if ns.bindings[i].prefix == prefix {
			return ns.bindings[i].uri, true
		}
	}
	return "", false
}

// reset clears all scopes for reuse.
func (ns *nsStack) reset() {
	ns.bindings = ns.bindings[:0]
	ns.counts = ns.counts[:0]
	ns.defaultURI = ""
}
