package security

import (
	"strings"
)

// DefaultNamespaces are the top-level virtual directories exposed when the
// configuration does not name its own set.
var DefaultNamespaces = []string{"/data", "/meta"}

// PathValidator rejects structurally invalid or traversal-bearing virtual
// paths before they reach a command handler or the backend. It holds only the
// namespace allow-list and never consults network or file state.
type PathValidator struct {
	namespaces []string
}

// NewPathValidator creates a validator for the given top-level namespaces.
// Entries are normalized; empty or relative entries are ignored.
func NewPathValidator(namespaces []string) *PathValidator {
	if len(namespaces) == 0 {
		namespaces = DefaultNamespaces
	}
	v := &PathValidator{}
	for _, ns := range namespaces {
		ns = Normalize(ns)
		if ns == "" || ns == "/" || !strings.HasPrefix(ns, "/") {
			continue
		}
		v.namespaces = append(v.namespaces, ns)
	}
	return v
}

// Normalize collapses repeated separators and strips a trailing slash.
// It deliberately leaves ".." segments in place so Validate can reject them
// instead of silently resolving a traversal attempt.
func Normalize(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Validate reports whether p is a well-formed absolute virtual path inside an
// allowed namespace. Deterministic and side-effect free.
func (v *PathValidator) Validate(p string) bool {
	if p == "" {
		return false
	}
	if strings.ContainsAny(p, "\\\x00\r\n") {
		return false
	}
	p = Normalize(p)
	if !strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(p[1:], "/") {
		if seg == ".." {
			return false
		}
	}
	if p == "/" {
		return true
	}
	for _, ns := range v.namespaces {
		if p == ns || strings.HasPrefix(p, ns+"/") {
			return true
		}
	}
	return false
}

// Namespaces returns the configured allow-list.
func (v *PathValidator) Namespaces() []string {
	return v.namespaces
}
