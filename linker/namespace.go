package linker

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/canonabi/call"
)

// Version is a semantic version attached to an interface namespace.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// ParseVersion parses "0.2.0", "0.2" or "1".
func ParseVersion(s string) (Version, bool) {
	if s == "" {
		return Version{}, false
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, false
	}

	var nums [3]uint32
	for i, p := range parts {
		if p == "" || p[0] == '+' || p[0] == '-' {
			return Version{}, false
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, false
		}
		nums[i] = uint32(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, true
}

// Compatible reports whether v can serve a request for want: same major,
// and not older than want.
func (v Version) Compatible(want Version) bool {
	if v.Major != want.Major {
		return false
	}
	if v.Minor != want.Minor {
		return v.Minor > want.Minor
	}
	return v.Patch >= want.Patch
}

func (v Version) newer(o Version) bool {
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v Version) String() string {
	return strconv.FormatUint(uint64(v.Major), 10) + "." +
		strconv.FormatUint(uint64(v.Minor), 10) + "." +
		strconv.FormatUint(uint64(v.Patch), 10)
}

// Namespace is one node of an interface path such as
// "test:resource-floats/test@0.1.0", holding the call targets defined there.
type Namespace struct {
	version  *Version
	targets  map[string]call.Target
	children map[string]*Namespace
	parent   *Namespace
	name     string
	mu       sync.RWMutex
}

// NewNamespace creates a root namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		targets:  make(map[string]call.Target),
		children: make(map[string]*Namespace),
	}
}

func (ns *Namespace) Name() string {
	return ns.name
}

// Version returns the namespace version, or nil if unversioned.
func (ns *Namespace) Version() *Version {
	return ns.version
}

// FullPath returns the path from the root, e.g. "test:lists/test@0.1.0".
func (ns *Namespace) FullPath() string {
	self := ns.name
	if ns.version != nil {
		self += "@" + ns.version.String()
	}
	if ns.parent == nil {
		return ns.name
	}
	if p := ns.parent.FullPath(); p != "" {
		return p + "/" + self
	}
	return self
}

// Instance returns the child namespace for name, creating it if needed.
// name may carry a version: "streams@0.2.0".
func (ns *Namespace) Instance(name string) *Namespace {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	parsed, version := parseNameVersion(name)
	key := parsed
	if version != nil {
		key = parsed + "@" + version.String()
	}
	if child, ok := ns.children[key]; ok {
		return child
	}

	child := &Namespace{
		name:     parsed,
		version:  version,
		targets:  make(map[string]call.Target),
		children: make(map[string]*Namespace),
		parent:   ns,
	}
	ns.children[key] = child
	return child
}

// Define binds name to t, replacing any earlier binding.
func (ns *Namespace) Define(name string, t call.Target) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.targets[name] = t
}

// Target returns the target bound to name, or nil.
func (ns *Namespace) Target(name string) call.Target {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.targets[name]
}

// Resolve looks up "ns/path@version#func", accepting a semver-compatible
// version when the exact one is absent.
func (ns *Namespace) Resolve(path string) call.Target {
	return ns.resolve(path, true)
}

// ResolveExact is like Resolve but requires the exact version.
func (ns *Namespace) ResolveExact(path string) call.Target {
	return ns.resolve(path, false)
}

func (ns *Namespace) resolve(path string, semver bool) call.Target {
	idx := strings.LastIndex(path, "#")
	if idx < 0 {
		return nil
	}
	target := ns.walk(path[:idx], semver)
	if target == nil {
		return nil
	}
	return target.Target(path[idx+1:])
}

func (ns *Namespace) walk(path string, semver bool) *Namespace {
	current := ns
	for _, seg := range splitPath(path) {
		next := current.step(seg, semver)
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

func (ns *Namespace) step(seg pathSegment, semver bool) *Namespace {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if seg.version == nil {
		return ns.children[seg.name]
	}
	if child, ok := ns.children[seg.name+"@"+seg.version.String()]; ok {
		return child
	}
	if !semver {
		return nil
	}

	var best *Namespace
	for key, child := range ns.children {
		if !strings.HasPrefix(key, seg.name+"@") || child.version == nil {
			continue
		}
		if !child.version.Compatible(*seg.version) {
			continue
		}
		if best == nil || child.version.newer(*best.version) {
			best = child
		}
	}
	return best
}

// Names returns the names of the targets defined directly in ns, sorted.
func (ns *Namespace) Names() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	out := make([]string, 0, len(ns.targets))
	for name := range ns.targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Children returns a snapshot of the child namespaces keyed by "name" or
// "name@version".
func (ns *Namespace) Children() map[string]*Namespace {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	out := make(map[string]*Namespace, len(ns.children))
	for k, v := range ns.children {
		out[k] = v
	}
	return out
}

type pathSegment struct {
	version *Version
	name    string
}

// splitPath splits "pkg:name/iface@1.0" into segments; the package prefix
// up to the first slash after the colon stays one segment.
func splitPath(path string) []pathSegment {
	if path == "" {
		return nil
	}
	var segs []pathSegment
	if colon := strings.Index(path, ":"); colon > 0 {
		slash := strings.Index(path[colon:], "/")
		if slash < 0 {
			return []pathSegment{parseSegment(path)}
		}
		segs = append(segs, parseSegment(path[:colon+slash]))
		path = path[colon+slash+1:]
	}
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			segs = append(segs, parseSegment(part))
		}
	}
	return segs
}

func parseSegment(s string) pathSegment {
	name, version := parseNameVersion(s)
	return pathSegment{name: name, version: version}
}

// parseNameVersion splits "name@version". An unparsable version leaves the
// whole string as the name.
func parseNameVersion(s string) (string, *Version) {
	idx := strings.LastIndex(s, "@")
	if idx < 0 {
		return s, nil
	}
	if v, ok := ParseVersion(s[idx+1:]); ok {
		return s[:idx], &v
	}
	return s, nil
}
