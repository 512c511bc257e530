package shape

import "strings"

// Path is the ordered list of properties leading from the aggregate root to a
// nested position. The zero Path is the root itself. Paths are immutable;
// Extend always copies.
type Path struct {
	segments []*Property
}

// RootPath returns the empty path.
func RootPath() Path {
	return Path{}
}

// NewPath builds a path from the given segments.
func NewPath(segments ...*Property) Path {
	return Path{segments: append([]*Property(nil), segments...)}
}

// Extend returns a new path with p appended.
func (p Path) Extend(prop *Property) Path {
	segs := make([]*Property, len(p.segments)+1)
	copy(segs, p.segments)
	segs[len(p.segments)] = prop
	return Path{segments: segs}
}

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

func (p Path) Len() int {
	return len(p.segments)
}

// Leaf returns the last property, or nil for the root.
func (p Path) Leaf() *Property {
	if len(p.segments) == 0 {
		return nil
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path without its leaf.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.segments[:len(p.segments)-1]}
}

// Segments returns a copy of the properties along the path.
func (p Path) Segments() []*Property {
	return append([]*Property(nil), p.segments...)
}

// DotPath renders the path as "a.b.c". The root renders as "".
func (p Path) DotPath() string {
	names := make([]string, len(p.segments))
	for i, s := range p.segments {
		names[i] = s.Name
	}
	return strings.Join(names, ".")
}

func (p Path) String() string {
	if p.IsRoot() {
		return "<root>"
	}
	return p.DotPath()
}

// Resolve walks a dot path starting at the root entity.
func Resolve(root *Entity, dotPath string) (Path, bool) {
	dotPath = strings.Trim(dotPath, ".")
	if dotPath == "" {
		return RootPath(), true
	}
	path := RootPath()
	current := root
	for _, name := range strings.Split(dotPath, ".") {
		if current == nil {
			return Path{}, false
		}
		prop := current.Property(name)
		if prop == nil {
			return Path{}, false
		}
		path = path.Extend(prop)
		current = prop.Target
	}
	return path, true
}
