package hdf5

import (
	"fmt"
	"path"
	"strings"

	"github.com/robert-malhotra/go-gctx/internal/btree"
	"github.com/robert-malhotra/go-gctx/internal/heap"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
)

// Group is an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
}

// member is one named child of a group before it is opened.
type member struct {
	name   string
	addr   uint64
	soft   bool
	target string
}

// Name is the last path component, or "/" for the root.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path is the absolute path of the group.
func (g *Group) Path() string { return g.path }

// Members lists the names of the group's children in storage order:
// link message order for new-style groups, name order for symbol tables.
func (g *Group) Members() ([]string, error) {
	ms, err := g.members()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.name
	}
	return names, nil
}

// members lists the group's links from whichever storage it uses.
func (g *Group) members() ([]member, error) {
	if li := g.header.LinkInfo(); li != nil && li.Dense {
		return nil, fmt.Errorf("group %s: %w", g.path, ErrDenseLinks)
	}
	if links := g.header.Links(); len(links) > 0 {
		out := make([]member, 0, len(links))
		for _, l := range links {
			switch l.LinkType {
			case message.LinkHard:
				out = append(out, member{name: l.Name, addr: l.Address})
			case message.LinkSoft:
				out = append(out, member{name: l.Name, soft: true, target: l.Target})
			default:
				// External and user-defined links point outside the file.
				continue
			}
		}
		return out, nil
	}

	st := g.header.SymbolTable()
	if st == nil && g.path == "/" && g.file.sb.RootBTreeAddress != 0 {
		st = &message.SymbolTable{BTreeAddress: g.file.sb.RootBTreeAddress, LocalHeapAddress: g.file.sb.RootHeapAddress}
	}
	if st == nil {
		return nil, nil
	}
	names, err := heap.ReadLocal(g.file.reader, st.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	entries, err := btree.ReadGroup(g.file.reader, st.BTreeAddress, names)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.path, err)
	}
	out := make([]member, len(entries))
	for i, e := range entries {
		out[i] = member{name: e.Name, addr: e.Address, soft: e.Soft, target: e.Target}
	}
	return out, nil
}

// child finds one member by name.
func (g *Group) child(name string) (member, error) {
	ms, err := g.members()
	if err != nil {
		return member{}, err
	}
	for _, m := range ms {
		if m.name == name {
			return m, nil
		}
	}
	return member{}, fmt.Errorf("%w: %s", ErrNotFound, childPath(g.path, name))
}

// OpenGroup opens a group by a path relative to g, or absolute.
func (g *Group) OpenGroup(p string) (*Group, error) {
	obj, err := g.open(p)
	if err != nil {
		return nil, err
	}
	grp, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, p)
	}
	return grp, nil
}

// OpenDataset opens a dataset by a path relative to g, or absolute.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	obj, err := g.open(p)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, p)
	}
	return ds, nil
}

func (g *Group) open(p string) (any, error) {
	return g.resolve(p, 0)
}

// resolve walks p component by component, following soft links. depth
// counts the soft links already followed.
func (g *Group) resolve(p string, depth int) (any, error) {
	cur := g
	if strings.HasPrefix(p, "/") {
		cur = g.file.root
	}
	parts := SplitPath(p)
	if len(parts) == 0 {
		return cur, nil
	}
	// Each soft link hop counts toward MaxLinkDepth.
	for i, name := range parts {
		m, err := cur.child(name)
		if err != nil {
			return nil, err
		}
		var obj any
		if m.soft {
			if depth++; depth > MaxLinkDepth {
				return nil, fmt.Errorf("%w: at %s", ErrLinkDepth, m.target)
			}
			if obj, err = cur.resolve(m.target, depth); err != nil {
				return nil, fmt.Errorf("soft link %s -> %s: %w", childPath(cur.path, name), m.target, err)
			}
		} else if obj, err = g.file.openObject(m.addr, childPath(cur.path, name)); err != nil {
			return nil, err
		}
		// Only the last component may be a dataset.
		if i == len(parts)-1 {
			return obj, nil
		}
		next, ok := obj.(*Group)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, childPath(cur.path, name))
		}
		cur = next
	}
	return cur, nil
}

// Attrs lists the group's attribute names.
func (g *Group) Attrs() []string { return attrNames(g.header) }

// Attr returns the named attribute or nil.
func (g *Group) Attr(name string) *Attribute { return newAttribute(g.file, g.header.Attribute(name)) }

// HasAttr reports whether the group carries the named attribute.
func (g *Group) HasAttr(name string) bool { return g.header.Attribute(name) != nil }
