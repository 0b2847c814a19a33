package hdf5

import "errors"

// SkipGroup returned by a WalkFunc for a group skips its children.
var SkipGroup = errors.New("skip this group")

// ErrStopWalk returned by a WalkFunc ends the walk; Walk returns nil.
var ErrStopWalk = errors.New("stop walk")

// SoftLink stands in for a soft link to a group, which Walk reports but
// does not descend into.
type SoftLink struct{ Target string }

// WalkFunc receives each object's path and a *Group, *Dataset or
// SoftLink, or the error met opening it.
type WalkFunc func(path string, obj any, err error) error

// Walk visits g and everything below it, depth first, parents before
// children and children in storage order.
func Walk(g *Group, fn WalkFunc) error {
	if err := walk(g, fn, map[uint64]struct{}{}); err != nil && !errors.Is(err, ErrStopWalk) {
		return err
	}
	return nil
}

func walk(g *Group, fn WalkFunc, seen map[uint64]struct{}) error {
	// Hard links can make the graph cyclic; visit each group header once.
	if _, ok := seen[g.header.Address]; ok {
		return nil
	}
	seen[g.header.Address] = struct{}{}
	if err := fn(g.path, g, nil); err != nil {
		if errors.Is(err, SkipGroup) {
			return nil
		}
		return err
	}
	// A group that cannot be listed is reported and the walk moves on.
	ms, err := g.members()
	if err != nil {
		return fn(g.path, nil, err)
	}
	for _, m := range ms {
		p := childPath(g.path, m.name)
		if m.soft {
			// Soft links to groups are reported, not descended into.
			obj, err := g.resolve(m.name, 0)
			if err == nil {
				if _, isGroup := obj.(*Group); isGroup {
					err = fn(p, SoftLink{Target: m.target}, nil)
				} else {
					err = fn(p, obj, nil)
				}
			} else {
				err = fn(p, nil, err)
			}
			if err != nil {
				return err
			}
			continue
		}
		obj, err := g.file.openObject(m.addr, p)
		if err != nil {
			if err := fn(p, nil, err); err != nil {
				return err
			}
			continue
		}
		switch o := obj.(type) {
		case *Group:
			if err := walk(o, fn, seen); err != nil {
				return err
			}
		default:
			if err := fn(p, o, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// AttrInfo describes one attribute found by WalkAttrs.
type AttrInfo struct {
	Path       string
	ObjectPath string
	ObjectType string
	Name       string
	Value      any
	Err        error
}

// WalkAttrs calls fn for every attribute of every group and dataset.
func (f *File) WalkAttrs(fn func(AttrInfo) error) error {
	if f.isClosed() {
		return ErrClosed
	}
	return Walk(f.root, func(p string, obj any, err error) error {
		if err != nil {
			return nil
		}
		var (
			kind  string
			names []string
			get   func(string) *Attribute
		)
		switch o := obj.(type) {
		case *Group:
			kind, names, get = "group", o.Attrs(), o.Attr
		case *Dataset:
			kind, names, get = "dataset", o.Attrs(), o.Attr
		default:
			return nil
		}
		for _, name := range names {
			info := AttrInfo{Path: JoinAttrPath(p, name), ObjectPath: p, ObjectType: kind, Name: name}
			info.Value, info.Err = get(name).Value()
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
