package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits "/group/object@name" into the object path and the
// attribute name. "/@name" addresses the root group.
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	at := strings.LastIndexByte(p, '@')
	if at < 0 {
		return "", "", fmt.Errorf("%w: %q has no '@'", ErrInvalidPath, p)
	}
	if attrName = p[at+1:]; attrName == "" {
		return "", "", fmt.Errorf("%w: %q names no attribute", ErrInvalidPath, p)
	}
	return CleanPath(p[:at]), attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if p := CleanPath(objectPath); p != "/" {
		return p + "@" + attrName
	}
	return "/@" + attrName
}

// SplitPath returns the non-empty components of p.
func SplitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// CleanPath returns p with one leading slash and no trailing or repeated
// ones.
func CleanPath(p string) string { return "/" + strings.Join(SplitPath(p), "/") }

// childPath joins without doubling the root slash.
func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
