package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/dtype"
	"github.com/robert-malhotra/go-gctx/internal/message"
	"github.com/robert-malhotra/go-gctx/internal/object"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	file *File
	msg  *message.Attribute
}

func newAttribute(f *File, m *message.Attribute) *Attribute {
	if m == nil {
		return nil
	}
	return &Attribute{file: f, msg: m}
}

func attrNames(h *object.Header) []string {
	attrs := h.Attributes()
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}

// Name is the attribute name.
func (a *Attribute) Name() string { return a.msg.Name }

// Shape is nil for scalar attributes.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// NumElements is 1 for scalars.
func (a *Attribute) NumElements() uint64 { return a.msg.Dataspace.NumElements() }
func (a *Attribute) IsScalar() bool      { return a.msg.Dataspace.IsScalar() }
func (a *Attribute) IsString() bool      { return a.msg.Datatype.IsString() }

// Strings returns the elements as text, formatting numeric values.
func (a *Attribute) Strings() ([]string, error) {
	gh, unlock := a.file.heapCache()
	defer unlock()
	out, err := dtype.Strings(a.msg.Datatype, a.msg.Data, a.NumElements(), a.file.reader.Config(), gh)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", a.msg.Name, err)
	}
	return out, nil
}

// String returns the single value of a scalar or one-element attribute.
func (a *Attribute) String() (string, error) {
	vals, err := a.Strings()
	if err != nil {
		return "", err
	}
	if len(vals) != 1 {
		return "", fmt.Errorf("attribute %s holds %d values, want 1", a.msg.Name, len(vals))
	}
	return vals[0], nil
}

// Float64s returns the elements of a numeric attribute.
func (a *Attribute) Float64s() ([]float64, error) {
	out, err := dtype.Float64s(a.msg.Datatype, a.msg.Data, a.NumElements())
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", a.msg.Name, err)
	}
	return out, nil
}

// Value returns a string, float64, []string or []float64 depending on the
// attribute's type and shape.
func (a *Attribute) Value() (any, error) {
	if dtype.IsNumeric(a.msg.Datatype) {
		vals, err := a.Float64s()
		if err != nil || !a.IsScalar() {
			return vals, err
		}
		return vals[0], nil
	}
	vals, err := a.Strings()
	if err != nil || !a.IsScalar() {
		return vals, err
	}
	return vals[0], nil
}
