package hdf5

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		in, obj, name string
		wantErr       bool
	}{
		{in: "/@version", obj: "/", name: "version"},
		{in: "/0/DATA/0/matrix@units", obj: "/0/DATA/0/matrix", name: "units"},
		{in: "0/META@a@b", obj: "/0/META@a", name: "b"},
		{in: "/no/separator", wantErr: true},
		{in: "/empty@", wantErr: true},
	}
	for _, tt := range tests {
		obj, name, err := ParseAttrPath(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPath, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.obj, obj, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
	assert.Equal(t, "/@src", JoinAttrPath("/", "src"))
	assert.Equal(t, "/0/META@x", JoinAttrPath("0/META/", "x"))
}

func TestSplitPath(t *testing.T) {
	assert.Empty(t, SplitPath("/"))
	assert.Equal(t, []string{"0", "DATA", "0"}, SplitPath("//0/DATA//0/"))
	assert.Equal(t, "/0/META", CleanPath("0//META/"))
	assert.Equal(t, "/", CleanPath(""))
}

func TestWalk(t *testing.T) {
	f := openImage(t, gctxLike(t))
	var paths []string
	err := Walk(f.Root(), func(p string, obj any, err error) error {
		require.NoError(t, err)
		switch o := obj.(type) {
		case *Group:
			paths = append(paths, "G "+p)
		case *Dataset:
			paths = append(paths, "D "+p+" "+o.DatatypeName())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"G /",
		"G /0",
		"G /0/DATA",
		"G /0/DATA/0",
		"D /0/DATA/0/matrix float32",
		"G /0/META",
		"G /0/META/ROW",
		"D /0/META/ROW/id string[50]",
		"D /0/META/ROW/pr_gene_symbol string[50]",
		"G /0/META/COL",
		"D /0/META/COL/id string[50]",
	}, paths)
}

func TestWalkSkipAndStop(t *testing.T) {
	f := openImage(t, gctxLike(t))
	var seen []string
	err := Walk(f.Root(), func(p string, obj any, err error) error {
		seen = append(seen, p)
		if p == "/0/DATA" {
			return SkipGroup
		}
		if p == "/0/META/ROW/id" {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/0", "/0/DATA", "/0/META", "/0/META/ROW", "/0/META/ROW/id"}, seen)

	boom := errors.New("boom")
	err = Walk(f.Root(), func(string, any, error) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWalkAttrs(t *testing.T) {
	b := NewBuilder()
	b.Root().SetAttr("version", "GCTX1.0")
	require.NoError(t, b.Root().WriteFloat32("m", []uint64{1}, []float32{1}, WithAttribute("units", "log2")))
	f := openImage(t, b)

	var got []AttrInfo
	require.NoError(t, f.WalkAttrs(func(info AttrInfo) error {
		got = append(got, info)
		return nil
	}))
	require.Len(t, got, 2)
	assert.Equal(t, AttrInfo{Path: "/@version", ObjectPath: "/", ObjectType: "group", Name: "version", Value: "GCTX1.0"}, got[0])
	assert.Equal(t, AttrInfo{Path: "/m@units", ObjectPath: "/m", ObjectType: "dataset", Name: "units", Value: "log2"}, got[1])
}
