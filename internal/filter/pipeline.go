package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/message"
)

// Pipeline runs a dataset's filters over its chunks.
type Pipeline struct {
	filters []Filter
	// positions are the indices of filters in the pipeline message, which
	// is what chunk filter masks refer to.
	positions []int
}

// NewPipeline builds the pipeline described by fp. A nil fp yields an
// empty pipeline.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f != nil {
			p.filters = append(p.filters, f)
			p.positions = append(p.positions, i)
		}
	}
	return p, nil
}

// sizeLimited is implemented by filters whose encoded form carries the
// decoded size.
type sizeLimited interface {
	limitOutput(n uint64)
}

// Limit tells size-carrying filters how large a decoded chunk of
// chunkBytes can be at their stage, so a corrupt header fails instead of
// allocating.
func (p *Pipeline) Limit(chunkBytes uint64) {
	n := chunkBytes
	for _, f := range p.filters {
		if l, ok := f.(sizeLimited); ok {
			l.limitOutput(n)
		}
		// Each checksum stage adds its trailer for the stages after it.
		if f.ID() == message.FilterFletcher32 {
			n += 4
		}
	}
}

// Empty reports a pipeline with no filters.
func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }

// Encode runs every filter in order.
func (p *Pipeline) Encode(chunk []byte) ([]byte, error) {
	data := chunk
	for _, f := range p.filters {
		var err error
		if data, err = f.Encode(data); err != nil {
			return nil, fmt.Errorf("%s encode: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Decode undoes the filters in reverse order. Filters whose bit is set
// in mask were skipped when the chunk was written.
func (p *Pipeline) Decode(chunk []byte, mask uint32) ([]byte, error) {
	data := chunk
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(p.positions[i])) != 0 {
			continue
		}
		f := p.filters[i]
		var err error
		if data, err = f.Decode(data); err != nil {
			return nil, fmt.Errorf("%s decode: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Describe returns the pipeline message for a codec applied to elements
// of elemSize bytes, with an optional shuffle stage in front.
func Describe(codec string, level int, shuffle bool, elemSize uint32) (*message.FilterPipeline, error) {
	fp := &message.FilterPipeline{Version: 2}
	if shuffle {
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterShuffle, ClientData: []uint32{elemSize}})
	}
	switch codec {
	case "", "none":
	case "gzip", "deflate":
		if level <= 0 {
			level = 4
		}
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterDeflate, ClientData: []uint32{uint32(level)}})
	case "zstd":
		if level <= 0 {
			level = 3
		}
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterZstd, Name: "zstd", Flags: 1, ClientData: []uint32{uint32(level)}})
	case "lz4":
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterLZ4, Name: "lz4", Flags: 1})
	default:
		return nil, fmt.Errorf("%w: codec %q", ErrUnsupported, codec)
	}
	return fp, nil
}
