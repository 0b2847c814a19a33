package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-gctx/internal/binary"
	"github.com/robert-malhotra/go-gctx/internal/message"
)

var (
	SignatureV2           = []byte{'O', 'H', 'D', 'R'}
	SignatureContinuation = []byte{'O', 'C', 'H', 'K'}
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
	ErrMessageTooLarge    = errors.New("header message too large")
	ErrSharedMessage      = errors.New("shared header messages are not supported")
)

// maxContinuations bounds how many continuation blocks one header may chain.
const maxContinuations = 1024

// Header is a decoded object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32
	Messages []message.Message
}

// Read decodes the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}

	var h *Header
	switch {
	case string(peek) == string(SignatureV2):
		h, err = readV2(hr, address)
	case peek[0] == 1:
		h, err = readV1(hr, address)
	default:
		return nil, fmt.Errorf("%w at address %d", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}
	return h, nil
}

// block is a run of header messages that still has to be decoded.
type block struct {
	offset, length uint64
}

// collect decodes blocks until none remain, queueing the blocks named
// by continuation messages. readBlock decodes one block.
func (h *Header) collect(first block, readBlock func(block) ([]message.Message, error)) error {
	queue := []block{first}
	seen := map[uint64]bool{}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if seen[b.offset] {
			continue
		}
		seen[b.offset] = true
		if len(seen) > maxContinuations {
			return fmt.Errorf("%w: more than %d continuation blocks", ErrInvalidHeader, maxContinuations)
		}

		msgs, err := readBlock(b)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			if c, ok := m.(*message.Continuation); ok {
				queue = append(queue, block{offset: c.Offset, length: c.Length})
				continue
			}
			h.Messages = append(h.Messages, m)
		}
	}
	return nil
}

// Message returns the first message of type typ, or nil.
func (h *Header) Message(typ message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// All returns every message of type typ in header order.
func (h *Header) All(typ message.Type) []message.Message {
	var out []message.Message
	for _, m := range h.Messages {
		if m.Type() == typ {
			out = append(out, m)
		}
	}
	return out
}

// Dataspace returns the dataspace message, or nil.
func (h *Header) Dataspace() *message.Dataspace {
	m, _ := h.Message(message.TypeDataspace).(*message.Dataspace)
	return m
}

// Datatype returns the datatype message, or nil.
func (h *Header) Datatype() *message.Datatype {
	m, _ := h.Message(message.TypeDatatype).(*message.Datatype)
	return m
}

// DataLayout returns the layout message, or nil.
func (h *Header) DataLayout() *message.DataLayout {
	m, _ := h.Message(message.TypeDataLayout).(*message.DataLayout)
	return m
}

// FilterPipeline returns the filter pipeline message, or nil when the
// dataset is unfiltered.
func (h *Header) FilterPipeline() *message.FilterPipeline {
	m, _ := h.Message(message.TypeFilterPipeline).(*message.FilterPipeline)
	return m
}

// SymbolTable returns the symbol table message of a v1 group, or nil.
func (h *Header) SymbolTable() *message.SymbolTable {
	m, _ := h.Message(message.TypeSymbolTable).(*message.SymbolTable)
	return m
}

// LinkInfo returns the link info message of a v2 group, or nil.
func (h *Header) LinkInfo() *message.LinkInfo {
	m, _ := h.Message(message.TypeLinkInfo).(*message.LinkInfo)
	return m
}

// Links returns the link messages of a compact v2 group.
func (h *Header) Links() []*message.Link {
	var out []*message.Link
	for _, m := range h.All(message.TypeLink) {
		out = append(out, m.(*message.Link))
	}
	return out
}

// Attributes returns the attributes stored directly in the header.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, m := range h.All(message.TypeAttribute) {
		out = append(out, m.(*message.Attribute))
	}
	return out
}

// Attribute returns the attribute called name, or nil.
func (h *Header) Attribute(name string) *message.Attribute {
	for _, a := range h.Attributes() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// IsGroup reports whether the header describes a group of either kind.
func (h *Header) IsGroup() bool {
	return h.SymbolTable() != nil || h.Message(message.TypeLinkInfo) != nil || len(h.Links()) > 0
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.DataLayout() != nil && h.Dataspace() != nil && h.Datatype() != nil
}

func parseMessage(typ message.Type, flags uint8, data []byte, cfg binary.Config) (message.Message, error) {
	if flags&0x02 != 0 {
		return nil, fmt.Errorf("%w (type 0x%02x)", ErrSharedMessage, uint16(typ))
	}
	return message.Parse(typ, data, cfg)
}
