package model

import (
	"errors"

	"github.com/zclip-go/zclipd/pkg/wire"
)

// AttributeReader returns an attribute's current value. Invoked
// synchronously from the single-threaded dispatch loop on every GET and
// every reporting tick; it must not block.
type AttributeReader func() (wire.Value, error)

// AttributeWriter consumes a new attribute value decoded from a PUT
// request body.
type AttributeWriter func(wire.Value) error

// Attribute errors.
var (
	ErrAttributeNotReadable = errors.New("model: attribute is not readable")
	ErrAttributeNotWritable = errors.New("model: attribute is not writable")
)

// Attribute is a typed, named cluster property exposed at
// /zcl/e/<eid>/<cl>/a/<aid>. Attributes are static: declared once when a
// cluster is built and never added or removed at runtime. Every read or
// write goes through the Reader/Writer callback supplied by the
// application — the model package holds no attribute value of its own,
// matching the callback-based dd_attribute in the original engine.
type Attribute struct {
	id     uint16
	name   string
	reader AttributeReader
	writer AttributeWriter
}

// NewAttribute constructs a read-only attribute. Chain WithWriter to
// make it writable.
func NewAttribute(id uint16, name string, reader AttributeReader) *Attribute {
	return &Attribute{id: id, name: name, reader: reader}
}

// WithWriter attaches a writer callback and returns the same attribute,
// for use at construction time.
func (a *Attribute) WithWriter(writer AttributeWriter) *Attribute {
	a.writer = writer
	return a
}

// ID returns the attribute's 16-bit identifier.
func (a *Attribute) ID() uint16 { return a.id }

// Name returns the attribute's declared name.
func (a *Attribute) Name() string { return a.name }

// Writable reports whether the attribute accepts PUT requests.
func (a *Attribute) Writable() bool { return a.writer != nil }

// Read invokes the reader callback.
func (a *Attribute) Read() (wire.Value, error) {
	if a.reader == nil {
		return wire.Value{}, ErrAttributeNotReadable
	}
	return a.reader()
}

// Write invokes the writer callback.
func (a *Attribute) Write(v wire.Value) error {
	if a.writer == nil {
		return ErrAttributeNotWritable
	}
	return a.writer(v)
}
