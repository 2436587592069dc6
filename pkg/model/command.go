package model

import (
	"context"
	"errors"
)

// Command errors.
var (
	ErrCommandNotFound = errors.New("model: command not found")
)

// CommandExecutor invokes a command with its raw CBOR argument payload
// (which may be empty) and returns a raw CBOR result payload (which may
// be nil for a command with no response body). ZCLIP commands declare no
// argument schema at this layer — interpreting the payload is entirely
// the application's concern.
type CommandExecutor func(ctx context.Context, args []byte) (result []byte, err error)

// Command is an invokable action on a cluster, addressed at
// /zcl/e/<eid>/<cl>/c/<cid>. Commands are static: declared once when a
// cluster is built.
type Command struct {
	id       uint16
	name     string
	executor CommandExecutor
}

// NewCommand constructs a command bound to an executor callback.
func NewCommand(id uint16, name string, executor CommandExecutor) *Command {
	return &Command{id: id, name: name, executor: executor}
}

// ID returns the command's 16-bit identifier.
func (c *Command) ID() uint16 { return c.id }

// Name returns the command's declared name.
func (c *Command) Name() string { return c.name }

// Invoke runs the command's executor callback.
func (c *Command) Invoke(ctx context.Context, args []byte) ([]byte, error) {
	if c.executor == nil {
		return nil, ErrCommandNotFound
	}
	return c.executor(ctx, args)
}
