// Package cursor implements the resumable cursor token clients use to
// resume a Stream.Blocks call after a disconnect.
package cursor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

// ErrInvalidCursor is returned when a client-supplied cursor string cannot
// be parsed. Callers surface this synchronously as an invalid-argument
// style error, never mid-stream.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor binds a client to the last block it observed and the finalized
// block known at that point.
type Cursor struct {
	Block     chain.HashAndHeight
	Finalized chain.HashAndHeight
}

// New builds a Cursor from its two components.
func New(block, finalized chain.HashAndHeight) Cursor {
	return Cursor{Block: block, Finalized: finalized}
}

// String serializes the cursor as "height:hash:finalizedHeight:finalizedHash".
func (c Cursor) String() string {
	return fmt.Sprintf("%d:%s:%d:%s", c.Block.Height, c.Block.Hash, c.Finalized.Height, c.Finalized.Hash)
}

// Parse parses a cursor string produced by String. An empty string is not a
// valid cursor; callers should check for emptiness before calling Parse.
func Parse(value string) (Cursor, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return Cursor{}, ErrInvalidCursor
	}

	blockHeight, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: invalid block height", ErrInvalidCursor)
	}
	finalizedHeight, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: invalid finalized block height", ErrInvalidCursor)
	}

	return Cursor{
		Block:     chain.HashAndHeight{Height: blockHeight, Hash: parts[1]},
		Finalized: chain.HashAndHeight{Height: finalizedHeight, Hash: parts[3]},
	}, nil
}
