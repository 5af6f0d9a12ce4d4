// Package hexutil decodes the 0x-prefixed hex quantities and byte strings
// returned by archive and JSON-RPC upstreams into canonical Go values.
package hexutil

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// DecodeHex decodes a 0x-prefixed hex byte string. An odd-length hex body is
// left-padded with a zero nibble before decoding, matching what upstreams
// occasionally emit for byte strings such as transaction input data.
func DecodeHex(label, value string) ([]byte, error) {
	body := strings.TrimPrefix(value, "0x")
	if len(body)%2 != 0 {
		body = "0" + body
	}
	buf, err := hex.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid hex value %q: %w", label, value, err)
	}
	return buf, nil
}

// QtyToUint64 parses a 0x-prefixed hex quantity into a uint64.
func QtyToUint64(value string) (uint64, error) {
	body := strings.TrimPrefix(value, "0x")
	if body == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(body, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex quantity %q: %w", value, err)
	}
	return n, nil
}

// MustDecodeHex is DecodeHex without an error return, for call sites that
// have already validated the value (e.g. addresses fixed at 20 bytes).
func MustDecodeHex(label, value string) []byte {
	buf, err := DecodeHex(label, value)
	if err != nil {
		panic(err)
	}
	return buf
}
