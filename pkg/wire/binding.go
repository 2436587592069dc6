package wire

import (
	"errors"
	"fmt"
)

// Binding is a persisted outbound subscription: a destination URI and an
// optional paired report configuration id. Rid 0 means "no report
// configuration" — the reporting engine skips such a binding on every
// tick (see package report).
type Binding struct {
	ID  uint8
	Rid uint8
	URI URI
}

// ErrMalformedBinding is returned when a CBOR item does not match the
// binding entry grammar: a map containing a required "u" key and an
// optional "r" key, at most two entries.
var ErrMalformedBinding = errors.New("wire: malformed binding")

// bindingEntry is the wire shape decoded from a POST/PUT binding payload:
// `{u: <uri>, r?: <rid>}`. Mirrors dd_handle_bindings__parse_entry, which
// accepts the two keys in either order and rejects anything else.
type bindingEntry struct {
	Rid uint8  `cbor:"r"`
	URI string `cbor:"u"`
}

// DecodeBindingEntry decodes a binding create/update request body. The
// "u" key is required; "r" defaults to 0 when absent.
func DecodeBindingEntry(payload []byte) (rid uint8, uri URI, err error) {
	raw := map[string]any{}
	if err := Unmarshal(payload, &raw); err != nil {
		return 0, URI{}, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
	}
	if len(raw) == 0 || len(raw) > 2 {
		return 0, URI{}, fmt.Errorf("%w: expected 1 or 2 map entries, got %d", ErrMalformedBinding, len(raw))
	}

	uriItem, hasURI := raw["u"]
	if !hasURI {
		return 0, URI{}, fmt.Errorf("%w: missing required \"u\" key", ErrMalformedBinding)
	}
	uriText, ok := uriItem.(string)
	if !ok {
		return 0, URI{}, fmt.Errorf("%w: \"u\" is not a text string", ErrMalformedBinding)
	}
	parsed, err := ParseURI(uriText)
	if err != nil {
		return 0, URI{}, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
	}

	if ridItem, ok := raw["r"]; ok {
		n, err := smallUint(ridItem)
		if err != nil || n > 255 {
			return 0, URI{}, fmt.Errorf("%w: \"r\" out of uint8 range", ErrMalformedBinding)
		}
		rid = uint8(n)
	}

	for k := range raw {
		if k != "u" && k != "r" {
			return 0, URI{}, fmt.Errorf("%w: unexpected key %q", ErrMalformedBinding, k)
		}
	}

	return rid, parsed, nil
}

// EncodeBinding renders a binding as the `{u, r}` map returned by GET
// requests against a single binding resource.
func EncodeBinding(b Binding) ([]byte, error) {
	return Marshal(map[string]any{
		"u": b.URI.String(),
		"r": uint64(b.Rid),
	})
}

// EncodeBindingIDs renders a cluster's binding id list, as returned by
// GET against the bindings collection resource.
func EncodeBindingIDs(ids []uint8) ([]byte, error) {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return Marshal(out)
}

// smallUint accepts any of the integer shapes fxamacker/cbor decodes an
// untyped destination to (int64, uint64, or the rare int) and rejects
// negative values, mirroring the original decoder's int64-then-range-check.
func smallUint(item any) (uint64, error) {
	switch v := item.(type) {
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("not an integer: %T", item)
	}
}
