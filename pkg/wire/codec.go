package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for ZCLIP payloads.
// Configured for deterministic encoding with integer keys and epoch
// timestamps, matching the value object grammar in dd_cbor.c.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for ZCLIP payloads.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnix,
		TimeTag:     cbor.EncTagRequired,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to build CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		TimeTag:           cbor.DecTagOptional,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to build CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes using the ZCLIP canonical mode.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes using the ZCLIP canonical mode.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
