package planfmt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/opal-lang/shx/ast"
)

// EncodeCBOR serializes node using the compact CBOR encoding, for
// cmd/shx's --format=cbor option. JSON remains the canonical,
// human-diffable format used by Encode/Decode and by the background
// self-reexec payload.
func EncodeCBOR(node ast.Node) ([]byte, error) {
	w, err := toWire(node)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(w)
}

// DecodeCBOR parses a CBOR plan document. CBOR documents skip JSON
// Schema validation since the wire struct's own field types already
// constrain the shape; malformed enum strings still surface as errors
// from fromWire's kindValues/type lookups.
func DecodeCBOR(data []byte) (ast.Node, error) {
	var w wireNode
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("planfmt: %w", err)
	}
	return fromWire(&w)
}
