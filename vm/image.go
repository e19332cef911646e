package vm

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// imageMagic identifies a serialized program.
const imageMagic = "FLMT"

// programImage is the wire form of a Program.
type programImage struct {
	Magic   string   `cbor:"1,keyasint"`
	Version uint16   `cbor:"2,keyasint"`
	Code    []byte   `cbor:"3,keyasint"`
	Strings []string `cbor:"4,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalProgram serializes p to canonical CBOR. Handle resolvers are not
// part of the image; supply one again on load.
func MarshalProgram(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(&programImage{
		Magic:   imageMagic,
		Version: p.Version,
		Code:    p.Code,
		Strings: p.Constants.Strings(),
	})
}

// UnmarshalProgram deserializes a program image and installs resolver for
// its definition handles.
func UnmarshalProgram(data []byte, resolver HandleResolver) (*Program, error) {
	var img programImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal program: %w", err)
	}
	if img.Magic != imageMagic {
		return nil, fmt.Errorf("vm: unmarshal program: bad magic %q", img.Magic)
	}
	if img.Version != ProgramVersion {
		return nil, fmt.Errorf("vm: unmarshal program: unsupported version %d (want %d)", img.Version, ProgramVersion)
	}
	if len(img.Strings) == 0 || img.Strings[0] != "" {
		return nil, errors.New("vm: unmarshal program: constant 0 must be the empty string")
	}
	if len(img.Strings) > MaxConstants {
		return nil, fmt.Errorf("vm: unmarshal program: constant pool full (%d strings, limit %d)", len(img.Strings), MaxConstants)
	}

	constants := NewConstants()
	for i, s := range img.Strings[1:] {
		if idx := constants.AddString(s); int(idx) != i+1 {
			return nil, fmt.Errorf("vm: unmarshal program: duplicate constant %q at %d", s, i+1)
		}
	}
	return NewProgram(img.Code, constants, resolver), nil
}
