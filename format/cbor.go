package format

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/rlegendi/jyzer/classfile"
)

// cborEncMode is canonical so equal classes encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("format: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type CBOREncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewCBOREncoder(w io.Writer) *CBOREncoder {
	return &CBOREncoder{w: w}
}

func (e *CBOREncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	return encode(e.w, e)
}

func (e *CBOREncoder) MarshalText() ([]byte, error) {
	return MarshalCBOR(NewClass(e.class))
}

// MarshalCBOR serializes a class summary to CBOR bytes.
func MarshalCBOR(c *Class) ([]byte, error) {
	return cborEncMode.Marshal(c)
}

// UnmarshalCBOR deserializes a class summary from CBOR bytes.
func UnmarshalCBOR(data []byte) (*Class, error) {
	var c Class
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("format: unmarshal class: %w", err)
	}
	return &c, nil
}
