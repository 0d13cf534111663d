package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/rlegendi/jyzer/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class *classfile.ClassFile) error
}

// Names lists the formats NewEncoder accepts.
var Names = []string{"line", "json", "cbor", "disasm", "pool"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "cbor":
		return NewCBOREncoder(w), nil
	case "disasm":
		return NewDisasmEncoder(w), nil
	case "pool":
		return NewPoolEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s (expected one of %v)", name, Names)
}

// encode is the shared Encode body: marshal, then write.
func encode(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
