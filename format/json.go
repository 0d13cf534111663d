package format

import (
	"encoding/json"
	"io"

	"github.com/rlegendi/jyzer/classfile"
)

type JSONEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	if err := encode(e.w, e); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, "\n")
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(NewClass(e.class), "", "  ")
}
