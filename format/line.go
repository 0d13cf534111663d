package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/rlegendi/jyzer/classfile"
)

// LineEncoder writes one tab-separated record per class, field and method.
type LineEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	return encode(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	writeLines(&sb, NewClass(e.class))
	return []byte(sb.String()), nil
}

// WriteLines writes a class summary in the line format. Summaries read
// back from the index are printed through it.
func WriteLines(w io.Writer, c *Class) error {
	var sb strings.Builder
	writeLines(&sb, c)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeLines(sb *strings.Builder, c *Class) {
	fmt.Fprintf(sb, "%s\t%s\t%s\n", c.Kind, c.Name, classModifiersStr(c))

	for _, f := range c.Fields {
		fmt.Fprintf(sb, "field\t%s\t%s\t%s\t%s\n",
			f.Name,
			f.Type.String(),
			f.Visibility,
			modifiersStr(f.Modifiers),
		)
	}

	for _, m := range c.Methods {
		fmt.Fprintf(sb, "method\t%s\t%s\t%s\t%s\t%s\n",
			m.Name,
			m.ReturnType.String(),
			parametersStr(m.Parameters),
			m.Visibility,
			modifiersStr(m.Modifiers),
		)
	}
}

func classModifiersStr(c *Class) string {
	mods := append([]string{c.Visibility}, c.Modifiers...)
	if c.Deprecated {
		mods = append(mods, "deprecated")
	}
	return strings.Join(mods, ",")
}

func modifiersStr(mods []string) string {
	if len(mods) == 0 {
		return "-"
	}
	return strings.Join(mods, ",")
}

func parametersStr(params []Type) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}
