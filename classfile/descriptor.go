package classfile

import "strings"

// FieldType is one parsed type descriptor. Exactly one of BaseType and
// ClassName is set; ClassName is in dotted source form.
type FieldType struct {
	BaseType   string
	ClassName  string
	ArrayDepth int
}

func (ft *FieldType) String() string {
	var sb strings.Builder
	if ft.BaseType != "" {
		sb.WriteString(ft.BaseType)
	} else {
		sb.WriteString(ft.ClassName)
	}
	for i := 0; i < ft.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

func (ft *FieldType) IsVoid() bool {
	return ft.BaseType == "void" && ft.ArrayDepth == 0
}

func (ft *FieldType) IsArray() bool {
	return ft.ArrayDepth > 0
}

func (ft *FieldType) IsPrimitive() bool {
	return ft.BaseType != "" && ft.ArrayDepth == 0
}

func (ft *FieldType) IsReference() bool {
	return ft.ClassName != "" || ft.ArrayDepth > 0
}

type MethodDescriptor struct {
	Parameters []FieldType
	ReturnType *FieldType
}

// String renders "(int, java.lang.String) void". A missing return type
// (malformed input) renders as nothing after the parameter list.
func (md *MethodDescriptor) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range md.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	if md.ReturnType != nil {
		sb.WriteString(" ")
		sb.WriteString(md.ReturnType.String())
	}
	return sb.String()
}

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// ParseType parses the single type descriptor beginning at start and
// returns it along with the index just past it. On malformed input it
// returns nil and start.
func ParseType(desc string, start int) (*FieldType, int) {
	if start < 0 || start >= len(desc) {
		return nil, start
	}

	ft := &FieldType{}
	i := start
	for i < len(desc) && desc[i] == '[' {
		ft.ArrayDepth++
		i++
	}
	if i >= len(desc) {
		return nil, start
	}

	if name, ok := baseTypes[desc[i]]; ok {
		ft.BaseType = name
		return ft, i + 1
	}
	if desc[i] != 'L' {
		return nil, start
	}

	semicolon := strings.IndexByte(desc[i:], ';')
	if semicolon <= 1 {
		return nil, start
	}
	ft.ClassName = InternalToSourceName(desc[i+1 : i+semicolon])
	return ft, i + semicolon + 1
}

func ParseFieldDescriptor(desc string) *FieldType {
	ft, _ := ParseType(desc, 0)
	return ft
}

// ParseMethodDescriptor parses "(params)return". It never fails outright:
// malformed input yields whatever prefix could be parsed, or nil when the
// leading '(' is missing.
func ParseMethodDescriptor(desc string) *MethodDescriptor {
	if len(desc) == 0 || desc[0] != '(' {
		return nil
	}

	md := &MethodDescriptor{}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		ft, next := ParseType(desc, i)
		if ft == nil {
			return md
		}
		md.Parameters = append(md.Parameters, *ft)
		i = next
	}
	if i >= len(desc) {
		return md
	}

	md.ReturnType, _ = ParseType(desc, i+1)
	return md
}

// TypeName renders a field descriptor as a source type name, falling back to
// the raw descriptor when it does not parse.
func TypeName(desc string) string {
	if ft := ParseFieldDescriptor(desc); ft != nil {
		return ft.String()
	}
	return desc
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func SourceToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// IsValidFieldDescriptor reports whether desc is exactly one non-void type.
func IsValidFieldDescriptor(desc string) bool {
	ft, next := ParseType(desc, 0)
	return ft != nil && next == len(desc) && ft.BaseType != "void"
}

// IsValidMethodDescriptor reports whether desc is a complete method
// descriptor with non-void parameters.
func IsValidMethodDescriptor(desc string) bool {
	if len(desc) == 0 || desc[0] != '(' {
		return false
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		ft, next := ParseType(desc, i)
		if ft == nil || ft.BaseType == "void" {
			return false
		}
		i = next
	}
	if i >= len(desc) {
		return false
	}
	ret, next := ParseType(desc, i+1)
	if ret == nil || next != len(desc) {
		return false
	}
	return ret.ArrayDepth == 0 || ret.BaseType != "void"
}
