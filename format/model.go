package format

import (
	"strings"

	"github.com/rlegendi/jyzer/classfile"
)

// Class is the summary of a decoded class that the structured encoders
// (json, cbor) and the scan index write out.
type Class struct {
	Name       string   `json:"name"`
	SimpleName string   `json:"simpleName"`
	Package    string   `json:"package"`
	SuperClass string   `json:"superClass,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	Visibility string   `json:"visibility"`
	Kind       string   `json:"kind"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Version    Version  `json:"version"`
	SourceFile string   `json:"sourceFile,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty"`
	Fields     []Field  `json:"fields,omitempty"`
	Methods    []Method `json:"methods,omitempty"`
}

type Version struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
}

type Field struct {
	Name       string   `json:"name"`
	Type       Type     `json:"type"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Constant   string   `json:"constant,omitempty"`
}

type Method struct {
	Name         string   `json:"name"`
	Descriptor   string   `json:"descriptor"`
	ReturnType   Type     `json:"returnType"`
	Parameters   []Type   `json:"parameters,omitempty"`
	Visibility   string   `json:"visibility"`
	Modifiers    []string `json:"modifiers,omitempty"`
	Exceptions   []string `json:"exceptions,omitempty"`
	CodeLength   int      `json:"codeLength,omitempty"`
	Instructions int      `json:"instructions,omitempty"`
}

type Type struct {
	Name       string `json:"name"`
	ArrayDepth int    `json:"arrayDepth,omitempty"`
}

func NewClass(cf *classfile.ClassFile) *Class {
	cp := cf.ConstantPool
	name := classfile.InternalToSourceName(cf.ThisClassName())
	pkg, simple := splitName(name)

	c := &Class{
		Name:       name,
		SimpleName: simple,
		Package:    pkg,
		Interfaces: sourceNames(cf.InterfaceNames()),
		Visibility: visibility(cf.AccessFlags.Access(classfile.ClassFlags)),
		Kind:       classKind(cf),
		Modifiers:  cf.AccessFlags.Modifiers(classfile.ClassFlags),
		Version:    Version{Major: cf.MajorVersion, Minor: cf.MinorVersion},
		SourceFile: cf.SourceFile(),
		Deprecated: cf.IsDeprecated(),
	}
	if cf.HasSuperClass() {
		c.SuperClass = classfile.InternalToSourceName(cf.SuperClassName())
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		c.Fields = append(c.Fields, Field{
			Name:       f.Name(cp),
			Type:       typeOf(f.ParsedDescriptor(cp), f.Descriptor(cp)),
			Visibility: visibility(f.AccessFlags.Access(classfile.FieldFlags)),
			Modifiers:  f.AccessFlags.Modifiers(classfile.FieldFlags),
			Constant:   f.ConstantValue(cp),
		})
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		desc := m.Descriptor(cp)
		method := Method{
			Name:       m.Name(cp),
			Descriptor: desc,
			Visibility: visibility(m.AccessFlags.Access(classfile.MethodFlags)),
			Modifiers:  m.AccessFlags.Modifiers(classfile.MethodFlags),
			Exceptions: sourceNames(m.ExceptionNames(cp)),
		}
		if md := m.ParsedDescriptor(cp); md != nil {
			method.ReturnType = typeOf(md.ReturnType, desc)
			for j := range md.Parameters {
				method.Parameters = append(method.Parameters, typeOf(&md.Parameters[j], ""))
			}
		} else {
			method.ReturnType = Type{Name: desc}
		}
		if code := m.Code(); code != nil {
			method.CodeLength = len(code.Code)
			method.Instructions = len(code.Instructions)
		}
		c.Methods = append(c.Methods, method)
	}
	return c
}

func classKind(cf *classfile.ClassFile) string {
	switch {
	case cf.IsAnnotation():
		return "annotation"
	case cf.IsEnum():
		return "enum"
	case cf.IsInterface():
		return "interface"
	case cf.IsModule():
		return "module"
	default:
		return "class"
	}
}

func visibility(access string) string {
	if access == "" {
		return "package"
	}
	return access
}

// typeOf renders ft without its array suffix; raw is used when the
// descriptor did not parse.
func typeOf(ft *classfile.FieldType, raw string) Type {
	if ft == nil {
		return Type{Name: raw}
	}
	name := ft.ClassName
	if name == "" {
		name = ft.BaseType
	}
	return Type{Name: name, ArrayDepth: ft.ArrayDepth}
}

func (t Type) String() string {
	return t.Name + strings.Repeat("[]", t.ArrayDepth)
}

func splitName(name string) (pkg, simple string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func sourceNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = classfile.InternalToSourceName(n)
	}
	return out
}
