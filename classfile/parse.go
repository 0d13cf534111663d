package classfile

import (
	"fmt"
	"io"
	"os"
)

func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	return ParseBytes(data)
}

// Parse reads r to the end and decodes it as one class file.
func Parse(rd io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read class file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a class file held in memory. Trailing bytes after the
// last attribute are ignored. The result shares no memory with data.
func ParseBytes(data []byte) (*ClassFile, error) {
	r := newReader(data, 0)

	magic := r.readU4()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if magic != Magic {
		return nil, corruptf(0, "invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read version: %w", r.err)
	}

	var err error
	cf.ConstantPool, err = readConstantPool(r)
	if err != nil {
		return nil, err
	}

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()

	interfacesCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", r.err)
	}

	cf.Interfaces = make([]uint16, interfacesCount)
	for i := range cf.Interfaces {
		cf.Interfaces[i] = r.readU2()
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read interfaces: %w", r.err)
	}

	fieldsCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read fields count: %w", r.err)
	}

	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := range cf.Fields {
		if err := readMember(r, cf.ConstantPool, (*member)(&cf.Fields[i])); err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
	}

	methodsCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read methods count: %w", r.err)
	}

	cf.Methods = make([]MethodInfo, methodsCount)
	for i := range cf.Methods {
		if err := readMember(r, cf.ConstantPool, (*member)(&cf.Methods[i])); err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
	}

	cf.Attributes, err = readAttributes(r, cf.ConstantPool)
	if err != nil {
		return nil, err
	}

	return cf, nil
}

// member is the layout shared by field_info and method_info.
type member struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      Attributes
}

func readMember(r *reader, cp ConstantPool, m *member) error {
	m.AccessFlags = AccessFlags(r.readU2())
	m.NameIndex = r.readU2()
	m.DescriptorIndex = r.readU2()
	if r.err != nil {
		return r.err
	}

	attrs, err := readAttributes(r, cp)
	if err != nil {
		return err
	}
	m.Attributes = attrs
	return nil
}
