package classfile

type FieldInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      Attributes
}

func (f *FieldInfo) Name(cp ConstantPool) string {
	return cp.GetUtf8(f.NameIndex)
}

func (f *FieldInfo) Descriptor(cp ConstantPool) string {
	return cp.GetUtf8(f.DescriptorIndex)
}

func (f *FieldInfo) GetAttribute(name string) Attribute {
	attr, _ := f.Attributes.Named(name)
	return attr
}

func (f *FieldInfo) IsPublic() bool    { return f.AccessFlags.IsPublic() }
func (f *FieldInfo) IsPrivate() bool   { return f.AccessFlags.IsPrivate() }
func (f *FieldInfo) IsProtected() bool { return f.AccessFlags.IsProtected() }
func (f *FieldInfo) IsStatic() bool    { return f.AccessFlags.IsStatic() }
func (f *FieldInfo) IsFinal() bool     { return f.AccessFlags.IsFinal() }
func (f *FieldInfo) IsVolatile() bool  { return f.AccessFlags.IsVolatile() }
func (f *FieldInfo) IsTransient() bool { return f.AccessFlags.IsTransient() }
func (f *FieldInfo) IsEnum() bool      { return f.AccessFlags.IsEnum() }

func (f *FieldInfo) IsSynthetic() bool {
	return f.AccessFlags.IsSynthetic() || Has[*SyntheticAttribute](f.Attributes)
}

func (f *FieldInfo) ParsedDescriptor(cp ConstantPool) *FieldType {
	return ParseFieldDescriptor(f.Descriptor(cp))
}

// ConstantValue renders the field's ConstantValue attribute as a literal,
// or "" when the field has none.
func (f *FieldInfo) ConstantValue(cp ConstantPool) string {
	if cv, ok := Find[*ConstantValueAttribute](f.Attributes); ok {
		return cp.LiteralDisplay(cv.ConstantValueIndex)
	}
	return ""
}

func (f *FieldInfo) Signature(cp ConstantPool) string {
	if sig, ok := Find[*SignatureAttribute](f.Attributes); ok {
		return cp.GetUtf8(sig.SignatureIndex)
	}
	return ""
}
