package classfile

// ClassFile is a decoded class. It is never modified after Parse returns,
// and every index it holds refers into its own ConstantPool.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   Attributes
}

func (cf *ClassFile) Version() Version {
	return Version{Major: cf.MajorVersion, Minor: cf.MinorVersion}
}

// IsVersionSupported reports whether the class is no newer than ceiling.
func (cf *ClassFile) IsVersionSupported(ceiling Version) bool {
	return !cf.Version().Newer(ceiling)
}

// ThisClassName returns the internal name of the class, e.g. "java/util/List".
func (cf *ClassFile) ThisClassName() string {
	return cf.ConstantPool.GetClassName(cf.ThisClass)
}

// SuperClassName returns the internal name of the superclass. A super_class
// of 0 yields the root class name.
func (cf *ClassFile) SuperClassName() string {
	return cf.ConstantPool.GetClassName(cf.SuperClass)
}

func (cf *ClassFile) HasSuperClass() bool {
	return cf.SuperClass != 0
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ConstantPool.GetClassName(idx)
	}
	return names
}

func (cf *ClassFile) HasInterfaces() bool {
	return len(cf.Interfaces) > 0
}

func (cf *ClassFile) IsClass() bool {
	return !cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsModule()
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface()
}

func (cf *ClassFile) IsAnnotation() bool {
	return cf.AccessFlags.IsAnnotation()
}

func (cf *ClassFile) IsEnum() bool {
	return cf.AccessFlags.IsEnum()
}

func (cf *ClassFile) IsModule() bool {
	return cf.AccessFlags.IsModule()
}

// AccessDisplayString renders the class modifiers as they would be written
// in source, e.g. "public abstract".
func (cf *ClassFile) AccessDisplayString() string {
	return cf.AccessFlags.Display(ClassFlags)
}

func (cf *ClassFile) InnerClasses() []InnerClassEntry {
	if ic, ok := Find[*InnerClassesAttribute](cf.Attributes); ok {
		return ic.Classes
	}
	return nil
}

func (cf *ClassFile) HasInnerClasses() bool {
	return len(cf.InnerClasses()) > 0
}

func (cf *ClassFile) SourceFile() string {
	if sf, ok := Find[*SourceFileAttribute](cf.Attributes); ok {
		return cf.ConstantPool.GetUtf8(sf.SourceFileIndex)
	}
	return ""
}

func (cf *ClassFile) Signature() string {
	if sig, ok := Find[*SignatureAttribute](cf.Attributes); ok {
		return cf.ConstantPool.GetUtf8(sig.SignatureIndex)
	}
	return ""
}

func (cf *ClassFile) IsDeprecated() bool {
	return Has[*DeprecatedAttribute](cf.Attributes)
}

func (cf *ClassFile) GetField(name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name(cf.ConstantPool) == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

// GetMethod finds a method by name and, when descriptor is non-empty, by
// descriptor too.
func (cf *ClassFile) GetMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name(cf.ConstantPool) == name {
			if descriptor == "" || cf.Methods[i].Descriptor(cf.ConstantPool) == descriptor {
				return &cf.Methods[i]
			}
		}
	}
	return nil
}

func (cf *ClassFile) GetMethods(name string) []*MethodInfo {
	var methods []*MethodInfo
	for i := range cf.Methods {
		if cf.Methods[i].Name(cf.ConstantPool) == name {
			methods = append(methods, &cf.Methods[i])
		}
	}
	return methods
}

func (cf *ClassFile) GetAttribute(name string) Attribute {
	attr, _ := cf.Attributes.Named(name)
	return attr
}
