package classfile

import "strings"

const (
	Magic = 0xCAFEBABE

	// RootClassName is what a super_class index of 0 denotes.
	RootClassName = "java/lang/Object"
)

type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

func (f AccessFlags) IsPublic() bool       { return f&AccPublic != 0 }
func (f AccessFlags) IsPrivate() bool      { return f&AccPrivate != 0 }
func (f AccessFlags) IsProtected() bool    { return f&AccProtected != 0 }
func (f AccessFlags) IsStatic() bool       { return f&AccStatic != 0 }
func (f AccessFlags) IsFinal() bool        { return f&AccFinal != 0 }
func (f AccessFlags) IsSuper() bool        { return f&AccSuper != 0 }
func (f AccessFlags) IsSynchronized() bool { return f&AccSynchronized != 0 }
func (f AccessFlags) IsVolatile() bool     { return f&AccVolatile != 0 }
func (f AccessFlags) IsBridge() bool       { return f&AccBridge != 0 }
func (f AccessFlags) IsTransient() bool    { return f&AccTransient != 0 }
func (f AccessFlags) IsVarargs() bool      { return f&AccVarargs != 0 }
func (f AccessFlags) IsNative() bool       { return f&AccNative != 0 }
func (f AccessFlags) IsInterface() bool    { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool     { return f&AccAbstract != 0 }
func (f AccessFlags) IsStrict() bool       { return f&AccStrict != 0 }
func (f AccessFlags) IsSynthetic() bool    { return f&AccSynthetic != 0 }
func (f AccessFlags) IsAnnotation() bool   { return f&AccAnnotation != 0 }
func (f AccessFlags) IsEnum() bool         { return f&AccEnum != 0 }
func (f AccessFlags) IsModule() bool       { return f&AccModule != 0 }

// FlagContext selects how overlapping bits (0x0020, 0x0040, 0x0080) are
// interpreted when rendering.
type FlagContext int

const (
	ClassFlags FlagContext = iota
	FieldFlags
	MethodFlags
	NestedClassFlags
)

// Access returns the visibility keyword for the context, or "" for
// package-private. Top-level classes can only be public.
func (f AccessFlags) Access(ctx FlagContext) string {
	switch {
	case f.IsPublic():
		return "public"
	case ctx == ClassFlags:
		return ""
	case f.IsPrivate():
		return "private"
	case f.IsProtected():
		return "protected"
	}
	return ""
}

// Modifiers lists every set flag except visibility, using the names that
// apply to the given context.
func (f AccessFlags) Modifiers(ctx FlagContext) []string {
	var mods []string
	add := func(cond bool, name string) {
		if cond {
			mods = append(mods, name)
		}
	}

	switch ctx {
	case ClassFlags, NestedClassFlags:
		add(ctx == NestedClassFlags && f.IsStatic(), "static")
		add(f.IsFinal(), "final")
		add(ctx == ClassFlags && f.IsSuper(), "super")
		add(f.IsInterface(), "interface")
		add(f.IsAbstract(), "abstract")
		add(f.IsSynthetic(), "synthetic")
		add(f.IsAnnotation(), "annotation")
		add(f.IsEnum(), "enum")
		add(ctx == ClassFlags && f.IsModule(), "module")
	case FieldFlags:
		add(f.IsStatic(), "static")
		add(f.IsFinal(), "final")
		add(f.IsVolatile(), "volatile")
		add(f.IsTransient(), "transient")
		add(f.IsSynthetic(), "synthetic")
		add(f.IsEnum(), "enum")
	case MethodFlags:
		add(f.IsStatic(), "static")
		add(f.IsFinal(), "final")
		add(f.IsSynchronized(), "synchronized")
		add(f.IsBridge(), "bridge")
		add(f.IsVarargs(), "varargs")
		add(f.IsNative(), "native")
		add(f.IsAbstract(), "abstract")
		add(f.IsStrict(), "strict")
		add(f.IsSynthetic(), "synthetic")
	}
	return mods
}

// compilerOnly flags never appear in source text.
var compilerOnly = map[string]bool{
	"super":     true,
	"synthetic": true,
	"bridge":    true,
	"strict":    true,
}

// SourceModifiers is Modifiers without the flags that only the compiler sets.
func (f AccessFlags) SourceModifiers(ctx FlagContext) []string {
	var mods []string
	for _, m := range f.Modifiers(ctx) {
		if !compilerOnly[m] {
			mods = append(mods, m)
		}
	}
	return mods
}

// Display joins the visibility and source-level modifiers, e.g. "public final".
func (f AccessFlags) Display(ctx FlagContext) string {
	parts := f.SourceModifiers(ctx)
	if access := f.Access(ctx); access != "" {
		parts = append([]string{access}, parts...)
	}
	return strings.Join(parts, " ")
}

// ConstantTag is a constant pool tag. Values above 0xff are markers that
// never appear as a tag byte in a class file.
type ConstantTag uint16

const (
	ConstantUtf8               ConstantTag = 1
	ConstantInteger            ConstantTag = 3
	ConstantFloat              ConstantTag = 4
	ConstantLong               ConstantTag = 5
	ConstantDouble             ConstantTag = 6
	ConstantClass              ConstantTag = 7
	ConstantString             ConstantTag = 8
	ConstantFieldref           ConstantTag = 9
	ConstantMethodref          ConstantTag = 10
	ConstantInterfaceMethodref ConstantTag = 11
	ConstantNameAndType        ConstantTag = 12
	ConstantMethodHandle       ConstantTag = 15
	ConstantMethodType         ConstantTag = 16
	ConstantDynamic            ConstantTag = 17
	ConstantInvokeDynamic      ConstantTag = 18
	ConstantModule             ConstantTag = 19
	ConstantPackage            ConstantTag = 20

	// ConstantPadding marks the slot following a Long or Double.
	ConstantPadding ConstantTag = 0x100

	// ConstantUnrecognized is reported for a tag byte this package does
	// not know; the byte itself is kept in ConstantUnrecognizedInfo.
	ConstantUnrecognized ConstantTag = 0x101
)

var constantTagNames = map[ConstantTag]string{
	ConstantUtf8:               "Utf8",
	ConstantInteger:            "Integer",
	ConstantFloat:              "Float",
	ConstantLong:               "Long",
	ConstantDouble:             "Double",
	ConstantClass:              "Class",
	ConstantString:             "String",
	ConstantFieldref:           "Fieldref",
	ConstantMethodref:          "Methodref",
	ConstantInterfaceMethodref: "InterfaceMethodref",
	ConstantNameAndType:        "NameAndType",
	ConstantMethodHandle:       "MethodHandle",
	ConstantMethodType:         "MethodType",
	ConstantDynamic:            "Dynamic",
	ConstantInvokeDynamic:      "InvokeDynamic",
	ConstantModule:             "Module",
	ConstantPackage:            "Package",
	ConstantPadding:            "Padding",
	ConstantUnrecognized:       "Unrecognized",
}

func (t ConstantTag) String() string {
	if name, ok := constantTagNames[t]; ok {
		return name
	}
	return "Unrecognized"
}

type MethodHandleKind uint8

const (
	RefGetField         MethodHandleKind = 1
	RefGetStatic        MethodHandleKind = 2
	RefPutField         MethodHandleKind = 3
	RefPutStatic        MethodHandleKind = 4
	RefInvokeVirtual    MethodHandleKind = 5
	RefInvokeStatic     MethodHandleKind = 6
	RefInvokeSpecial    MethodHandleKind = 7
	RefNewInvokeSpecial MethodHandleKind = 8
	RefInvokeInterface  MethodHandleKind = 9
)

// Version is a class-file major.minor pair.
type Version struct {
	Major uint16
	Minor uint16
}

// DefaultSupportedVersion is the newest format revision whose layout this
// package has been checked against (Java 21).
var DefaultSupportedVersion = Version{Major: 65, Minor: 0}

// Newer reports whether v is strictly newer than other.
func (v Version) Newer(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor > other.Minor
}
