package classfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
)

// log resolves the logger on use so that a backend registered after this
// package initializes still takes effect.
func log() commonlog.Logger {
	return commonlog.GetLogger("jyzer.classfile")
}

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

type ConstantFieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

type ConstantDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamicInfo) Tag() ConstantTag { return ConstantDynamic }

type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() ConstantTag { return ConstantInvokeDynamic }

type ConstantModuleInfo struct {
	NameIndex uint16
}

func (c *ConstantModuleInfo) Tag() ConstantTag { return ConstantModule }

type ConstantPackageInfo struct {
	NameIndex uint16
}

func (c *ConstantPackageInfo) Tag() ConstantTag { return ConstantPackage }

// ConstantPaddingInfo occupies the slot after a Long or Double. It carries
// no data and is never returned by lookups.
type ConstantPaddingInfo struct{}

func (c *ConstantPaddingInfo) Tag() ConstantTag { return ConstantPadding }

// ConstantUnrecognizedInfo records a tag this package does not know. No
// payload bytes are consumed for it.
type ConstantUnrecognizedInfo struct {
	RawTag uint8
}

func (c *ConstantUnrecognizedInfo) Tag() ConstantTag { return ConstantUnrecognized }

// ConstantPool is indexed exactly like the class file: slot 0 is the
// reserved sentinel (nil) and valid indices run from 1 to Count()-1.
type ConstantPool []ConstantPoolEntry

// Count is the constant_pool_count declared in the class file.
func (cp ConstantPool) Count() int {
	return len(cp)
}

// Slot returns whatever occupies index, padding included. Use it for
// listings; use Get for resolution.
func (cp ConstantPool) Slot(index uint16) ConstantPoolEntry {
	if int(index) >= len(cp) {
		return nil
	}
	return cp[index]
}

// Get returns the entry at index. The sentinel, padding slots and
// out-of-range indices are reported as absent.
func (cp ConstantPool) Get(index uint16) (ConstantPoolEntry, bool) {
	if index == 0 || int(index) >= len(cp) {
		return nil, false
	}
	switch cp[index].(type) {
	case nil, *ConstantPaddingInfo:
		return nil, false
	}
	return cp[index], true
}

func lookup[T ConstantPoolEntry](cp ConstantPool, index uint16) (T, bool) {
	var zero T
	entry, ok := cp.Get(index)
	if !ok {
		return zero, false
	}
	typed, ok := entry.(T)
	return typed, ok
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if entry, ok := lookup[*ConstantUtf8Info](cp, index); ok {
		return entry.Value
	}
	return ""
}

// GetClassName resolves a Class entry to its internal name. Index 0 names
// the root class, which is how a class without an explicit superclass is
// encoded.
func (cp ConstantPool) GetClassName(index uint16) string {
	if index == 0 {
		return RootClassName
	}
	if entry, ok := lookup[*ConstantClassInfo](cp, index); ok {
		return cp.GetUtf8(entry.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetNameAndType(index uint16) (name, descriptor string) {
	if entry, ok := lookup[*ConstantNameAndTypeInfo](cp, index); ok {
		return cp.GetUtf8(entry.NameIndex), cp.GetUtf8(entry.DescriptorIndex)
	}
	return "", ""
}

// NameAndTypeSignature renders a NameAndType entry readably, for example
// "java.lang.String name" for a field or "void run(int)" for a method.
func (cp ConstantPool) NameAndTypeSignature(index uint16) string {
	name, desc := cp.GetNameAndType(index)
	if name == "" && desc == "" {
		return ""
	}
	if strings.HasPrefix(desc, "(") {
		md := ParseMethodDescriptor(desc)
		if md == nil {
			return name + desc
		}
		params := make([]string, len(md.Parameters))
		for i := range md.Parameters {
			params[i] = md.Parameters[i].String()
		}
		ret := "?"
		if md.ReturnType != nil {
			ret = md.ReturnType.String()
		}
		return fmt.Sprintf("%s %s(%s)", ret, name, strings.Join(params, ", "))
	}
	return TypeName(desc) + " " + name
}

func (cp ConstantPool) GetString(index uint16) string {
	if entry, ok := lookup[*ConstantStringInfo](cp, index); ok {
		return cp.GetUtf8(entry.StringIndex)
	}
	return ""
}

func (cp ConstantPool) GetModuleName(index uint16) string {
	if entry, ok := lookup[*ConstantModuleInfo](cp, index); ok {
		return cp.GetUtf8(entry.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetPackageName(index uint16) string {
	if entry, ok := lookup[*ConstantPackageInfo](cp, index); ok {
		return cp.GetUtf8(entry.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetInteger(index uint16) (int32, bool) {
	if entry, ok := lookup[*ConstantIntegerInfo](cp, index); ok {
		return entry.Value, true
	}
	return 0, false
}

func (cp ConstantPool) GetLong(index uint16) (int64, bool) {
	if entry, ok := lookup[*ConstantLongInfo](cp, index); ok {
		return entry.Value, true
	}
	return 0, false
}

func (cp ConstantPool) GetFloat(index uint16) (float32, bool) {
	if entry, ok := lookup[*ConstantFloatInfo](cp, index); ok {
		return entry.Value, true
	}
	return 0, false
}

func (cp ConstantPool) GetDouble(index uint16) (float64, bool) {
	if entry, ok := lookup[*ConstantDoubleInfo](cp, index); ok {
		return entry.Value, true
	}
	return 0, false
}

// LiteralDisplay renders an Integer, Float, Long, Double or String entry the
// way it would appear in source. Other kinds yield "".
func (cp ConstantPool) LiteralDisplay(index uint16) string {
	entry, ok := cp.Get(index)
	if !ok {
		return ""
	}
	switch e := entry.(type) {
	case *ConstantIntegerInfo:
		return strconv.FormatInt(int64(e.Value), 10)
	case *ConstantLongInfo:
		return strconv.FormatInt(e.Value, 10) + "L"
	case *ConstantFloatInfo:
		return formatFloat(float64(e.Value), 32) + "f"
	case *ConstantDoubleInfo:
		return formatFloat(e.Value, 64) + "d"
	case *ConstantStringInfo:
		return strconv.Quote(cp.GetUtf8(e.StringIndex))
	}
	return ""
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func (cp ConstantPool) memberRef(index uint16) (classIndex, natIndex uint16, ok bool) {
	entry, ok := cp.Get(index)
	if !ok {
		return 0, 0, false
	}
	switch e := entry.(type) {
	case *ConstantFieldrefInfo:
		return e.ClassIndex, e.NameAndTypeIndex, true
	case *ConstantMethodrefInfo:
		return e.ClassIndex, e.NameAndTypeIndex, true
	case *ConstantInterfaceMethodrefInfo:
		return e.ClassIndex, e.NameAndTypeIndex, true
	}
	return 0, 0, false
}

func (cp ConstantPool) resolveMember(classIndex, natIndex uint16) (className, name, descriptor string) {
	if classIndex == 0 {
		return "", "", ""
	}
	className = cp.GetClassName(classIndex)
	name, descriptor = cp.GetNameAndType(natIndex)
	return
}

func (cp ConstantPool) GetFieldref(index uint16) (className, name, descriptor string) {
	if entry, ok := lookup[*ConstantFieldrefInfo](cp, index); ok {
		return cp.resolveMember(entry.ClassIndex, entry.NameAndTypeIndex)
	}
	return "", "", ""
}

func (cp ConstantPool) GetMethodref(index uint16) (className, name, descriptor string) {
	if entry, ok := lookup[*ConstantMethodrefInfo](cp, index); ok {
		return cp.resolveMember(entry.ClassIndex, entry.NameAndTypeIndex)
	}
	return "", "", ""
}

func (cp ConstantPool) GetInterfaceMethodref(index uint16) (className, name, descriptor string) {
	if entry, ok := lookup[*ConstantInterfaceMethodrefInfo](cp, index); ok {
		return cp.resolveMember(entry.ClassIndex, entry.NameAndTypeIndex)
	}
	return "", "", ""
}

func (cp ConstantPool) GetMethodHandle(index uint16) *ConstantMethodHandleInfo {
	entry, _ := lookup[*ConstantMethodHandleInfo](cp, index)
	return entry
}

func (cp ConstantPool) GetMethodType(index uint16) string {
	if entry, ok := lookup[*ConstantMethodTypeInfo](cp, index); ok {
		return cp.GetUtf8(entry.DescriptorIndex)
	}
	return ""
}

func (cp ConstantPool) GetDynamic(index uint16) *ConstantDynamicInfo {
	entry, _ := lookup[*ConstantDynamicInfo](cp, index)
	return entry
}

func (cp ConstantPool) GetInvokeDynamic(index uint16) *ConstantInvokeDynamicInfo {
	entry, _ := lookup[*ConstantInvokeDynamicInfo](cp, index)
	return entry
}

// Describe renders the entry at index for a pool listing, e.g.
// "Methodref java/io/PrintStream.println:(Ljava/lang/String;)V".
func (cp ConstantPool) Describe(index uint16) string {
	slot := cp.Slot(index)
	if slot == nil {
		return ""
	}
	tag := slot.Tag().String()
	switch e := slot.(type) {
	case *ConstantPaddingInfo:
		return tag
	case *ConstantUnrecognizedInfo:
		return fmt.Sprintf("%s tag=%d", tag, e.RawTag)
	case *ConstantUtf8Info:
		return tag + " " + e.Value
	case *ConstantIntegerInfo, *ConstantFloatInfo, *ConstantLongInfo, *ConstantDoubleInfo, *ConstantStringInfo:
		return tag + " " + cp.LiteralDisplay(index)
	case *ConstantClassInfo:
		return tag + " " + cp.GetUtf8(e.NameIndex)
	case *ConstantFieldrefInfo, *ConstantMethodrefInfo, *ConstantInterfaceMethodrefInfo:
		classIndex, natIndex, _ := cp.memberRef(index)
		class, name, desc := cp.resolveMember(classIndex, natIndex)
		return fmt.Sprintf("%s %s.%s:%s", tag, class, name, desc)
	case *ConstantNameAndTypeInfo:
		name, desc := cp.GetNameAndType(index)
		return fmt.Sprintf("%s %s:%s", tag, name, desc)
	case *ConstantMethodHandleInfo:
		return fmt.Sprintf("%s kind=%d %s", tag, e.ReferenceKind, cp.Describe(e.ReferenceIndex))
	case *ConstantMethodTypeInfo:
		return tag + " " + cp.GetUtf8(e.DescriptorIndex)
	case *ConstantDynamicInfo:
		name, desc := cp.GetNameAndType(e.NameAndTypeIndex)
		return fmt.Sprintf("%s #%d:%s:%s", tag, e.BootstrapMethodAttrIndex, name, desc)
	case *ConstantInvokeDynamicInfo:
		name, desc := cp.GetNameAndType(e.NameAndTypeIndex)
		return fmt.Sprintf("%s #%d:%s:%s", tag, e.BootstrapMethodAttrIndex, name, desc)
	case *ConstantModuleInfo:
		return tag + " " + cp.GetUtf8(e.NameIndex)
	case *ConstantPackageInfo:
		return tag + " " + cp.GetUtf8(e.NameIndex)
	}
	return tag
}

// readConstantPool reads constant_pool_count followed by its entries. Long
// and Double entries take two slots; the second one holds padding.
func readConstantPool(r *reader) (ConstantPool, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", r.err)
	}
	if count == 0 {
		return nil, corruptf(r.offset()-2, "constant pool count is 0")
	}

	cp := make(ConstantPool, count)
	for i := 1; i < int(count); i++ {
		offset := r.offset()
		entry, wide := readConstantPoolEntry(r)
		if r.err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, r.err)
		}
		if u, ok := entry.(*ConstantUnrecognizedInfo); ok {
			log().Warningf("unrecognized constant pool tag %d at index %d (offset %d)", u.RawTag, i, offset)
		}
		cp[i] = entry
		if wide {
			i++
			if i >= int(count) {
				return nil, corruptf(offset, "%s entry at index %d overflows the constant pool", entry.Tag(), i-1)
			}
			cp[i] = &ConstantPaddingInfo{}
		}
	}
	return cp, nil
}

// readConstantPoolEntry decodes one tagged entry and reports whether it
// occupies two slots.
func readConstantPoolEntry(r *reader) (ConstantPoolEntry, bool) {
	tag := ConstantTag(r.readU1())

	switch tag {
	case ConstantUtf8:
		length := r.readU2()
		return &ConstantUtf8Info{Value: decodeModifiedUtf8(r.take(int(length)))}, false

	case ConstantInteger:
		return &ConstantIntegerInfo{Value: r.readI4()}, false

	case ConstantFloat:
		return &ConstantFloatInfo{Value: math.Float32frombits(r.readU4())}, false

	case ConstantLong:
		high := r.readU4()
		low := r.readU4()
		return &ConstantLongInfo{Value: int64(uint64(high)<<32 | uint64(low))}, true

	case ConstantDouble:
		high := r.readU4()
		low := r.readU4()
		return &ConstantDoubleInfo{Value: math.Float64frombits(uint64(high)<<32 | uint64(low))}, true

	case ConstantClass:
		return &ConstantClassInfo{NameIndex: r.readU2()}, false

	case ConstantString:
		return &ConstantStringInfo{StringIndex: r.readU2()}, false

	case ConstantFieldref:
		return &ConstantFieldrefInfo{
			ClassIndex:       r.readU2(),
			NameAndTypeIndex: r.readU2(),
		}, false

	case ConstantMethodref:
		return &ConstantMethodrefInfo{
			ClassIndex:       r.readU2(),
			NameAndTypeIndex: r.readU2(),
		}, false

	case ConstantInterfaceMethodref:
		return &ConstantInterfaceMethodrefInfo{
			ClassIndex:       r.readU2(),
			NameAndTypeIndex: r.readU2(),
		}, false

	case ConstantNameAndType:
		return &ConstantNameAndTypeInfo{
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
		}, false

	case ConstantMethodHandle:
		return &ConstantMethodHandleInfo{
			ReferenceKind:  MethodHandleKind(r.readU1()),
			ReferenceIndex: r.readU2(),
		}, false

	case ConstantMethodType:
		return &ConstantMethodTypeInfo{DescriptorIndex: r.readU2()}, false

	case ConstantDynamic:
		return &ConstantDynamicInfo{
			BootstrapMethodAttrIndex: r.readU2(),
			NameAndTypeIndex:         r.readU2(),
		}, false

	case ConstantInvokeDynamic:
		return &ConstantInvokeDynamicInfo{
			BootstrapMethodAttrIndex: r.readU2(),
			NameAndTypeIndex:         r.readU2(),
		}, false

	case ConstantModule:
		return &ConstantModuleInfo{NameIndex: r.readU2()}, false

	case ConstantPackage:
		return &ConstantPackageInfo{NameIndex: r.readU2()}, false

	default:
		return &ConstantUnrecognizedInfo{RawTag: uint8(tag)}, false
	}
}

// decodeModifiedUtf8 decodes the class-file string encoding: NUL is two
// bytes and supplementary characters are surrogate pairs of three bytes each.
func decodeModifiedUtf8(bytes []byte) string {
	runes := make([]rune, 0, len(bytes))
	i := 0
	for i < len(bytes) {
		b := bytes[i]
		switch {
		case b&0x80 == 0:
			runes = append(runes, rune(b))
			i++
		case b&0xE0 == 0xC0:
			if i+1 >= len(bytes) {
				return string(runes)
			}
			runes = append(runes, rune(b&0x1F)<<6|rune(bytes[i+1]&0x3F))
			i += 2
		case b&0xF0 == 0xE0:
			if i+2 >= len(bytes) {
				return string(runes)
			}
			r := rune(b&0x0F)<<12 | rune(bytes[i+1]&0x3F)<<6 | rune(bytes[i+2]&0x3F)
			if r >= 0xD800 && r <= 0xDBFF && i+5 < len(bytes) && bytes[i+3] == 0xED {
				low := rune(bytes[i+3]&0x0F)<<12 | rune(bytes[i+4]&0x3F)<<6 | rune(bytes[i+5]&0x3F)
				if low >= 0xDC00 && low <= 0xDFFF {
					runes = append(runes, 0x10000+((r-0xD800)<<10)+(low-0xDC00))
					i += 6
					continue
				}
			}
			runes = append(runes, r)
			i += 3
		default:
			runes = append(runes, rune(b))
			i++
		}
	}
	return string(runes)
}
