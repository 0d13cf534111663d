package classfile

import (
	"fmt"
)

type AttributeKind uint8

const (
	AttrUnrecognized AttributeKind = iota
	AttrConstantValue
	AttrCode
	AttrExceptions
	AttrInnerClasses
	AttrEnclosingMethod
	AttrSynthetic
	AttrSignature
	AttrSourceFile
	AttrSourceDebugExtension
	AttrLineNumberTable
	AttrLocalVariableTable
	AttrLocalVariableTypeTable
	AttrDeprecated
	AttrBootstrapMethods
	AttrMethodParameters
	AttrNestHost
	AttrNestMembers
	AttrPermittedSubclasses
)

var attributeKindNames = [...]string{
	AttrUnrecognized:           "Unrecognized",
	AttrConstantValue:          "ConstantValue",
	AttrCode:                   "Code",
	AttrExceptions:             "Exceptions",
	AttrInnerClasses:           "InnerClasses",
	AttrEnclosingMethod:        "EnclosingMethod",
	AttrSynthetic:              "Synthetic",
	AttrSignature:              "Signature",
	AttrSourceFile:             "SourceFile",
	AttrSourceDebugExtension:   "SourceDebugExtension",
	AttrLineNumberTable:        "LineNumberTable",
	AttrLocalVariableTable:     "LocalVariableTable",
	AttrLocalVariableTypeTable: "LocalVariableTypeTable",
	AttrDeprecated:             "Deprecated",
	AttrBootstrapMethods:       "BootstrapMethods",
	AttrMethodParameters:       "MethodParameters",
	AttrNestHost:               "NestHost",
	AttrNestMembers:            "NestMembers",
	AttrPermittedSubclasses:    "PermittedSubclasses",
}

func (k AttributeKind) String() string {
	if int(k) < len(attributeKindNames) {
		return attributeKindNames[k]
	}
	return fmt.Sprintf("AttributeKind(%d)", uint8(k))
}

// AttributeHeader is the common attribute prefix. Name is the resolved
// attribute name, empty when NameIndex does not resolve to Utf8.
type AttributeHeader struct {
	NameIndex uint16
	Name      string
	Length    uint32
}

func (h AttributeHeader) Header() AttributeHeader { return h }

type Attribute interface {
	Kind() AttributeKind
	Header() AttributeHeader
}

type Attributes []Attribute

// Named returns the first attribute whose resolved name is name.
func (attrs Attributes) Named(name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Header().Name == name {
			return a, true
		}
	}
	return nil, false
}

// Find returns the first attribute of type T.
//
//	code, ok := classfile.Find[*classfile.CodeAttribute](method.Attributes)
func Find[T Attribute](attrs Attributes) (T, bool) {
	for _, a := range attrs {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func FindAll[T Attribute](attrs Attributes) []T {
	var out []T
	for _, a := range attrs {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func Has[T Attribute](attrs Attributes) bool {
	_, ok := Find[T](attrs)
	return ok
}

type ConstantValueAttribute struct {
	AttributeHeader
	ConstantValueIndex uint16
}

type CodeAttribute struct {
	AttributeHeader
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	Instructions   []Instruction
	ExceptionTable []ExceptionTableEntry
	Attributes     Attributes
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// IsCatchAll reports a handler with no catch type, as emitted for finally.
func (e ExceptionTableEntry) IsCatchAll() bool {
	return e.CatchType == 0
}

type ExceptionsAttribute struct {
	AttributeHeader
	ExceptionIndexTable []uint16
}

type InnerClassesAttribute struct {
	AttributeHeader
	Classes []InnerClassEntry
}

// InnerClassEntry: OuterClassInfoIndex is 0 for local and anonymous classes,
// InnerNameIndex is 0 for anonymous ones.
type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

func (e InnerClassEntry) IsAnonymous() bool { return e.InnerNameIndex == 0 }
func (e InnerClassEntry) IsMember() bool    { return e.OuterClassInfoIndex != 0 }

type EnclosingMethodAttribute struct {
	AttributeHeader
	ClassIndex  uint16
	MethodIndex uint16
}

type SyntheticAttribute struct {
	AttributeHeader
}

type SignatureAttribute struct {
	AttributeHeader
	SignatureIndex uint16
}

type SourceFileAttribute struct {
	AttributeHeader
	SourceFileIndex uint16
}

type SourceDebugExtensionAttribute struct {
	AttributeHeader
	DebugExtension string
}

type LineNumberTableAttribute struct {
	AttributeHeader
	LineNumberTable []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// LineAt returns the source line covering code offset pc, or 0 if none does.
func (a *LineNumberTableAttribute) LineAt(pc int) int {
	best, line := -1, 0
	for _, e := range a.LineNumberTable {
		if int(e.StartPC) <= pc && int(e.StartPC) > best {
			best, line = int(e.StartPC), int(e.LineNumber)
		}
	}
	return line
}

type LocalVariableTableAttribute struct {
	AttributeHeader
	LocalVariableTable []LocalVariableEntry
}

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type LocalVariableTypeTableAttribute struct {
	AttributeHeader
	LocalVariableTypeTable []LocalVariableTypeEntry
}

type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

type DeprecatedAttribute struct {
	AttributeHeader
}

type BootstrapMethodsAttribute struct {
	AttributeHeader
	BootstrapMethods []BootstrapMethod
}

type BootstrapMethod struct {
	BootstrapMethodRef uint16
	BootstrapArguments []uint16
}

type MethodParametersAttribute struct {
	AttributeHeader
	Parameters []MethodParameter
}

type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

type NestHostAttribute struct {
	AttributeHeader
	HostClassIndex uint16
}

type NestMembersAttribute struct {
	AttributeHeader
	Classes []uint16
}

type PermittedSubclassesAttribute struct {
	AttributeHeader
	Classes []uint16
}

// UnrecognizedAttribute keeps an attribute this package has no decoder for,
// byte for byte.
type UnrecognizedAttribute struct {
	AttributeHeader
	Data []byte
}

func (*ConstantValueAttribute) Kind() AttributeKind          { return AttrConstantValue }
func (*CodeAttribute) Kind() AttributeKind                   { return AttrCode }
func (*ExceptionsAttribute) Kind() AttributeKind             { return AttrExceptions }
func (*InnerClassesAttribute) Kind() AttributeKind           { return AttrInnerClasses }
func (*EnclosingMethodAttribute) Kind() AttributeKind        { return AttrEnclosingMethod }
func (*SyntheticAttribute) Kind() AttributeKind              { return AttrSynthetic }
func (*SignatureAttribute) Kind() AttributeKind              { return AttrSignature }
func (*SourceFileAttribute) Kind() AttributeKind             { return AttrSourceFile }
func (*SourceDebugExtensionAttribute) Kind() AttributeKind   { return AttrSourceDebugExtension }
func (*LineNumberTableAttribute) Kind() AttributeKind        { return AttrLineNumberTable }
func (*LocalVariableTableAttribute) Kind() AttributeKind     { return AttrLocalVariableTable }
func (*LocalVariableTypeTableAttribute) Kind() AttributeKind { return AttrLocalVariableTypeTable }
func (*DeprecatedAttribute) Kind() AttributeKind             { return AttrDeprecated }
func (*BootstrapMethodsAttribute) Kind() AttributeKind       { return AttrBootstrapMethods }
func (*MethodParametersAttribute) Kind() AttributeKind       { return AttrMethodParameters }
func (*NestHostAttribute) Kind() AttributeKind               { return AttrNestHost }
func (*NestMembersAttribute) Kind() AttributeKind            { return AttrNestMembers }
func (*PermittedSubclassesAttribute) Kind() AttributeKind    { return AttrPermittedSubclasses }
func (*UnrecognizedAttribute) Kind() AttributeKind           { return AttrUnrecognized }

type attributeDecoder struct {
	// length is the mandated attribute_length, or -1 when it varies.
	length int
	decode func(r *reader, cp ConstantPool, h AttributeHeader) (Attribute, error)
}

var attributeDecoders map[string]attributeDecoder

func init() {
	attributeDecoders = map[string]attributeDecoder{
		"ConstantValue":          {2, decodeConstantValue},
		"Code":                   {-1, decodeCode},
		"Exceptions":             {-1, decodeExceptions},
		"InnerClasses":           {-1, decodeInnerClasses},
		"EnclosingMethod":        {4, decodeEnclosingMethod},
		"Synthetic":              {0, decodeSynthetic},
		"Signature":              {2, decodeSignature},
		"SourceFile":             {2, decodeSourceFile},
		"SourceDebugExtension":   {-1, decodeSourceDebugExtension},
		"LineNumberTable":        {-1, decodeLineNumberTable},
		"LocalVariableTable":     {-1, decodeLocalVariableTable},
		"LocalVariableTypeTable": {-1, decodeLocalVariableTypeTable},
		"Deprecated":             {-1, decodeDeprecated},
		"BootstrapMethods":       {-1, decodeBootstrapMethods},
		"MethodParameters":       {-1, decodeMethodParameters},
		"NestHost":               {2, decodeNestHost},
		"NestMembers":            {-1, decodeNestMembers},
		"PermittedSubclasses":    {-1, decodePermittedSubclasses},
	}
}

func readAttributes(r *reader, cp ConstantPool) (Attributes, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read attributes count: %w", r.err)
	}
	attrs := make(Attributes, 0, count)
	for i := 0; i < int(count); i++ {
		attr, err := readAttribute(r, cp)
		if err != nil {
			return nil, fmt.Errorf("failed to read attribute %d: %w", i, err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// readAttribute reads one attribute and dispatches on its name. The payload
// is decoded from a reader holding exactly attribute_length bytes, so a
// decoder that stops short or wants more is caught here.
func readAttribute(r *reader, cp ConstantPool) (Attribute, error) {
	start := r.offset()
	h := AttributeHeader{NameIndex: r.readU2()}
	h.Length = r.readU4()
	if r.err != nil {
		return nil, r.err
	}
	h.Name = cp.GetUtf8(h.NameIndex)

	dec, ok := attributeDecoders[h.Name]
	if !ok {
		data := r.readBytes(int(h.Length))
		if r.err != nil {
			return nil, r.err
		}
		log().Debugf("keeping unrecognized attribute %q (%d bytes) at offset %d", h.Name, h.Length, start)
		return &UnrecognizedAttribute{AttributeHeader: h, Data: data}, nil
	}

	if dec.length >= 0 && h.Length != uint32(dec.length) {
		return nil, corruptf(start, "%s attribute has length %d, must be %d", h.Name, h.Length, dec.length)
	}

	body := r.sub(int(h.Length))
	if body.err != nil {
		return nil, body.err
	}
	attr, err := dec.decode(body, cp, h)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s attribute: %w", h.Name, err)
	}
	if body.err != nil {
		return nil, corruptf(start, "%s attribute reads past its declared length %d", h.Name, h.Length)
	}
	if n := body.remaining(); n != 0 {
		return nil, corruptf(start, "%s attribute leaves %d of its %d bytes unread", h.Name, n, h.Length)
	}
	return attr, nil
}

func readU2Table(r *reader) []uint16 {
	count := r.readU2()
	if r.err != nil || int(count)*2 > r.remaining() {
		r.take(int(count) * 2)
		return nil
	}
	table := make([]uint16, count)
	for i := range table {
		table[i] = r.readU2()
	}
	return table
}

func decodeConstantValue(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &ConstantValueAttribute{AttributeHeader: h, ConstantValueIndex: r.readU2()}, nil
}

func decodeCode(r *reader, cp ConstantPool, h AttributeHeader) (Attribute, error) {
	code := &CodeAttribute{
		AttributeHeader: h,
		MaxStack:        r.readU2(),
		MaxLocals:       r.readU2(),
	}
	codeLength := r.readU4()
	codeOffset := r.offset()
	code.Code = r.readBytes(int(codeLength))
	if r.err != nil {
		return nil, r.err
	}

	insts, err := DecodeInstructions(code.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to decode code array at offset %d: %w", codeOffset, err)
	}
	code.Instructions = insts

	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}
	if int(count)*8 > r.remaining() {
		return nil, corruptf(r.offset(), "exception table of %d entries exceeds the Code attribute", count)
	}
	code.ExceptionTable = make([]ExceptionTableEntry, count)
	for i := range code.ExceptionTable {
		code.ExceptionTable[i] = ExceptionTableEntry{
			StartPC:   r.readU2(),
			EndPC:     r.readU2(),
			HandlerPC: r.readU2(),
			CatchType: r.readU2(),
		}
	}

	code.Attributes, err = readAttributes(r, cp)
	if err != nil {
		return nil, err
	}
	return code, nil
}

func decodeExceptions(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &ExceptionsAttribute{AttributeHeader: h, ExceptionIndexTable: readU2Table(r)}, nil
}

func decodeInnerClasses(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	count := r.readU2()
	if int(count)*8 > r.remaining() {
		return nil, corruptf(r.offset(), "InnerClasses table of %d entries exceeds the attribute", count)
	}
	ic := &InnerClassesAttribute{AttributeHeader: h, Classes: make([]InnerClassEntry, count)}
	for i := range ic.Classes {
		ic.Classes[i] = InnerClassEntry{
			InnerClassInfoIndex:   r.readU2(),
			OuterClassInfoIndex:   r.readU2(),
			InnerNameIndex:        r.readU2(),
			InnerClassAccessFlags: AccessFlags(r.readU2()),
		}
	}
	return ic, nil
}

func decodeEnclosingMethod(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &EnclosingMethodAttribute{
		AttributeHeader: h,
		ClassIndex:      r.readU2(),
		MethodIndex:     r.readU2(),
	}, nil
}

func decodeSynthetic(_ *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &SyntheticAttribute{AttributeHeader: h}, nil
}

func decodeSignature(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &SignatureAttribute{AttributeHeader: h, SignatureIndex: r.readU2()}, nil
}

func decodeSourceFile(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &SourceFileAttribute{AttributeHeader: h, SourceFileIndex: r.readU2()}, nil
}

func decodeSourceDebugExtension(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &SourceDebugExtensionAttribute{
		AttributeHeader: h,
		DebugExtension:  decodeModifiedUtf8(r.take(r.remaining())),
	}, nil
}

func decodeLineNumberTable(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	count := r.readU2()
	if int(count)*4 > r.remaining() {
		return nil, corruptf(r.offset(), "LineNumberTable of %d entries exceeds the attribute", count)
	}
	lnt := &LineNumberTableAttribute{AttributeHeader: h, LineNumberTable: make([]LineNumberEntry, count)}
	for i := range lnt.LineNumberTable {
		lnt.LineNumberTable[i] = LineNumberEntry{StartPC: r.readU2(), LineNumber: r.readU2()}
	}
	return lnt, nil
}

func decodeLocalVariableTable(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	count := r.readU2()
	if int(count)*10 > r.remaining() {
		return nil, corruptf(r.offset(), "LocalVariableTable of %d entries exceeds the attribute", count)
	}
	lvt := &LocalVariableTableAttribute{AttributeHeader: h, LocalVariableTable: make([]LocalVariableEntry, count)}
	for i := range lvt.LocalVariableTable {
		lvt.LocalVariableTable[i] = LocalVariableEntry{
			StartPC:         r.readU2(),
			Length:          r.readU2(),
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
			Index:           r.readU2(),
		}
	}
	return lvt, nil
}

func decodeLocalVariableTypeTable(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	count := r.readU2()
	if int(count)*10 > r.remaining() {
		return nil, corruptf(r.offset(), "LocalVariableTypeTable of %d entries exceeds the attribute", count)
	}
	lvtt := &LocalVariableTypeTableAttribute{AttributeHeader: h, LocalVariableTypeTable: make([]LocalVariableTypeEntry, count)}
	for i := range lvtt.LocalVariableTypeTable {
		lvtt.LocalVariableTypeTable[i] = LocalVariableTypeEntry{
			StartPC:        r.readU2(),
			Length:         r.readU2(),
			NameIndex:      r.readU2(),
			SignatureIndex: r.readU2(),
			Index:          r.readU2(),
		}
	}
	return lvtt, nil
}

func decodeDeprecated(_ *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &DeprecatedAttribute{AttributeHeader: h}, nil
}

func decodeBootstrapMethods(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	count := r.readU2()
	if int(count)*4 > r.remaining() {
		return nil, corruptf(r.offset(), "BootstrapMethods table of %d entries exceeds the attribute", count)
	}
	bm := &BootstrapMethodsAttribute{AttributeHeader: h, BootstrapMethods: make([]BootstrapMethod, 0, count)}
	for i := 0; i < int(count) && r.err == nil; i++ {
		bm.BootstrapMethods = append(bm.BootstrapMethods, BootstrapMethod{
			BootstrapMethodRef: r.readU2(),
			BootstrapArguments: readU2Table(r),
		})
	}
	return bm, nil
}

func decodeMethodParameters(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	count := r.readU1()
	if int(count)*4 > r.remaining() {
		return nil, corruptf(r.offset(), "MethodParameters table of %d entries exceeds the attribute", count)
	}
	mp := &MethodParametersAttribute{AttributeHeader: h, Parameters: make([]MethodParameter, count)}
	for i := range mp.Parameters {
		mp.Parameters[i] = MethodParameter{NameIndex: r.readU2(), AccessFlags: AccessFlags(r.readU2())}
	}
	return mp, nil
}

func decodeNestHost(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &NestHostAttribute{AttributeHeader: h, HostClassIndex: r.readU2()}, nil
}

func decodeNestMembers(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &NestMembersAttribute{AttributeHeader: h, Classes: readU2Table(r)}, nil
}

func decodePermittedSubclasses(r *reader, _ ConstantPool, h AttributeHeader) (Attribute, error) {
	return &PermittedSubclassesAttribute{AttributeHeader: h, Classes: readU2Table(r)}, nil
}
