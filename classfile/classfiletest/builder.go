// Package classfiletest assembles class-file bytes for tests of packages
// that consume decoded classes.
package classfiletest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rlegendi/jyzer/classfile"
)

// Builder accumulates a constant pool and member records. Pool helpers
// return the index they allocated; Long and Double take two indices.
type Builder struct {
	Major, Minor uint16
	Access       classfile.AccessFlags

	// ThisClass and SuperClass are pool indices; set SuperClass to 0 for
	// a root class or to any index to build a broken reference.
	ThisClass  uint16
	SuperClass uint16

	pool       []byte
	next       uint16
	utf8s      map[string]uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attributes [][]byte
}

func New(name string) *Builder {
	b := &Builder{
		Major:  61,
		Access: classfile.AccPublic | classfile.AccSuper,
		next:   1,
		utf8s:  map[string]uint16{},
	}
	b.ThisClass = b.Class(name)
	b.SuperClass = b.Class(classfile.RootClassName)
	return b
}

func U2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func U4(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func (b *Builder) entry(slots uint16, data []byte) uint16 {
	idx := b.next
	b.pool = append(b.pool, data...)
	b.next += slots
	return idx
}

func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	idx := b.entry(1, Concat([]byte{byte(classfile.ConstantUtf8)}, U2(uint16(len(s))), []byte(s)))
	b.utf8s[s] = idx
	return idx
}

func (b *Builder) Class(name string) uint16 {
	return b.entry(1, Concat([]byte{byte(classfile.ConstantClass)}, U2(b.Utf8(name))))
}

func (b *Builder) String(s string) uint16 {
	return b.entry(1, Concat([]byte{byte(classfile.ConstantString)}, U2(b.Utf8(s))))
}

func (b *Builder) Integer(v int32) uint16 {
	return b.entry(1, Concat([]byte{byte(classfile.ConstantInteger)}, U4(uint32(v))))
}

func (b *Builder) Float(v float32) uint16 {
	return b.entry(1, Concat([]byte{byte(classfile.ConstantFloat)}, U4(math.Float32bits(v))))
}

func (b *Builder) Long(v int64) uint16 {
	return b.entry(2, Concat([]byte{byte(classfile.ConstantLong)}, binary.BigEndian.AppendUint64(nil, uint64(v))))
}

func (b *Builder) Double(v float64) uint16 {
	return b.entry(2, Concat([]byte{byte(classfile.ConstantDouble)}, binary.BigEndian.AppendUint64(nil, math.Float64bits(v))))
}

// Raw appends one pool entry verbatim, tag byte included.
func (b *Builder) Raw(data ...byte) uint16 {
	return b.entry(1, data)
}

// PoolCount is the constant_pool_count the built class will declare.
func (b *Builder) PoolCount() uint16 {
	return b.next
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	n, d := b.Utf8(name), b.Utf8(desc)
	return b.entry(1, Concat([]byte{byte(classfile.ConstantNameAndType)}, U2(n), U2(d)))
}

func (b *Builder) ref(tag classfile.ConstantTag, class, name, desc string) uint16 {
	c := b.Class(class)
	nt := b.NameAndType(name, desc)
	return b.entry(1, Concat([]byte{byte(tag)}, U2(c), U2(nt)))
}

func (b *Builder) Methodref(class, name, desc string) uint16 {
	return b.ref(classfile.ConstantMethodref, class, name, desc)
}

func (b *Builder) InterfaceMethodref(class, name, desc string) uint16 {
	return b.ref(classfile.ConstantInterfaceMethodref, class, name, desc)
}

func (b *Builder) Fieldref(class, name, desc string) uint16 {
	return b.ref(classfile.ConstantFieldref, class, name, desc)
}

// Attr encodes an attribute whose declared length matches its payload.
func (b *Builder) Attr(name string, payload []byte) []byte {
	return b.AttrLength(name, uint32(len(payload)), payload)
}

// AttrLength encodes an attribute with an arbitrary declared length.
func (b *Builder) AttrLength(name string, length uint32, payload []byte) []byte {
	return Concat(U2(b.Utf8(name)), U4(length), payload)
}

// Handler is one exception table row.
type Handler struct {
	Start, End, PC, CatchType uint16
}

// Code encodes a Code attribute with an empty exception table.
func (b *Builder) Code(maxStack, maxLocals uint16, code []byte, attrs ...[]byte) []byte {
	return b.CodeWithHandlers(maxStack, maxLocals, code, nil, attrs...)
}

func (b *Builder) CodeWithHandlers(maxStack, maxLocals uint16, code []byte, handlers []Handler, attrs ...[]byte) []byte {
	payload := Concat(U2(maxStack), U2(maxLocals), U4(uint32(len(code))), code, U2(uint16(len(handlers))))
	for _, h := range handlers {
		payload = Concat(payload, U2(h.Start), U2(h.End), U2(h.PC), U2(h.CatchType))
	}
	payload = append(payload, U2(uint16(len(attrs)))...)
	for _, a := range attrs {
		payload = append(payload, a...)
	}
	return b.Attr("Code", payload)
}

func (b *Builder) member(access classfile.AccessFlags, name, desc string, attrs [][]byte) []byte {
	out := Concat(U2(uint16(access)), U2(b.Utf8(name)), U2(b.Utf8(desc)), U2(uint16(len(attrs))))
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

func (b *Builder) Field(access classfile.AccessFlags, name, desc string, attrs ...[]byte) {
	b.fields = append(b.fields, b.member(access, name, desc, attrs))
}

func (b *Builder) Method(access classfile.AccessFlags, name, desc string, attrs ...[]byte) {
	b.methods = append(b.methods, b.member(access, name, desc, attrs))
}

func (b *Builder) Implements(name string) {
	b.interfaces = append(b.interfaces, b.Class(name))
}

func (b *Builder) ClassAttribute(attrs ...[]byte) {
	b.attributes = append(b.attributes, attrs...)
}

func (b *Builder) Bytes() []byte {
	out := Concat(U4(classfile.Magic), U2(b.Minor), U2(b.Major), U2(b.next), b.pool,
		U2(uint16(b.Access)), U2(b.ThisClass), U2(b.SuperClass), U2(uint16(len(b.interfaces))))
	for _, i := range b.interfaces {
		out = append(out, U2(i)...)
	}
	for _, list := range [][][]byte{b.fields, b.methods, b.attributes} {
		out = append(out, U2(uint16(len(list)))...)
		for _, item := range list {
			out = append(out, item...)
		}
	}
	return out
}

// Decode parses the built bytes.
func (b *Builder) Decode() (*classfile.ClassFile, error) {
	return classfile.ParseBytes(b.Bytes())
}

// Parse decodes the built bytes and fails the test on error.
func (b *Builder) Parse(t testing.TB) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.ParseBytes(b.Bytes())
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	return cf
}

// WriteFile writes the built bytes under dir and returns the path.
func (b *Builder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Greeter is a small complete class used across tests:
//
//	public class com/example/Greeter implements java/lang/Runnable {
//	    public static final int COUNT = 3;
//	    private String name;
//	    public void run() { System.out.println("hi"); }
//	    public int pick(int) { switch ... }
//	}
func Greeter() *Builder {
	b := New("com/example/Greeter")
	b.Implements("java/lang/Runnable")

	b.Field(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, "COUNT", "I",
		b.Attr("ConstantValue", U2(b.Integer(3))))
	b.Field(classfile.AccPrivate, "name", "Ljava/lang/String;")

	out := b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	hi := b.String("hi")
	printlnRef := b.Methodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	run := Concat(
		[]byte{byte(classfile.OpGetstatic)}, U2(out),
		[]byte{byte(classfile.OpLdc), byte(hi)},
		[]byte{byte(classfile.OpInvokevirtual)}, U2(printlnRef),
		[]byte{byte(classfile.OpReturn)},
	)
	b.Method(classfile.AccPublic, "<init>", "()V", b.Code(1, 1, []byte{byte(classfile.OpReturn)}))
	b.Method(classfile.AccPublic, "run", "()V", b.Code(2, 1, run,
		b.Attr("LineNumberTable", Concat(U2(1), U2(0), U2(5)))))

	// iload_1; lookupswitch { 1: 20; default: 22 }; iconst_1; ireturn; iconst_0; ireturn
	pick := Concat(
		[]byte{byte(classfile.OpIload1), byte(classfile.OpLookupswitch), 0, 0},
		U4(21), U4(1), U4(1), U4(19),
		[]byte{byte(classfile.OpIconst1), byte(classfile.OpIreturn)},
		[]byte{byte(classfile.OpIconst0), byte(classfile.OpIreturn)},
	)
	b.Method(classfile.AccPublic, "pick", "(I)I", b.Code(1, 2, pick))

	b.ClassAttribute(b.Attr("SourceFile", U2(b.Utf8("Greeter.java"))))
	return b
}
