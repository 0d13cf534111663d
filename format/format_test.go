package format

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/rlegendi/jyzer/classfile"
	"github.com/rlegendi/jyzer/classfile/classfiletest"
)

func TestNewClass(t *testing.T) {
	c := NewClass(classfiletest.Greeter().Parse(t))

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Name", c.Name, "com.example.Greeter"},
		{"SimpleName", c.SimpleName, "Greeter"},
		{"Package", c.Package, "com.example"},
		{"SuperClass", c.SuperClass, "java.lang.Object"},
		{"Visibility", c.Visibility, "public"},
		{"Kind", c.Kind, "class"},
		{"SourceFile", c.SourceFile, "Greeter.java"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	if !reflect.DeepEqual(c.Interfaces, []string{"java.lang.Runnable"}) {
		t.Errorf("Interfaces = %v", c.Interfaces)
	}
	if c.Version != (Version{Major: 61}) {
		t.Errorf("Version = %+v, want 61.0", c.Version)
	}

	if len(c.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(c.Fields))
	}
	count := c.Fields[0]
	if count.Name != "COUNT" || count.Type != (Type{Name: "int"}) || count.Constant != "3" {
		t.Errorf("Fields[0] = %+v", count)
	}
	if !reflect.DeepEqual(count.Modifiers, []string{"static", "final"}) {
		t.Errorf("Fields[0].Modifiers = %v", count.Modifiers)
	}
	if c.Fields[1].Visibility != "private" || c.Fields[1].Type.Name != "java.lang.String" {
		t.Errorf("Fields[1] = %+v", c.Fields[1])
	}

	if len(c.Methods) != 3 {
		t.Fatalf("len(Methods) = %d, want 3", len(c.Methods))
	}
	pick := c.Methods[2]
	if pick.Name != "pick" || pick.ReturnType.Name != "int" || len(pick.Parameters) != 1 {
		t.Errorf("Methods[2] = %+v", pick)
	}
	if pick.CodeLength != 24 || pick.Instructions != 6 {
		t.Errorf("pick code length %d, %d instructions; want 24, 6", pick.CodeLength, pick.Instructions)
	}
}

func TestNewClassInterfaceWithoutSuper(t *testing.T) {
	b := classfiletest.New("com/example/Shape")
	b.Access = classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract
	b.Method(classfile.AccPublic|classfile.AccAbstract, "area", "()D")
	c := NewClass(b.Parse(t))

	if c.Kind != "interface" {
		t.Errorf("Kind = %q, want interface", c.Kind)
	}
	if c.Methods[0].CodeLength != 0 || c.Methods[0].ReturnType.Name != "double" {
		t.Errorf("Methods[0] = %+v", c.Methods[0])
	}
}

func TestLineEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(classfiletest.Greeter().Parse(t)); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	want := strings.Join([]string{
		"class\tcom.example.Greeter\tpublic,super",
		"field\tCOUNT\tint\tpublic\tstatic,final",
		"field\tname\tjava.lang.String\tprivate\t-",
		"method\t<init>\tvoid\t-\tpublic\t-",
		"method\trun\tvoid\t-\tpublic\t-",
		"method\tpick\tint\tint\tpublic\t-",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("line output:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteLinesFromStoredSummary(t *testing.T) {
	cf := classfiletest.Greeter().Parse(t)

	var want bytes.Buffer
	if err := NewLineEncoder(&want).Encode(cf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	blob, err := MarshalCBOR(NewClass(cf))
	if err != nil {
		t.Fatalf("MarshalCBOR() error: %v", err)
	}
	stored, err := UnmarshalCBOR(blob)
	if err != nil {
		t.Fatalf("UnmarshalCBOR() error: %v", err)
	}

	var got bytes.Buffer
	if err := WriteLines(&got, stored); err != nil {
		t.Fatalf("WriteLines() error: %v", err)
	}
	if got.String() != want.String() {
		t.Errorf("WriteLines() =\n%s\nwant\n%s", got.String(), want.String())
	}
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(classfiletest.Greeter().Parse(t)); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["name"] != "com.example.Greeter" {
		t.Errorf("name = %v", decoded["name"])
	}
	if _, ok := decoded["deprecated"]; ok {
		t.Error("Expected deprecated to be omitted")
	}
	methods, ok := decoded["methods"].([]any)
	if !ok || len(methods) != 3 {
		t.Fatalf("methods = %v", decoded["methods"])
	}
}

func TestCBORCanonical(t *testing.T) {
	data := classfiletest.Greeter().Bytes()

	encodeOnce := func() []byte {
		cf, err := classfile.ParseBytes(data)
		if err != nil {
			t.Fatalf("ParseBytes() error: %v", err)
		}
		var buf bytes.Buffer
		if err := NewCBOREncoder(&buf).Encode(cf); err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
		return buf.Bytes()
	}

	first, second := encodeOnce(), encodeOnce()
	if !bytes.Equal(first, second) {
		t.Error("Expected identical CBOR for identical input")
	}

	c, err := UnmarshalCBOR(first)
	if err != nil {
		t.Fatalf("UnmarshalCBOR() error: %v", err)
	}
	cf, _ := classfile.ParseBytes(data)
	if want := NewClass(cf); !reflect.DeepEqual(c, want) {
		t.Errorf("decoded = %+v\nwant %+v", c, want)
	}

	if _, err := UnmarshalCBOR([]byte{0xff}); err == nil {
		t.Error("Expected error for malformed CBOR")
	}
}

func TestDisasmEncoder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewDisasmEncoder(&buf).Encode(classfiletest.Greeter().Parse(t)); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"public class com.example.Greeter extends java.lang.Object implements java.lang.Runnable\n",
		"  version 61.0\n",
		"  source Greeter.java\n",
		"public void run()\n",
		"  stack=2, locals=1, length=9\n",
		"// Fieldref java/lang/System.out:Ljava/io/PrintStream; (line 5)\n",
		"3: ldc ",
		`// String "hi"`,
		"// Methodref java/io/PrintStream.println:(Ljava/lang/String;)V\n",
		"public int pick(int)\n",
		"    1: lookupswitch { 1: 20; default: 22 }\n",
		"    23: ireturn\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q\n%s", want, out)
		}
	}
}

func TestDisasmEncoderMethodFilter(t *testing.T) {
	var buf bytes.Buffer
	enc := NewDisasmEncoder(&buf)
	enc.Method = "pick"
	if err := enc.Encode(classfiletest.Greeter().Parse(t)); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "pick(int)") {
		t.Errorf("Expected pick in listing:\n%s", out)
	}
	if strings.Contains(out, "run()") {
		t.Errorf("Expected run to be filtered out:\n%s", out)
	}
}

func TestPoolEncoder(t *testing.T) {
	b := classfiletest.New("A")
	long := b.Long(7)
	var buf bytes.Buffer
	if err := NewPoolEncoder(&buf).Encode(b.Parse(t)); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"#1 = Utf8 A",
		"#2 = Class A",
		"#3 = Utf8 java/lang/Object",
		"#4 = Class java/lang/Object",
		"#5 = Long 7L",
		"#6 = Padding",
	}
	if long != 5 {
		t.Fatalf("Long allocated at %d, want 5", long)
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("pool listing = %q, want %q", lines, want)
	}
}

func TestNewEncoder(t *testing.T) {
	for _, name := range Names {
		if _, err := NewEncoder(name, &bytes.Buffer{}); err != nil {
			t.Errorf("NewEncoder(%q) error: %v", name, err)
		}
	}
	if _, err := NewEncoder("xml", &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unknown format")
	}
}
