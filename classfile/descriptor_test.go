package classfile_test

import (
	"testing"

	"github.com/rlegendi/jyzer/classfile"
)

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		desc       string
		baseType   string
		className  string
		arrayDepth int
		str        string
	}{
		{"I", "int", "", 0, "int"},
		{"Z", "boolean", "", 0, "boolean"},
		{"Ljava/lang/String;", "", "java.lang.String", 0, "java.lang.String"},
		{"[I", "int", "", 1, "int[]"},
		{"[[I", "int", "", 2, "int[][]"},
		{"[[D", "double", "", 2, "double[][]"},
		{"[Ljava/lang/Object;", "", "java.lang.Object", 1, "java.lang.Object[]"},
		{"V", "void", "", 0, "void"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ft := classfile.ParseFieldDescriptor(tt.desc)
			if ft == nil {
				t.Fatalf("ParseFieldDescriptor(%q) returned nil", tt.desc)
			}
			if ft.BaseType != tt.baseType {
				t.Errorf("BaseType = %q, want %q", ft.BaseType, tt.baseType)
			}
			if ft.ClassName != tt.className {
				t.Errorf("ClassName = %q, want %q", ft.ClassName, tt.className)
			}
			if ft.ArrayDepth != tt.arrayDepth {
				t.Errorf("ArrayDepth = %d, want %d", ft.ArrayDepth, tt.arrayDepth)
			}
			if got := ft.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestParseTypeCursor(t *testing.T) {
	desc := "(Ljava/lang/String;I)Ljava/lang/Object;"

	ft, next := classfile.ParseType(desc, 1)
	if ft == nil || ft.ClassName != "java.lang.String" {
		t.Fatalf("ParseType(desc, 1) = %+v", ft)
	}
	if next != 19 {
		t.Errorf("next = %d, want 19 (just past ';')", next)
	}

	ft, next = classfile.ParseType(desc, next)
	if ft == nil || ft.BaseType != "int" || next != 20 {
		t.Errorf("ParseType(desc, 19) = %+v, %d", ft, next)
	}
}

func TestParseTypeMalformed(t *testing.T) {
	tests := []struct {
		desc  string
		start int
	}{
		{"", 0},
		{"Q", 0},
		{"[[", 0},
		{"Ljava/lang/String", 0},
		{"L;", 0},
		{"I", 5},
		{"I", -1},
	}
	for _, tt := range tests {
		ft, next := classfile.ParseType(tt.desc, tt.start)
		if ft != nil || next != tt.start {
			t.Errorf("ParseType(%q, %d) = %+v, %d; want nil, %d", tt.desc, tt.start, ft, next, tt.start)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc       string
		params     []string
		returnType string
	}{
		{"()V", nil, "void"},
		{"()I", nil, "int"},
		{"(II)V", []string{"int", "int"}, "void"},
		{"(Ljava/lang/String;I)Ljava/lang/Object;", []string{"java.lang.String", "int"}, "java.lang.Object"},
		{"(IDLjava/lang/Thread;)Ljava/lang/Object;", []string{"int", "double", "java.lang.Thread"}, "java.lang.Object"},
		{"([[JLjava/util/List;Z)[Ljava/lang/String;", []string{"long[][]", "java.util.List", "boolean"}, "java.lang.String[]"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			md := classfile.ParseMethodDescriptor(tt.desc)
			if md == nil {
				t.Fatalf("ParseMethodDescriptor(%q) returned nil", tt.desc)
			}
			if len(md.Parameters) != len(tt.params) {
				t.Fatalf("len(Parameters) = %d, want %d", len(md.Parameters), len(tt.params))
			}
			for i, p := range tt.params {
				if got := md.Parameters[i].String(); got != p {
					t.Errorf("Parameters[%d] = %q, want %q", i, got, p)
				}
			}
			if md.ReturnType == nil {
				t.Fatal("Expected non-nil ReturnType")
			}
			if got := md.ReturnType.String(); got != tt.returnType {
				t.Errorf("ReturnType = %q, want %q", got, tt.returnType)
			}
			if tt.returnType == "void" && !md.ReturnType.IsVoid() {
				t.Error("Expected IsVoid() for a void return")
			}
		})
	}
}

func TestParseMethodDescriptorPartial(t *testing.T) {
	if md := classfile.ParseMethodDescriptor("I"); md != nil {
		t.Errorf("ParseMethodDescriptor(%q) = %+v, want nil", "I", md)
	}

	md := classfile.ParseMethodDescriptor("(IQ)V")
	if md == nil || len(md.Parameters) != 1 || md.ReturnType != nil {
		t.Errorf("ParseMethodDescriptor(%q) = %+v, want one parameter and no return type", "(IQ)V", md)
	}

	md = classfile.ParseMethodDescriptor("(I")
	if md == nil || len(md.Parameters) != 1 || md.ReturnType != nil {
		t.Errorf("ParseMethodDescriptor(%q) = %+v", "(I", md)
	}
	if got := md.String(); got != "(int)" {
		t.Errorf("String() = %q, want %q", got, "(int)")
	}
}

func TestDescriptorValidity(t *testing.T) {
	fields := map[string]bool{
		"I":                   true,
		"[Ljava/lang/Object;": true,
		"V":                   false,
		"II":                  false,
		"Lfoo":                false,
	}
	for desc, want := range fields {
		if got := classfile.IsValidFieldDescriptor(desc); got != want {
			t.Errorf("IsValidFieldDescriptor(%q) = %v, want %v", desc, got, want)
		}
	}

	methods := map[string]bool{
		"()V":                     true,
		"(I[J)Ljava/lang/String;": true,
		"(V)V":                    false,
		"()[V":                    false,
		"()":                      false,
		"(I)VV":                   false,
		"I":                       false,
	}
	for desc, want := range methods {
		if got := classfile.IsValidMethodDescriptor(desc); got != want {
			t.Errorf("IsValidMethodDescriptor(%q) = %v, want %v", desc, got, want)
		}
	}
}

func TestFieldTypePredicates(t *testing.T) {
	prim := classfile.ParseFieldDescriptor("I")
	arr := classfile.ParseFieldDescriptor("[I")
	obj := classfile.ParseFieldDescriptor("Ljava/lang/String;")

	if !prim.IsPrimitive() || prim.IsReference() || prim.IsArray() {
		t.Errorf("int predicates wrong: %+v", prim)
	}
	if arr.IsPrimitive() || !arr.IsReference() || !arr.IsArray() {
		t.Errorf("int[] predicates wrong: %+v", arr)
	}
	if obj.IsPrimitive() || !obj.IsReference() || obj.IsArray() {
		t.Errorf("String predicates wrong: %+v", obj)
	}
	if got := classfile.TypeName("Q"); got != "Q" {
		t.Errorf("TypeName(%q) = %q, want raw descriptor", "Q", got)
	}
	if got := classfile.SourceToInternalName("java.util.Map"); got != "java/util/Map" {
		t.Errorf("SourceToInternalName() = %q", got)
	}
}
