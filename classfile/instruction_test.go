package classfile_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rlegendi/jyzer/classfile"
)

func i4(v int32) []byte { return u4(uint32(v)) }

func sumLengths(insts []classfile.Instruction) int {
	total := 0
	for _, inst := range insts {
		total += inst.Length
	}
	return total
}

func checkContiguous(t *testing.T, insts []classfile.Instruction, codeLength int) {
	t.Helper()
	offset := 0
	for i, inst := range insts {
		if inst.Offset != offset {
			t.Errorf("instruction %d (%s) at offset %d, want %d", i, inst.Opcode, inst.Offset, offset)
		}
		offset += inst.Length
	}
	if got := sumLengths(insts); got != codeLength {
		t.Errorf("sum of lengths = %d, want code length %d", got, codeLength)
	}
}

func TestSwitchPadding(t *testing.T) {
	want := []int{3, 2, 1, 0, 3, 2, 1, 0}
	for offset, w := range want {
		if got := classfile.SwitchPadding(offset); got != w {
			t.Errorf("SwitchPadding(%d) = %d, want %d", offset, got, w)
		}
	}
}

func TestDecodeEveryLayout(t *testing.T) {
	code := concat(
		[]byte{byte(classfile.OpNop)},                                               // 0
		[]byte{byte(classfile.OpBipush), 0xFE},                                      // 1
		[]byte{byte(classfile.OpSipush), 0x80, 0x00},                                // 3
		[]byte{byte(classfile.OpIload), 4},                                          // 6
		[]byte{byte(classfile.OpIinc), 4, 0xFF},                                     // 8
		[]byte{byte(classfile.OpIfeq), 0xFF, 0xF8},                                  // 11, back to 3
		[]byte{byte(classfile.OpGotoW)}, i4(-14),                                    // 14, back to 0
		[]byte{byte(classfile.OpInvokeinterface)}, u2(9), []byte{2, 0},              // 19
		[]byte{byte(classfile.OpInvokedynamic)}, u2(12), u2(0),                      // 24
		[]byte{byte(classfile.OpMultianewarray)}, u2(5), []byte{3},                  // 29
		[]byte{byte(classfile.OpWide), byte(classfile.OpAload)}, u2(300),            // 33
		[]byte{byte(classfile.OpWide), byte(classfile.OpIinc)}, u2(300), u2(0xFFFB), // 37
		[]byte{byte(classfile.OpBreakpoint)},                                        // 43
		[]byte{byte(classfile.OpImpdep1)},                                           // 44
		[]byte{byte(classfile.OpReturn)},                                            // 45
	)

	insts, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions() error: %v", err)
	}
	checkContiguous(t, insts, len(code))

	want := []struct {
		offset  int
		length  int
		operand classfile.Operand
	}{
		{0, 1, nil},
		{1, 2, classfile.ByteOperand{Value: 0xFE}},
		{3, 3, classfile.ShortOperand{Value: 0x8000}},
		{6, 2, classfile.ByteOperand{Value: 4}},
		{8, 3, classfile.IincOperand{Index: 4, Const: -1}},
		{11, 3, classfile.BranchOperand{Offset: -8}},
		{14, 5, classfile.BranchOperand{Offset: -14}},
		{19, 5, classfile.InvokeInterfaceOperand{Index: 9, Count: 2}},
		{24, 5, classfile.InvokeDynamicOperand{Index: 12}},
		{29, 4, classfile.MultiANewArrayOperand{Index: 5, Dimensions: 3}},
		{33, 4, classfile.WideOperand{Opcode: classfile.OpAload, Index: 300}},
		{37, 6, classfile.WideOperand{Opcode: classfile.OpIinc, Index: 300, Const: -5, HasConst: true}},
		{43, 1, nil},
		{44, 1, nil},
		{45, 1, nil},
	}
	if len(insts) != len(want) {
		t.Fatalf("len(insts) = %d, want %d", len(insts), len(want))
	}
	for i, w := range want {
		inst := insts[i]
		if inst.Offset != w.offset || inst.Length != w.length {
			t.Errorf("insts[%d] %s at %d len %d, want at %d len %d", i, inst.Opcode, inst.Offset, inst.Length, w.offset, w.length)
		}
		if !reflect.DeepEqual(inst.Operand, w.operand) {
			t.Errorf("insts[%d] %s operand = %#v, want %#v", i, inst.Opcode, inst.Operand, w.operand)
		}
	}

	if got := insts[1].Operand.(classfile.ByteOperand).Signed(); got != -2 {
		t.Errorf("bipush Signed() = %d, want -2", got)
	}
	if got := insts[2].Operand.(classfile.ShortOperand).Signed(); got != -32768 {
		t.Errorf("sipush Signed() = %d, want -32768", got)
	}
	if got := insts[5].Targets(); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("ifeq Targets() = %v, want [3]", got)
	}
	if got := insts[6].Targets(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("goto_w Targets() = %v, want [0]", got)
	}
	if got := insts[0].Targets(); got != nil {
		t.Errorf("nop Targets() = %v, want nil", got)
	}
}

func tableSwitchAt(offset int, low, high int32, offsets ...int32) []byte {
	code := make([]byte, offset)
	code = append(code, byte(classfile.OpTableswitch))
	code = append(code, make([]byte, classfile.SwitchPadding(offset))...)
	code = concat(code, i4(100), i4(low), i4(high))
	for _, o := range offsets {
		code = append(code, i4(o)...)
	}
	return append(code, byte(classfile.OpReturn))
}

func TestTableSwitchAtEveryAlignment(t *testing.T) {
	for offset := 0; offset < 8; offset++ {
		code := tableSwitchAt(offset, 1, 3, 10, 20, 30)
		insts, err := classfile.DecodeInstructions(code)
		if err != nil {
			t.Fatalf("offset %d: DecodeInstructions() error: %v", offset, err)
		}
		checkContiguous(t, insts, len(code))

		if len(insts) != offset+2 {
			t.Fatalf("offset %d: got %d instructions, want %d", offset, len(insts), offset+2)
		}
		sw := insts[offset]
		ts, ok := sw.Operand.(classfile.TableSwitchOperand)
		if !ok {
			t.Fatalf("offset %d: operand = %#v", offset, sw.Operand)
		}
		wantPad := (4 - (offset+1)%4) % 4
		if ts.Padding != wantPad {
			t.Errorf("offset %d: Padding = %d, want %d", offset, ts.Padding, wantPad)
		}
		if want := 1 + wantPad + 12 + 3*4; sw.Length != want {
			t.Errorf("offset %d: Length = %d, want %d", offset, sw.Length, want)
		}
		if ts.Default != 100 || ts.Low != 1 || ts.High != 3 || !reflect.DeepEqual(ts.Offsets, []int32{10, 20, 30}) {
			t.Errorf("offset %d: operand = %+v", offset, ts)
		}
		wantTargets := []int{offset + 10, offset + 20, offset + 30, offset + 100}
		if got := sw.Targets(); !reflect.DeepEqual(got, wantTargets) {
			t.Errorf("offset %d: Targets() = %v, want %v", offset, got, wantTargets)
		}
	}
}

func TestLookupSwitchAtEveryAlignment(t *testing.T) {
	for offset := 0; offset < 8; offset++ {
		code := make([]byte, offset)
		code = append(code, byte(classfile.OpLookupswitch))
		code = append(code, make([]byte, classfile.SwitchPadding(offset))...)
		// pairs deliberately out of order; file order is kept
		code = concat(code, i4(-1), u4(2), i4(10), i4(40), i4(-3), i4(50))
		code = append(code, byte(classfile.OpReturn))

		insts, err := classfile.DecodeInstructions(code)
		if err != nil {
			t.Fatalf("offset %d: DecodeInstructions() error: %v", offset, err)
		}
		checkContiguous(t, insts, len(code))

		sw := insts[offset]
		ls, ok := sw.Operand.(classfile.LookupSwitchOperand)
		if !ok {
			t.Fatalf("offset %d: operand = %#v", offset, sw.Operand)
		}
		if ls.Padding != classfile.SwitchPadding(offset) {
			t.Errorf("offset %d: Padding = %d, want %d", offset, ls.Padding, classfile.SwitchPadding(offset))
		}
		wantPairs := []classfile.MatchOffset{{Match: 10, Offset: 40}, {Match: -3, Offset: 50}}
		if ls.Default != -1 || !reflect.DeepEqual(ls.Pairs, wantPairs) {
			t.Errorf("offset %d: operand = %+v", offset, ls)
		}
		if want := 1 + ls.Padding + 8 + 2*8; sw.Length != want {
			t.Errorf("offset %d: Length = %d, want %d", offset, sw.Length, want)
		}
	}
}

func TestSwitchInsideMethod(t *testing.T) {
	// iload_1; lookupswitch at offset 1 needs two padding bytes
	code := concat(
		[]byte{byte(classfile.OpIload1), byte(classfile.OpLookupswitch), 0, 0},
		i4(27), u4(1), i4(5), i4(25),
		[]byte{byte(classfile.OpIconst0), byte(classfile.OpIreturn)},
	)
	insts, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions() error: %v", err)
	}
	checkContiguous(t, insts, len(code))

	sw := insts[1]
	if sw.Offset != 1 || sw.Length != 19 {
		t.Errorf("lookupswitch at %d len %d, want at 1 len 19", sw.Offset, sw.Length)
	}
	if insts[2].Offset != 20 {
		t.Errorf("iconst_0 offset = %d, want 20", insts[2].Offset)
	}
	if got := sw.String(); got != "1: lookupswitch { 5: 26; default: 28 }" {
		t.Errorf("String() = %q", got)
	}
}

func TestTableSwitchEmptyRange(t *testing.T) {
	code := tableSwitchAt(0, 5, 4)
	insts, err := classfile.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions() error: %v", err)
	}
	checkContiguous(t, insts, len(code))
	ts := insts[0].Operand.(classfile.TableSwitchOperand)
	if len(ts.Offsets) != 0 {
		t.Errorf("Offsets = %v, want empty", ts.Offsets)
	}
	if insts[0].Length != 16 {
		t.Errorf("Length = %d, want 16", insts[0].Length)
	}
}

func TestDecodeInstructionsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		code   []byte
		offset int
	}{
		{"undefined opcode", []byte{byte(classfile.OpNop), 0xCB}, 1},
		{"truncated short", []byte{byte(classfile.OpNop), byte(classfile.OpSipush), 0x00}, 1},
		{"truncated wide iinc", concat([]byte{byte(classfile.OpWide), byte(classfile.OpIinc)}, u2(1)), 0},
		{"truncated tableswitch header", concat([]byte{byte(classfile.OpTableswitch), 0, 0, 0}, i4(0)), 0},
		{"tableswitch cases past end", concat([]byte{byte(classfile.OpTableswitch), 0, 0, 0}, i4(0), i4(0), i4(1000)), 0},
		{"lookupswitch pairs past end", concat([]byte{byte(classfile.OpNop), byte(classfile.OpLookupswitch), 0, 0}, i4(0), u4(3), i4(1), i4(2)), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts, err := classfile.DecodeInstructions(tt.code)
			if insts != nil {
				t.Errorf("insts = %v, want nil on error", insts)
			}
			var ce *classfile.CorruptionError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CorruptionError", err)
			}
			if ce.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", ce.Offset, tt.offset)
			}
		})
	}
}

func TestDecodeEmptyCode(t *testing.T) {
	insts, err := classfile.DecodeInstructions(nil)
	if err != nil || len(insts) != 0 {
		t.Errorf("DecodeInstructions(nil) = %v, %v", insts, err)
	}
}

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		op     classfile.Opcode
		name   string
		layout classfile.OperandLayout
	}{
		{classfile.OpAconstNull, "aconst_null", classfile.LayoutNone},
		{classfile.OpLdc2W, "ldc2_w", classfile.LayoutShort},
		{classfile.OpIfIcmpge, "if_icmpge", classfile.LayoutBranch},
		{classfile.OpJsrW, "jsr_w", classfile.LayoutBranchWide},
		{classfile.OpImpdep2, "impdep2", classfile.LayoutNone},
		{classfile.Opcode(0xCB), "undefined_cb", classfile.LayoutUndefined},
	}
	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name || info.Layout != tt.layout {
			t.Errorf("Opcode(0x%02x).Info() = %+v, want %s/%d", uint8(tt.op), info, tt.name, tt.layout)
		}
	}

	if op, ok := classfile.LookupOpcode("invokespecial"); !ok || op != classfile.OpInvokespecial {
		t.Errorf("LookupOpcode(invokespecial) = %v, %v", op, ok)
	}
	if _, ok := classfile.LookupOpcode("undefined_cb"); ok {
		t.Error("LookupOpcode should not find undefined opcodes")
	}

	defined := 0
	for i := 0; i < 256; i++ {
		if classfile.Opcode(i).IsDefined() {
			defined++
		}
	}
	if defined != 205 {
		t.Errorf("defined opcodes = %d, want 205", defined)
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		inst classfile.Instruction
		want string
	}{
		{classfile.Instruction{Offset: 0, Opcode: classfile.OpReturn, Length: 1}, "0: return"},
		{classfile.Instruction{Offset: 4, Opcode: classfile.OpBipush, Length: 2, Operand: classfile.ByteOperand{Value: 0xFF}}, "4: bipush -1"},
		{classfile.Instruction{Offset: 6, Opcode: classfile.OpInvokestatic, Length: 3, Operand: classfile.ShortOperand{Value: 7}}, "6: invokestatic #7"},
		{classfile.Instruction{Offset: 9, Opcode: classfile.OpGoto, Length: 3, Operand: classfile.BranchOperand{Offset: -9}}, "9: goto 0"},
		{classfile.Instruction{Offset: 2, Opcode: classfile.OpIinc, Length: 3, Operand: classfile.IincOperand{Index: 1, Const: -1}}, "2: iinc 1, -1"},
		{classfile.Instruction{Offset: 0, Opcode: classfile.OpWide, Length: 4, Operand: classfile.WideOperand{Opcode: classfile.OpIload, Index: 256}}, "0: wide iload 256"},
	}
	for _, tt := range tests {
		if got := tt.inst.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
