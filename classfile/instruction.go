package classfile

import (
	"fmt"
	"strings"
)

// Operand is one of the operand shapes below; instructions with no operand
// bytes carry a nil Operand.
type Operand interface {
	fmt.Stringer
	isOperand()
}

// ByteOperand is a single operand byte: a local slot, an ldc index, a
// newarray type code or a bipush value.
type ByteOperand struct {
	Value uint8
}

func (o ByteOperand) Signed() int8 { return int8(o.Value) }

// ShortOperand is a u2 operand: a constant pool index or a sipush value.
type ShortOperand struct {
	Value uint16
}

func (o ShortOperand) Signed() int16 { return int16(o.Value) }

// BranchOperand is a branch offset relative to the instruction's own offset.
type BranchOperand struct {
	Offset int32
}

type IincOperand struct {
	Index uint8
	Const int8
}

type InvokeInterfaceOperand struct {
	Index uint16
	Count uint8
	Zero  uint8
}

type InvokeDynamicOperand struct {
	Index uint16
	Zero  uint16
}

type MultiANewArrayOperand struct {
	Index      uint16
	Dimensions uint8
}

// WideOperand is the operand of the wide prefix: the modified opcode and a
// 16-bit local index, plus a 16-bit increment when the modified opcode is
// iinc.
type WideOperand struct {
	Opcode   Opcode
	Index    uint16
	Const    int16
	HasConst bool
}

type TableSwitchOperand struct {
	Padding int
	Default int32
	Low     int32
	High    int32
	Offsets []int32
}

type MatchOffset struct {
	Match  int32
	Offset int32
}

// LookupSwitchOperand keeps its pairs in file order.
type LookupSwitchOperand struct {
	Padding int
	Default int32
	Pairs   []MatchOffset
}

func (ByteOperand) isOperand()            {}
func (ShortOperand) isOperand()           {}
func (BranchOperand) isOperand()          {}
func (IincOperand) isOperand()            {}
func (InvokeInterfaceOperand) isOperand() {}
func (InvokeDynamicOperand) isOperand()   {}
func (MultiANewArrayOperand) isOperand()  {}
func (WideOperand) isOperand()            {}
func (TableSwitchOperand) isOperand()     {}
func (LookupSwitchOperand) isOperand()    {}

func (o ByteOperand) String() string   { return fmt.Sprintf("%d", o.Value) }
func (o ShortOperand) String() string  { return fmt.Sprintf("%d", o.Value) }
func (o BranchOperand) String() string { return fmt.Sprintf("%+d", o.Offset) }
func (o IincOperand) String() string   { return fmt.Sprintf("%d, %d", o.Index, o.Const) }

func (o InvokeInterfaceOperand) String() string {
	return fmt.Sprintf("#%d, %d", o.Index, o.Count)
}

func (o InvokeDynamicOperand) String() string {
	return fmt.Sprintf("#%d", o.Index)
}

func (o MultiANewArrayOperand) String() string {
	return fmt.Sprintf("#%d, %d", o.Index, o.Dimensions)
}

func (o WideOperand) String() string {
	if o.HasConst {
		return fmt.Sprintf("%s %d, %d", o.Opcode, o.Index, o.Const)
	}
	return fmt.Sprintf("%s %d", o.Opcode, o.Index)
}

func (o TableSwitchOperand) String() string {
	return fmt.Sprintf("%d to %d, default %+d", o.Low, o.High, o.Default)
}

func (o LookupSwitchOperand) String() string {
	return fmt.Sprintf("%d pairs, default %+d", len(o.Pairs), o.Default)
}

// Instruction is one decoded instruction. Offset is absolute within the
// code array and Length counts the opcode byte, any switch padding and all
// operand bytes.
type Instruction struct {
	Offset  int
	Opcode  Opcode
	Length  int
	Operand Operand
}

// Targets returns the absolute code offsets this instruction can branch to,
// in operand order. Non-branching instructions return nil.
func (inst Instruction) Targets() []int {
	switch o := inst.Operand.(type) {
	case BranchOperand:
		return []int{inst.Offset + int(o.Offset)}
	case TableSwitchOperand:
		targets := make([]int, 0, len(o.Offsets)+1)
		for _, off := range o.Offsets {
			targets = append(targets, inst.Offset+int(off))
		}
		return append(targets, inst.Offset+int(o.Default))
	case LookupSwitchOperand:
		targets := make([]int, 0, len(o.Pairs)+1)
		for _, p := range o.Pairs {
			targets = append(targets, inst.Offset+int(p.Offset))
		}
		return append(targets, inst.Offset+int(o.Default))
	}
	return nil
}

// String renders a compact listing line such as "7: goto 21" or
// "3: lookupswitch { 1: 28; 10: 36; default: 44 }".
func (inst Instruction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s", inst.Offset, inst.Opcode)

	switch o := inst.Operand.(type) {
	case nil:
	case BranchOperand:
		fmt.Fprintf(&sb, " %d", inst.Offset+int(o.Offset))
	case ByteOperand:
		if inst.Opcode == OpBipush {
			fmt.Fprintf(&sb, " %d", o.Signed())
		} else {
			fmt.Fprintf(&sb, " %d", o.Value)
		}
	case ShortOperand:
		if inst.Opcode == OpSipush {
			fmt.Fprintf(&sb, " %d", o.Signed())
		} else {
			fmt.Fprintf(&sb, " #%d", o.Value)
		}
	case TableSwitchOperand:
		sb.WriteString(" {")
		for i, off := range o.Offsets {
			fmt.Fprintf(&sb, " %d: %d;", int64(o.Low)+int64(i), inst.Offset+int(off))
		}
		fmt.Fprintf(&sb, " default: %d }", inst.Offset+int(o.Default))
	case LookupSwitchOperand:
		sb.WriteString(" {")
		for _, p := range o.Pairs {
			fmt.Fprintf(&sb, " %d: %d;", p.Match, inst.Offset+int(p.Offset))
		}
		fmt.Fprintf(&sb, " default: %d }", inst.Offset+int(o.Default))
	default:
		sb.WriteString(" ")
		sb.WriteString(o.String())
	}
	return sb.String()
}

// DecodeInstructions decodes a whole code array. Every byte must belong to
// exactly one instruction; an instruction running past the end, or an
// undefined opcode, fails the decode with a *CorruptionError whose offset
// is relative to the start of code.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := newReader(code, 0)
	var insts []Instruction
	for r.remaining() > 0 {
		inst, err := decodeInstruction(r)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}

	total := 0
	for _, inst := range insts {
		total += inst.Length
	}
	if total != len(code) {
		return nil, corruptf(total, "instruction lengths sum to %d, code length is %d", total, len(code))
	}
	return insts, nil
}

func decodeInstruction(r *reader) (Instruction, error) {
	start := r.offset()
	op := Opcode(r.readU1())
	info := op.Info()
	inst := Instruction{Offset: start, Opcode: op}

	if n, ok := fixedOperandBytes[info.Layout]; ok && n > r.remaining() {
		return inst, corruptf(start, "%s needs %d operand bytes, %d left in code", info.Name, n, r.remaining())
	}

	switch info.Layout {
	case LayoutUndefined:
		return inst, corruptf(start, "undefined opcode 0x%02x", uint8(op))
	case LayoutNone:
	case LayoutByte:
		inst.Operand = ByteOperand{Value: r.readU1()}
	case LayoutShort:
		inst.Operand = ShortOperand{Value: r.readU2()}
	case LayoutBranch:
		inst.Operand = BranchOperand{Offset: int32(int16(r.readU2()))}
	case LayoutBranchWide:
		inst.Operand = BranchOperand{Offset: r.readI4()}
	case LayoutIinc:
		inst.Operand = IincOperand{Index: r.readU1(), Const: int8(r.readU1())}
	case LayoutInvokeInterface:
		inst.Operand = InvokeInterfaceOperand{Index: r.readU2(), Count: r.readU1(), Zero: r.readU1()}
	case LayoutInvokeDynamic:
		inst.Operand = InvokeDynamicOperand{Index: r.readU2(), Zero: r.readU2()}
	case LayoutMultiANewArray:
		inst.Operand = MultiANewArrayOperand{Index: r.readU2(), Dimensions: r.readU1()}
	case LayoutWide:
		inst.Operand = decodeWide(r)
	case LayoutTableSwitch:
		operand, err := decodeTableSwitch(r, start)
		if err != nil {
			return inst, err
		}
		inst.Operand = operand
	case LayoutLookupSwitch:
		operand, err := decodeLookupSwitch(r, start)
		if err != nil {
			return inst, err
		}
		inst.Operand = operand
	}

	if r.err != nil {
		return inst, corruptf(start, "%s runs past the end of the code array", info.Name)
	}
	inst.Length = r.offset() - start
	return inst, nil
}

func decodeWide(r *reader) WideOperand {
	w := WideOperand{Opcode: Opcode(r.readU1())}
	w.Index = r.readU2()
	if w.Opcode == OpIinc {
		w.Const = int16(r.readU2())
		w.HasConst = true
	}
	return w
}

func decodeTableSwitch(r *reader, start int) (TableSwitchOperand, error) {
	ts := TableSwitchOperand{Padding: SwitchPadding(start)}
	r.take(ts.Padding)
	ts.Default = r.readI4()
	ts.Low = r.readI4()
	ts.High = r.readI4()
	if r.err != nil {
		return ts, corruptf(start, "tableswitch header runs past the end of the code array")
	}
	if ts.High < ts.Low {
		return ts, nil
	}

	n := int64(ts.High) - int64(ts.Low) + 1
	if n*4 > int64(r.remaining()) {
		return ts, corruptf(start, "tableswitch with %d cases runs past the end of the code array", n)
	}
	ts.Offsets = make([]int32, n)
	for i := range ts.Offsets {
		ts.Offsets[i] = r.readI4()
	}
	return ts, nil
}

func decodeLookupSwitch(r *reader, start int) (LookupSwitchOperand, error) {
	ls := LookupSwitchOperand{Padding: SwitchPadding(start)}
	r.take(ls.Padding)
	ls.Default = r.readI4()
	npairs := r.readU4()
	if r.err != nil {
		return ls, corruptf(start, "lookupswitch header runs past the end of the code array")
	}

	if int64(npairs)*8 > int64(r.remaining()) {
		return ls, corruptf(start, "lookupswitch with %d pairs runs past the end of the code array", npairs)
	}
	ls.Pairs = make([]MatchOffset, npairs)
	for i := range ls.Pairs {
		ls.Pairs[i] = MatchOffset{Match: r.readI4(), Offset: r.readI4()}
	}
	return ls, nil
}
