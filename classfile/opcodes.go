package classfile

import "fmt"

type Opcode uint8

// OperandLayout is the shape of the operand bytes that follow an opcode.
type OperandLayout uint8

const (
	LayoutUndefined       OperandLayout = iota
	LayoutNone                          // no operands
	LayoutByte                          // u1
	LayoutShort                         // u2
	LayoutBranch                        // s2 relative branch
	LayoutBranchWide                    // s4 relative branch
	LayoutIinc                          // u1 index, s1 increment
	LayoutInvokeInterface               // u2 index, u1 count, u1 zero
	LayoutInvokeDynamic                 // u2 index, u2 zero
	LayoutMultiANewArray                // u2 index, u1 dimensions
	LayoutWide                          // opcode, u2 index [, s2 increment]
	LayoutTableSwitch                   // padding, default, low, high, offsets
	LayoutLookupSwitch                  // padding, default, npairs, pairs
)

// fixedOperandBytes is the operand size of every layout that does not
// depend on the instruction's content or position.
var fixedOperandBytes = map[OperandLayout]int{
	LayoutNone:            0,
	LayoutByte:            1,
	LayoutShort:           2,
	LayoutBranch:          2,
	LayoutBranchWide:      4,
	LayoutIinc:            2,
	LayoutInvokeInterface: 4,
	LayoutInvokeDynamic:   4,
	LayoutMultiANewArray:  3,
}

const (
	OpNop             Opcode = 0x00
	OpAconstNull      Opcode = 0x01
	OpIconstM1        Opcode = 0x02
	OpIconst0         Opcode = 0x03
	OpIconst1         Opcode = 0x04
	OpIconst2         Opcode = 0x05
	OpIconst3         Opcode = 0x06
	OpIconst4         Opcode = 0x07
	OpIconst5         Opcode = 0x08
	OpLconst0         Opcode = 0x09
	OpLconst1         Opcode = 0x0a
	OpFconst0         Opcode = 0x0b
	OpFconst1         Opcode = 0x0c
	OpFconst2         Opcode = 0x0d
	OpDconst0         Opcode = 0x0e
	OpDconst1         Opcode = 0x0f
	OpBipush          Opcode = 0x10
	OpSipush          Opcode = 0x11
	OpLdc             Opcode = 0x12
	OpLdcW            Opcode = 0x13
	OpLdc2W           Opcode = 0x14
	OpIload           Opcode = 0x15
	OpLload           Opcode = 0x16
	OpFload           Opcode = 0x17
	OpDload           Opcode = 0x18
	OpAload           Opcode = 0x19
	OpIload0          Opcode = 0x1a
	OpIload1          Opcode = 0x1b
	OpIload2          Opcode = 0x1c
	OpIload3          Opcode = 0x1d
	OpLload0          Opcode = 0x1e
	OpLload1          Opcode = 0x1f
	OpLload2          Opcode = 0x20
	OpLload3          Opcode = 0x21
	OpFload0          Opcode = 0x22
	OpFload1          Opcode = 0x23
	OpFload2          Opcode = 0x24
	OpFload3          Opcode = 0x25
	OpDload0          Opcode = 0x26
	OpDload1          Opcode = 0x27
	OpDload2          Opcode = 0x28
	OpDload3          Opcode = 0x29
	OpAload0          Opcode = 0x2a
	OpAload1          Opcode = 0x2b
	OpAload2          Opcode = 0x2c
	OpAload3          Opcode = 0x2d
	OpIaload          Opcode = 0x2e
	OpLaload          Opcode = 0x2f
	OpFaload          Opcode = 0x30
	OpDaload          Opcode = 0x31
	OpAaload          Opcode = 0x32
	OpBaload          Opcode = 0x33
	OpCaload          Opcode = 0x34
	OpSaload          Opcode = 0x35
	OpIstore          Opcode = 0x36
	OpLstore          Opcode = 0x37
	OpFstore          Opcode = 0x38
	OpDstore          Opcode = 0x39
	OpAstore          Opcode = 0x3a
	OpIstore0         Opcode = 0x3b
	OpIstore1         Opcode = 0x3c
	OpIstore2         Opcode = 0x3d
	OpIstore3         Opcode = 0x3e
	OpLstore0         Opcode = 0x3f
	OpLstore1         Opcode = 0x40
	OpLstore2         Opcode = 0x41
	OpLstore3         Opcode = 0x42
	OpFstore0         Opcode = 0x43
	OpFstore1         Opcode = 0x44
	OpFstore2         Opcode = 0x45
	OpFstore3         Opcode = 0x46
	OpDstore0         Opcode = 0x47
	OpDstore1         Opcode = 0x48
	OpDstore2         Opcode = 0x49
	OpDstore3         Opcode = 0x4a
	OpAstore0         Opcode = 0x4b
	OpAstore1         Opcode = 0x4c
	OpAstore2         Opcode = 0x4d
	OpAstore3         Opcode = 0x4e
	OpIastore         Opcode = 0x4f
	OpLastore         Opcode = 0x50
	OpFastore         Opcode = 0x51
	OpDastore         Opcode = 0x52
	OpAastore         Opcode = 0x53
	OpBastore         Opcode = 0x54
	OpCastore         Opcode = 0x55
	OpSastore         Opcode = 0x56
	OpPop             Opcode = 0x57
	OpPop2            Opcode = 0x58
	OpDup             Opcode = 0x59
	OpDupX1           Opcode = 0x5a
	OpDupX2           Opcode = 0x5b
	OpDup2            Opcode = 0x5c
	OpDup2X1          Opcode = 0x5d
	OpDup2X2          Opcode = 0x5e
	OpSwap            Opcode = 0x5f
	OpIadd            Opcode = 0x60
	OpLadd            Opcode = 0x61
	OpFadd            Opcode = 0x62
	OpDadd            Opcode = 0x63
	OpIsub            Opcode = 0x64
	OpLsub            Opcode = 0x65
	OpFsub            Opcode = 0x66
	OpDsub            Opcode = 0x67
	OpImul            Opcode = 0x68
	OpLmul            Opcode = 0x69
	OpFmul            Opcode = 0x6a
	OpDmul            Opcode = 0x6b
	OpIdiv            Opcode = 0x6c
	OpLdiv            Opcode = 0x6d
	OpFdiv            Opcode = 0x6e
	OpDdiv            Opcode = 0x6f
	OpIrem            Opcode = 0x70
	OpLrem            Opcode = 0x71
	OpFrem            Opcode = 0x72
	OpDrem            Opcode = 0x73
	OpIneg            Opcode = 0x74
	OpLneg            Opcode = 0x75
	OpFneg            Opcode = 0x76
	OpDneg            Opcode = 0x77
	OpIshl            Opcode = 0x78
	OpLshl            Opcode = 0x79
	OpIshr            Opcode = 0x7a
	OpLshr            Opcode = 0x7b
	OpIushr           Opcode = 0x7c
	OpLushr           Opcode = 0x7d
	OpIand            Opcode = 0x7e
	OpLand            Opcode = 0x7f
	OpIor             Opcode = 0x80
	OpLor             Opcode = 0x81
	OpIxor            Opcode = 0x82
	OpLxor            Opcode = 0x83
	OpIinc            Opcode = 0x84
	OpI2l             Opcode = 0x85
	OpI2f             Opcode = 0x86
	OpI2d             Opcode = 0x87
	OpL2i             Opcode = 0x88
	OpL2f             Opcode = 0x89
	OpL2d             Opcode = 0x8a
	OpF2i             Opcode = 0x8b
	OpF2l             Opcode = 0x8c
	OpF2d             Opcode = 0x8d
	OpD2i             Opcode = 0x8e
	OpD2l             Opcode = 0x8f
	OpD2f             Opcode = 0x90
	OpI2b             Opcode = 0x91
	OpI2c             Opcode = 0x92
	OpI2s             Opcode = 0x93
	OpLcmp            Opcode = 0x94
	OpFcmpl           Opcode = 0x95
	OpFcmpg           Opcode = 0x96
	OpDcmpl           Opcode = 0x97
	OpDcmpg           Opcode = 0x98
	OpIfeq            Opcode = 0x99
	OpIfne            Opcode = 0x9a
	OpIflt            Opcode = 0x9b
	OpIfge            Opcode = 0x9c
	OpIfgt            Opcode = 0x9d
	OpIfle            Opcode = 0x9e
	OpIfIcmpeq        Opcode = 0x9f
	OpIfIcmpne        Opcode = 0xa0
	OpIfIcmplt        Opcode = 0xa1
	OpIfIcmpge        Opcode = 0xa2
	OpIfIcmpgt        Opcode = 0xa3
	OpIfIcmple        Opcode = 0xa4
	OpIfAcmpeq        Opcode = 0xa5
	OpIfAcmpne        Opcode = 0xa6
	OpGoto            Opcode = 0xa7
	OpJsr             Opcode = 0xa8
	OpRet             Opcode = 0xa9
	OpTableswitch     Opcode = 0xaa
	OpLookupswitch    Opcode = 0xab
	OpIreturn         Opcode = 0xac
	OpLreturn         Opcode = 0xad
	OpFreturn         Opcode = 0xae
	OpDreturn         Opcode = 0xaf
	OpAreturn         Opcode = 0xb0
	OpReturn          Opcode = 0xb1
	OpGetstatic       Opcode = 0xb2
	OpPutstatic       Opcode = 0xb3
	OpGetfield        Opcode = 0xb4
	OpPutfield        Opcode = 0xb5
	OpInvokevirtual   Opcode = 0xb6
	OpInvokespecial   Opcode = 0xb7
	OpInvokestatic    Opcode = 0xb8
	OpInvokeinterface Opcode = 0xb9
	OpInvokedynamic   Opcode = 0xba
	OpNew             Opcode = 0xbb
	OpNewarray        Opcode = 0xbc
	OpAnewarray       Opcode = 0xbd
	OpArraylength     Opcode = 0xbe
	OpAthrow          Opcode = 0xbf
	OpCheckcast       Opcode = 0xc0
	OpInstanceof      Opcode = 0xc1
	OpMonitorenter    Opcode = 0xc2
	OpMonitorexit     Opcode = 0xc3
	OpWide            Opcode = 0xc4
	OpMultianewarray  Opcode = 0xc5
	OpIfnull          Opcode = 0xc6
	OpIfnonnull       Opcode = 0xc7
	OpGotoW           Opcode = 0xc8
	OpJsrW            Opcode = 0xc9
	OpBreakpoint      Opcode = 0xca
	OpImpdep1         Opcode = 0xfe
	OpImpdep2         Opcode = 0xff
)

type OpcodeInfo struct {
	Name   string
	Layout OperandLayout
}

var opcodeTable = [256]OpcodeInfo{
	OpNop:             {"nop", LayoutNone},
	OpAconstNull:      {"aconst_null", LayoutNone},
	OpIconstM1:        {"iconst_m1", LayoutNone},
	OpIconst0:         {"iconst_0", LayoutNone},
	OpIconst1:         {"iconst_1", LayoutNone},
	OpIconst2:         {"iconst_2", LayoutNone},
	OpIconst3:         {"iconst_3", LayoutNone},
	OpIconst4:         {"iconst_4", LayoutNone},
	OpIconst5:         {"iconst_5", LayoutNone},
	OpLconst0:         {"lconst_0", LayoutNone},
	OpLconst1:         {"lconst_1", LayoutNone},
	OpFconst0:         {"fconst_0", LayoutNone},
	OpFconst1:         {"fconst_1", LayoutNone},
	OpFconst2:         {"fconst_2", LayoutNone},
	OpDconst0:         {"dconst_0", LayoutNone},
	OpDconst1:         {"dconst_1", LayoutNone},
	OpBipush:          {"bipush", LayoutByte},
	OpSipush:          {"sipush", LayoutShort},
	OpLdc:             {"ldc", LayoutByte},
	OpLdcW:            {"ldc_w", LayoutShort},
	OpLdc2W:           {"ldc2_w", LayoutShort},
	OpIload:           {"iload", LayoutByte},
	OpLload:           {"lload", LayoutByte},
	OpFload:           {"fload", LayoutByte},
	OpDload:           {"dload", LayoutByte},
	OpAload:           {"aload", LayoutByte},
	OpIload0:          {"iload_0", LayoutNone},
	OpIload1:          {"iload_1", LayoutNone},
	OpIload2:          {"iload_2", LayoutNone},
	OpIload3:          {"iload_3", LayoutNone},
	OpLload0:          {"lload_0", LayoutNone},
	OpLload1:          {"lload_1", LayoutNone},
	OpLload2:          {"lload_2", LayoutNone},
	OpLload3:          {"lload_3", LayoutNone},
	OpFload0:          {"fload_0", LayoutNone},
	OpFload1:          {"fload_1", LayoutNone},
	OpFload2:          {"fload_2", LayoutNone},
	OpFload3:          {"fload_3", LayoutNone},
	OpDload0:          {"dload_0", LayoutNone},
	OpDload1:          {"dload_1", LayoutNone},
	OpDload2:          {"dload_2", LayoutNone},
	OpDload3:          {"dload_3", LayoutNone},
	OpAload0:          {"aload_0", LayoutNone},
	OpAload1:          {"aload_1", LayoutNone},
	OpAload2:          {"aload_2", LayoutNone},
	OpAload3:          {"aload_3", LayoutNone},
	OpIaload:          {"iaload", LayoutNone},
	OpLaload:          {"laload", LayoutNone},
	OpFaload:          {"faload", LayoutNone},
	OpDaload:          {"daload", LayoutNone},
	OpAaload:          {"aaload", LayoutNone},
	OpBaload:          {"baload", LayoutNone},
	OpCaload:          {"caload", LayoutNone},
	OpSaload:          {"saload", LayoutNone},
	OpIstore:          {"istore", LayoutByte},
	OpLstore:          {"lstore", LayoutByte},
	OpFstore:          {"fstore", LayoutByte},
	OpDstore:          {"dstore", LayoutByte},
	OpAstore:          {"astore", LayoutByte},
	OpIstore0:         {"istore_0", LayoutNone},
	OpIstore1:         {"istore_1", LayoutNone},
	OpIstore2:         {"istore_2", LayoutNone},
	OpIstore3:         {"istore_3", LayoutNone},
	OpLstore0:         {"lstore_0", LayoutNone},
	OpLstore1:         {"lstore_1", LayoutNone},
	OpLstore2:         {"lstore_2", LayoutNone},
	OpLstore3:         {"lstore_3", LayoutNone},
	OpFstore0:         {"fstore_0", LayoutNone},
	OpFstore1:         {"fstore_1", LayoutNone},
	OpFstore2:         {"fstore_2", LayoutNone},
	OpFstore3:         {"fstore_3", LayoutNone},
	OpDstore0:         {"dstore_0", LayoutNone},
	OpDstore1:         {"dstore_1", LayoutNone},
	OpDstore2:         {"dstore_2", LayoutNone},
	OpDstore3:         {"dstore_3", LayoutNone},
	OpAstore0:         {"astore_0", LayoutNone},
	OpAstore1:         {"astore_1", LayoutNone},
	OpAstore2:         {"astore_2", LayoutNone},
	OpAstore3:         {"astore_3", LayoutNone},
	OpIastore:         {"iastore", LayoutNone},
	OpLastore:         {"lastore", LayoutNone},
	OpFastore:         {"fastore", LayoutNone},
	OpDastore:         {"dastore", LayoutNone},
	OpAastore:         {"aastore", LayoutNone},
	OpBastore:         {"bastore", LayoutNone},
	OpCastore:         {"castore", LayoutNone},
	OpSastore:         {"sastore", LayoutNone},
	OpPop:             {"pop", LayoutNone},
	OpPop2:            {"pop2", LayoutNone},
	OpDup:             {"dup", LayoutNone},
	OpDupX1:           {"dup_x1", LayoutNone},
	OpDupX2:           {"dup_x2", LayoutNone},
	OpDup2:            {"dup2", LayoutNone},
	OpDup2X1:          {"dup2_x1", LayoutNone},
	OpDup2X2:          {"dup2_x2", LayoutNone},
	OpSwap:            {"swap", LayoutNone},
	OpIadd:            {"iadd", LayoutNone},
	OpLadd:            {"ladd", LayoutNone},
	OpFadd:            {"fadd", LayoutNone},
	OpDadd:            {"dadd", LayoutNone},
	OpIsub:            {"isub", LayoutNone},
	OpLsub:            {"lsub", LayoutNone},
	OpFsub:            {"fsub", LayoutNone},
	OpDsub:            {"dsub", LayoutNone},
	OpImul:            {"imul", LayoutNone},
	OpLmul:            {"lmul", LayoutNone},
	OpFmul:            {"fmul", LayoutNone},
	OpDmul:            {"dmul", LayoutNone},
	OpIdiv:            {"idiv", LayoutNone},
	OpLdiv:            {"ldiv", LayoutNone},
	OpFdiv:            {"fdiv", LayoutNone},
	OpDdiv:            {"ddiv", LayoutNone},
	OpIrem:            {"irem", LayoutNone},
	OpLrem:            {"lrem", LayoutNone},
	OpFrem:            {"frem", LayoutNone},
	OpDrem:            {"drem", LayoutNone},
	OpIneg:            {"ineg", LayoutNone},
	OpLneg:            {"lneg", LayoutNone},
	OpFneg:            {"fneg", LayoutNone},
	OpDneg:            {"dneg", LayoutNone},
	OpIshl:            {"ishl", LayoutNone},
	OpLshl:            {"lshl", LayoutNone},
	OpIshr:            {"ishr", LayoutNone},
	OpLshr:            {"lshr", LayoutNone},
	OpIushr:           {"iushr", LayoutNone},
	OpLushr:           {"lushr", LayoutNone},
	OpIand:            {"iand", LayoutNone},
	OpLand:            {"land", LayoutNone},
	OpIor:             {"ior", LayoutNone},
	OpLor:             {"lor", LayoutNone},
	OpIxor:            {"ixor", LayoutNone},
	OpLxor:            {"lxor", LayoutNone},
	OpIinc:            {"iinc", LayoutIinc},
	OpI2l:             {"i2l", LayoutNone},
	OpI2f:             {"i2f", LayoutNone},
	OpI2d:             {"i2d", LayoutNone},
	OpL2i:             {"l2i", LayoutNone},
	OpL2f:             {"l2f", LayoutNone},
	OpL2d:             {"l2d", LayoutNone},
	OpF2i:             {"f2i", LayoutNone},
	OpF2l:             {"f2l", LayoutNone},
	OpF2d:             {"f2d", LayoutNone},
	OpD2i:             {"d2i", LayoutNone},
	OpD2l:             {"d2l", LayoutNone},
	OpD2f:             {"d2f", LayoutNone},
	OpI2b:             {"i2b", LayoutNone},
	OpI2c:             {"i2c", LayoutNone},
	OpI2s:             {"i2s", LayoutNone},
	OpLcmp:            {"lcmp", LayoutNone},
	OpFcmpl:           {"fcmpl", LayoutNone},
	OpFcmpg:           {"fcmpg", LayoutNone},
	OpDcmpl:           {"dcmpl", LayoutNone},
	OpDcmpg:           {"dcmpg", LayoutNone},
	OpIfeq:            {"ifeq", LayoutBranch},
	OpIfne:            {"ifne", LayoutBranch},
	OpIflt:            {"iflt", LayoutBranch},
	OpIfge:            {"ifge", LayoutBranch},
	OpIfgt:            {"ifgt", LayoutBranch},
	OpIfle:            {"ifle", LayoutBranch},
	OpIfIcmpeq:        {"if_icmpeq", LayoutBranch},
	OpIfIcmpne:        {"if_icmpne", LayoutBranch},
	OpIfIcmplt:        {"if_icmplt", LayoutBranch},
	OpIfIcmpge:        {"if_icmpge", LayoutBranch},
	OpIfIcmpgt:        {"if_icmpgt", LayoutBranch},
	OpIfIcmple:        {"if_icmple", LayoutBranch},
	OpIfAcmpeq:        {"if_acmpeq", LayoutBranch},
	OpIfAcmpne:        {"if_acmpne", LayoutBranch},
	OpGoto:            {"goto", LayoutBranch},
	OpJsr:             {"jsr", LayoutBranch},
	OpRet:             {"ret", LayoutByte},
	OpTableswitch:     {"tableswitch", LayoutTableSwitch},
	OpLookupswitch:    {"lookupswitch", LayoutLookupSwitch},
	OpIreturn:         {"ireturn", LayoutNone},
	OpLreturn:         {"lreturn", LayoutNone},
	OpFreturn:         {"freturn", LayoutNone},
	OpDreturn:         {"dreturn", LayoutNone},
	OpAreturn:         {"areturn", LayoutNone},
	OpReturn:          {"return", LayoutNone},
	OpGetstatic:       {"getstatic", LayoutShort},
	OpPutstatic:       {"putstatic", LayoutShort},
	OpGetfield:        {"getfield", LayoutShort},
	OpPutfield:        {"putfield", LayoutShort},
	OpInvokevirtual:   {"invokevirtual", LayoutShort},
	OpInvokespecial:   {"invokespecial", LayoutShort},
	OpInvokestatic:    {"invokestatic", LayoutShort},
	OpInvokeinterface: {"invokeinterface", LayoutInvokeInterface},
	OpInvokedynamic:   {"invokedynamic", LayoutInvokeDynamic},
	OpNew:             {"new", LayoutShort},
	OpNewarray:        {"newarray", LayoutByte},
	OpAnewarray:       {"anewarray", LayoutShort},
	OpArraylength:     {"arraylength", LayoutNone},
	OpAthrow:          {"athrow", LayoutNone},
	OpCheckcast:       {"checkcast", LayoutShort},
	OpInstanceof:      {"instanceof", LayoutShort},
	OpMonitorenter:    {"monitorenter", LayoutNone},
	OpMonitorexit:     {"monitorexit", LayoutNone},
	OpWide:            {"wide", LayoutWide},
	OpMultianewarray:  {"multianewarray", LayoutMultiANewArray},
	OpIfnull:          {"ifnull", LayoutBranch},
	OpIfnonnull:       {"ifnonnull", LayoutBranch},
	OpGotoW:           {"goto_w", LayoutBranchWide},
	OpJsrW:            {"jsr_w", LayoutBranchWide},
	OpBreakpoint:      {"breakpoint", LayoutNone},
	OpImpdep1:         {"impdep1", LayoutNone},
	OpImpdep2:         {"impdep2", LayoutNone},
}

// Info returns the name and operand layout of op. Bytes with no assigned
// instruction report LayoutUndefined.
func (op Opcode) Info() OpcodeInfo {
	info := opcodeTable[op]
	if info.Name == "" {
		return OpcodeInfo{Name: fmt.Sprintf("undefined_%02x", uint8(op)), Layout: LayoutUndefined}
	}
	return info
}

func (op Opcode) String() string {
	return op.Info().Name
}

func (op Opcode) IsDefined() bool {
	return opcodeTable[op].Name != ""
}

// LookupOpcode finds an opcode by its mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	for i, info := range opcodeTable {
		if info.Name == name {
			return Opcode(i), true
		}
	}
	return 0, false
}

// SwitchPadding is the number of bytes between a tableswitch or lookupswitch
// opcode at code offset and its 4-byte aligned default field.
func SwitchPadding(offset int) int {
	return (4 - (offset+1)%4) % 4
}
