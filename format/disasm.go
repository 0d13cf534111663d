package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/rlegendi/jyzer/classfile"
)

// DisasmEncoder writes a bytecode listing of every method with a body.
// Constant pool operands are resolved into trailing comments.
type DisasmEncoder struct {
	w     io.Writer
	class *classfile.ClassFile

	// Method limits the listing to methods with this name when set.
	Method string
}

func NewDisasmEncoder(w io.Writer) *DisasmEncoder {
	return &DisasmEncoder{w: w}
}

func (e *DisasmEncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	return encode(e.w, e)
}

func (e *DisasmEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	cf := e.class
	cp := cf.ConstantPool

	header := classKind(cf)
	if cf.IsClass() && cf.AccessFlags.IsAbstract() {
		header = "abstract " + header
	}
	if cf.AccessFlags.IsFinal() {
		header = "final " + header
	}
	if access := cf.AccessFlags.Access(classfile.ClassFlags); access != "" {
		header = access + " " + header
	}
	fmt.Fprintf(&sb, "%s %s", header, classfile.InternalToSourceName(cf.ThisClassName()))
	if cf.HasSuperClass() {
		fmt.Fprintf(&sb, " extends %s", classfile.InternalToSourceName(cf.SuperClassName()))
	}
	if cf.HasInterfaces() {
		fmt.Fprintf(&sb, " implements %s", strings.Join(sourceNames(cf.InterfaceNames()), ", "))
	}
	fmt.Fprintf(&sb, "\n  version %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	if src := cf.SourceFile(); src != "" {
		fmt.Fprintf(&sb, "  source %s\n", src)
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		name := m.Name(cp)
		if e.Method != "" && name != e.Method {
			continue
		}
		sb.WriteString("\n")
		signature := name + m.Descriptor(cp)
		if md := m.ParsedDescriptor(cp); md != nil && md.ReturnType != nil {
			signature = methodSignature(name, md)
		}
		if display := m.AccessFlags.Display(classfile.MethodFlags); display != "" {
			signature = display + " " + signature
		}
		fmt.Fprintf(&sb, "%s\n", signature)

		code := m.Code()
		if code == nil {
			sb.WriteString("  (no code)\n")
			continue
		}
		fmt.Fprintf(&sb, "  stack=%d, locals=%d, length=%d\n", code.MaxStack, code.MaxLocals, len(code.Code))
		lines, _ := classfile.Find[*classfile.LineNumberTableAttribute](code.Attributes)
		for _, inst := range code.Instructions {
			sb.WriteString("    ")
			sb.WriteString(inst.String())
			if idx, ok := poolIndex(inst); ok {
				fmt.Fprintf(&sb, " // %s", cp.Describe(idx))
			}
			if lines != nil {
				for _, ln := range lines.LineNumberTable {
					if int(ln.StartPC) == inst.Offset {
						fmt.Fprintf(&sb, " (line %d)", ln.LineNumber)
						break
					}
				}
			}
			sb.WriteString("\n")
		}
		for _, h := range code.ExceptionTable {
			catch := "any"
			if !h.IsCatchAll() {
				catch = cp.GetClassName(h.CatchType)
			}
			fmt.Fprintf(&sb, "  catch %d-%d -> %d %s\n", h.StartPC, h.EndPC, h.HandlerPC, catch)
		}
	}
	return []byte(sb.String()), nil
}

func methodSignature(name string, md *classfile.MethodDescriptor) string {
	params := make([]string, len(md.Parameters))
	for i := range md.Parameters {
		params[i] = md.Parameters[i].String()
	}
	return fmt.Sprintf("%s %s(%s)", md.ReturnType.String(), name, strings.Join(params, ", "))
}

// poolIndex returns the constant pool index an instruction refers to.
func poolIndex(inst classfile.Instruction) (uint16, bool) {
	switch o := inst.Operand.(type) {
	case classfile.ByteOperand:
		if inst.Opcode == classfile.OpLdc {
			return uint16(o.Value), true
		}
	case classfile.ShortOperand:
		if inst.Opcode != classfile.OpSipush {
			return o.Value, true
		}
	case classfile.InvokeInterfaceOperand:
		return o.Index, true
	case classfile.InvokeDynamicOperand:
		return o.Index, true
	case classfile.MultiANewArrayOperand:
		return o.Index, true
	}
	return 0, false
}

// PoolEncoder lists the constant pool one slot per line, padding included.
type PoolEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewPoolEncoder(w io.Writer) *PoolEncoder {
	return &PoolEncoder{w: w}
}

func (e *PoolEncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	return encode(e.w, e)
}

func (e *PoolEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	cp := e.class.ConstantPool
	for i := 1; i < cp.Count(); i++ {
		fmt.Fprintf(&sb, "#%d = %s\n", i, cp.Describe(uint16(i)))
	}
	return []byte(sb.String()), nil
}
