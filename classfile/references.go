package classfile

import (
	"fmt"
	"strings"
)

// ReferenceProblem is an index that does not resolve to an entry of the kind
// its position requires. Problems never stop a decode; they are reported so
// a caller can flag a malformed class while still inspecting the rest.
type ReferenceProblem struct {
	Where string
	Index uint16
	Want  []ConstantTag
	Got   string
}

func (p ReferenceProblem) String() string {
	want := make([]string, len(p.Want))
	for i, t := range p.Want {
		want[i] = t.String()
	}
	if len(want) == 0 {
		return fmt.Sprintf("%s: #%d %s", p.Where, p.Index, p.Got)
	}
	return fmt.Sprintf("%s: #%d is %s, want %s", p.Where, p.Index, p.Got, strings.Join(want, " or "))
}

type referenceChecker struct {
	cp       ConstantPool
	problems []ReferenceProblem
}

func (c *referenceChecker) expect(where string, index uint16, kinds ...ConstantTag) bool {
	entry, ok := c.cp.Get(index)
	if ok {
		for _, k := range kinds {
			if entry.Tag() == k {
				return true
			}
		}
	}

	got := "absent"
	switch {
	case ok:
		got = entry.Tag().String()
	case c.cp.Slot(index) != nil:
		got = c.cp.Slot(index).Tag().String()
	}
	c.problems = append(c.problems, ReferenceProblem{Where: where, Index: index, Want: kinds, Got: got})
	return false
}

func (c *referenceChecker) expectOptional(where string, index uint16, kinds ...ConstantTag) {
	if index != 0 {
		c.expect(where, index, kinds...)
	}
}

func (c *referenceChecker) report(where string, index uint16, problem string) {
	c.problems = append(c.problems, ReferenceProblem{Where: where, Index: index, Got: problem})
}

// CheckReferences walks every index held by the class and reports the ones
// that do not resolve to the required kind of constant. Member descriptors
// are also checked against the descriptor grammar.
func (cf *ClassFile) CheckReferences() []ReferenceProblem {
	c := &referenceChecker{cp: cf.ConstantPool}

	for i := 1; i < cf.ConstantPool.Count(); i++ {
		c.checkEntry(uint16(i))
	}

	c.expect("this_class", cf.ThisClass, ConstantClass)
	c.expectOptional("super_class", cf.SuperClass, ConstantClass)
	for i, idx := range cf.Interfaces {
		c.expect(fmt.Sprintf("interfaces[%d]", i), idx, ConstantClass)
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		where := fmt.Sprintf("fields[%d]", i)
		c.expect(where+".name", f.NameIndex, ConstantUtf8)
		if c.expect(where+".descriptor", f.DescriptorIndex, ConstantUtf8) && !IsValidFieldDescriptor(f.Descriptor(cf.ConstantPool)) {
			c.report(where+".descriptor", f.DescriptorIndex, "malformed field descriptor "+f.Descriptor(cf.ConstantPool))
		}
		c.checkAttributes(where, f.Attributes)
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		where := fmt.Sprintf("methods[%d]", i)
		c.expect(where+".name", m.NameIndex, ConstantUtf8)
		if c.expect(where+".descriptor", m.DescriptorIndex, ConstantUtf8) && !IsValidMethodDescriptor(m.Descriptor(cf.ConstantPool)) {
			c.report(where+".descriptor", m.DescriptorIndex, "malformed method descriptor "+m.Descriptor(cf.ConstantPool))
		}
		c.checkAttributes(where, m.Attributes)
	}

	c.checkAttributes("class", cf.Attributes)
	return c.problems
}

func (c *referenceChecker) checkEntry(index uint16) {
	where := fmt.Sprintf("constant_pool[%d]", index)
	switch e := c.cp.Slot(index).(type) {
	case *ConstantClassInfo:
		c.expect(where+".name", e.NameIndex, ConstantUtf8)
	case *ConstantStringInfo:
		c.expect(where+".string", e.StringIndex, ConstantUtf8)
	case *ConstantFieldrefInfo:
		c.expect(where+".class", e.ClassIndex, ConstantClass)
		c.expect(where+".name_and_type", e.NameAndTypeIndex, ConstantNameAndType)
	case *ConstantMethodrefInfo:
		c.expect(where+".class", e.ClassIndex, ConstantClass)
		c.expect(where+".name_and_type", e.NameAndTypeIndex, ConstantNameAndType)
	case *ConstantInterfaceMethodrefInfo:
		c.expect(where+".class", e.ClassIndex, ConstantClass)
		c.expect(where+".name_and_type", e.NameAndTypeIndex, ConstantNameAndType)
	case *ConstantNameAndTypeInfo:
		c.expect(where+".name", e.NameIndex, ConstantUtf8)
		c.expect(where+".descriptor", e.DescriptorIndex, ConstantUtf8)
	case *ConstantMethodHandleInfo:
		c.expect(where+".reference", e.ReferenceIndex, ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref)
	case *ConstantMethodTypeInfo:
		c.expect(where+".descriptor", e.DescriptorIndex, ConstantUtf8)
	case *ConstantDynamicInfo:
		c.expect(where+".name_and_type", e.NameAndTypeIndex, ConstantNameAndType)
	case *ConstantInvokeDynamicInfo:
		c.expect(where+".name_and_type", e.NameAndTypeIndex, ConstantNameAndType)
	case *ConstantModuleInfo:
		c.expect(where+".name", e.NameIndex, ConstantUtf8)
	case *ConstantPackageInfo:
		c.expect(where+".name", e.NameIndex, ConstantUtf8)
	}
}

func (c *referenceChecker) checkAttributes(owner string, attrs Attributes) {
	for i, attr := range attrs {
		where := fmt.Sprintf("%s.attributes[%d]", owner, i)
		if _, ok := attr.(*UnrecognizedAttribute); !ok {
			c.expect(where+".name", attr.Header().NameIndex, ConstantUtf8)
		}

		switch a := attr.(type) {
		case *ConstantValueAttribute:
			c.expect(where+".value", a.ConstantValueIndex,
				ConstantInteger, ConstantFloat, ConstantLong, ConstantDouble, ConstantString)
		case *ExceptionsAttribute:
			for j, idx := range a.ExceptionIndexTable {
				c.expect(fmt.Sprintf("%s.exceptions[%d]", where, j), idx, ConstantClass)
			}
		case *InnerClassesAttribute:
			for j, e := range a.Classes {
				w := fmt.Sprintf("%s.classes[%d]", where, j)
				c.expect(w+".inner", e.InnerClassInfoIndex, ConstantClass)
				c.expectOptional(w+".outer", e.OuterClassInfoIndex, ConstantClass)
				c.expectOptional(w+".name", e.InnerNameIndex, ConstantUtf8)
			}
		case *EnclosingMethodAttribute:
			c.expect(where+".class", a.ClassIndex, ConstantClass)
			c.expectOptional(where+".method", a.MethodIndex, ConstantNameAndType)
		case *SignatureAttribute:
			c.expect(where+".signature", a.SignatureIndex, ConstantUtf8)
		case *SourceFileAttribute:
			c.expect(where+".source_file", a.SourceFileIndex, ConstantUtf8)
		case *NestHostAttribute:
			c.expect(where+".host", a.HostClassIndex, ConstantClass)
		case *NestMembersAttribute:
			for j, idx := range a.Classes {
				c.expect(fmt.Sprintf("%s.classes[%d]", where, j), idx, ConstantClass)
			}
		case *PermittedSubclassesAttribute:
			for j, idx := range a.Classes {
				c.expect(fmt.Sprintf("%s.classes[%d]", where, j), idx, ConstantClass)
			}
		case *LocalVariableTableAttribute:
			for j, e := range a.LocalVariableTable {
				w := fmt.Sprintf("%s.locals[%d]", where, j)
				c.expect(w+".name", e.NameIndex, ConstantUtf8)
				c.expect(w+".descriptor", e.DescriptorIndex, ConstantUtf8)
			}
		case *LocalVariableTypeTableAttribute:
			for j, e := range a.LocalVariableTypeTable {
				w := fmt.Sprintf("%s.locals[%d]", where, j)
				c.expect(w+".name", e.NameIndex, ConstantUtf8)
				c.expect(w+".signature", e.SignatureIndex, ConstantUtf8)
			}
		case *MethodParametersAttribute:
			for j, p := range a.Parameters {
				c.expectOptional(fmt.Sprintf("%s.parameters[%d].name", where, j), p.NameIndex, ConstantUtf8)
			}
		case *BootstrapMethodsAttribute:
			for j, bm := range a.BootstrapMethods {
				c.expect(fmt.Sprintf("%s.methods[%d].ref", where, j), bm.BootstrapMethodRef, ConstantMethodHandle)
			}
		case *CodeAttribute:
			for j, e := range a.ExceptionTable {
				c.expectOptional(fmt.Sprintf("%s.exception_table[%d].catch_type", where, j), e.CatchType, ConstantClass)
			}
			c.checkInstructions(where, a.Instructions)
			c.checkAttributes(where, a.Attributes)
		}
	}
}

var loadableTags = []ConstantTag{
	ConstantInteger, ConstantFloat, ConstantString, ConstantClass,
	ConstantMethodHandle, ConstantMethodType, ConstantDynamic,
}

func (c *referenceChecker) checkInstructions(owner string, insts []Instruction) {
	for _, inst := range insts {
		where := fmt.Sprintf("%s.code[%d].%s", owner, inst.Offset, inst.Opcode)
		switch o := inst.Operand.(type) {
		case ByteOperand:
			if inst.Opcode == OpLdc {
				c.expect(where, uint16(o.Value), loadableTags...)
			}
		case ShortOperand:
			switch inst.Opcode {
			case OpLdcW:
				c.expect(where, o.Value, loadableTags...)
			case OpLdc2W:
				c.expect(where, o.Value, ConstantLong, ConstantDouble, ConstantDynamic)
			case OpGetstatic, OpPutstatic, OpGetfield, OpPutfield:
				c.expect(where, o.Value, ConstantFieldref)
			case OpInvokevirtual:
				c.expect(where, o.Value, ConstantMethodref)
			case OpInvokespecial, OpInvokestatic:
				c.expect(where, o.Value, ConstantMethodref, ConstantInterfaceMethodref)
			case OpNew, OpAnewarray, OpCheckcast, OpInstanceof:
				c.expect(where, o.Value, ConstantClass)
			}
		case InvokeInterfaceOperand:
			c.expect(where, o.Index, ConstantInterfaceMethodref)
		case InvokeDynamicOperand:
			c.expect(where, o.Index, ConstantInvokeDynamic)
		case MultiANewArrayOperand:
			c.expect(where, o.Index, ConstantClass)
		}
	}
}
