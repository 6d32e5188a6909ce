package machine

import (
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// literalTag returns the tag a LOADL/PUSH instruction should use for its
// literal/reserved value: the attached Type debug symbol if present, else
// Unknown.
func literalTag(inst *tam.Instruction) value.Tag {
	if sym, ok := inst.SymbolOfKind(tam.SymType); ok {
		return sym.ValueType
	}
	return value.Unknown
}

func (vm *VM) execLoad(inst *tam.Instruction) error {
	src, err := vm.addrOf(inst.Register, inst.D)
	if err != nil {
		return err
	}
	n := int(inst.N)
	for i := 0; i < n; i++ {
		v, err := vm.GetMem(src + i)
		if err != nil {
			return err
		}
		if err := vm.Push(v); err != nil {
			return err
		}
	}
	return vm.IncCP()
}

func (vm *VM) execLoadA(inst *tam.Instruction) error {
	addr, err := vm.addrOf(inst.Register, inst.D)
	if err != nil {
		return err
	}
	tag := AddrTagFor(inst.Register)
	if err := vm.Push(value.Value{Tag: tag, Payload: uint32(addr)}); err != nil {
		return err
	}
	return vm.IncCP()
}

func (vm *VM) execLoadI(inst *tam.Instruction) error {
	addrVal, err := vm.Pop()
	if err != nil {
		return err
	}
	addr, err := addrVal.AsAddr()
	if err != nil {
		return err
	}
	n := int(inst.N)
	for i := 0; i < n; i++ {
		v, err := vm.GetMem(int(addr) + i)
		if err != nil {
			return err
		}
		if err := vm.Push(v); err != nil {
			return err
		}
	}
	return vm.IncCP()
}

func (vm *VM) execLoadL(inst *tam.Instruction) error {
	v := value.Value{Tag: literalTag(inst), Payload: uint32(inst.D)}
	if err := vm.Push(v); err != nil {
		return err
	}
	return vm.IncCP()
}

func (vm *VM) execStore(inst *tam.Instruction) error {
	dst, err := vm.addrOf(inst.Register, inst.D)
	if err != nil {
		return err
	}
	n := int(inst.N)
	st, err := vm.Registers.GetUint(tam.ST)
	if err != nil {
		return err
	}
	src := int(st) - n
	if err := vm.CopyMem(src, dst, n); err != nil {
		return err
	}
	if _, err := vm.DecStack(n); err != nil {
		return err
	}
	return vm.IncCP()
}

func (vm *VM) execStoreI(inst *tam.Instruction) error {
	addrVal, err := vm.Pop()
	if err != nil {
		return err
	}
	dst, err := addrVal.AsAddr()
	if err != nil {
		return err
	}
	n := int(inst.N)
	st, err := vm.Registers.GetUint(tam.ST)
	if err != nil {
		return err
	}
	src := int(st) - n
	if err := vm.CopyMem(src, int(dst), n); err != nil {
		return err
	}
	if _, err := vm.DecStack(n); err != nil {
		return err
	}
	return vm.IncCP()
}

func (vm *VM) execPush(inst *tam.Instruction) error {
	n := int(inst.D)
	addr, err := vm.IncStack(n)
	if err != nil {
		return err
	}
	if err := vm.ZeroMem(int(addr), n, literalTag(inst)); err != nil {
		return err
	}
	return vm.IncCP()
}

func (vm *VM) execPop(inst *tam.Instruction) error {
	n := int(inst.N)
	d := int(inst.D)
	st, err := vm.Registers.GetUint(tam.ST)
	if err != nil {
		return err
	}
	srcStart := int(st) - n
	dstStart := srcStart - d
	if err := vm.CopyMem(srcStart, dstStart, n); err != nil {
		return err
	}
	if _, err := vm.DecStack(d); err != nil {
		return err
	}
	return vm.IncCP()
}

func (vm *VM) execJump(inst *tam.Instruction) error {
	addr, err := vm.addrOf(inst.Register, inst.D)
	if err != nil {
		return err
	}
	vm.Registers.Set(tam.CP, value.CodeAddrVal(uint32(addr)))
	return nil
}

func (vm *VM) execJumpI(inst *tam.Instruction) error {
	addrVal, err := vm.Pop()
	if err != nil {
		return err
	}
	addr, err := addrVal.AsAddr()
	if err != nil {
		return err
	}
	vm.Registers.Set(tam.CP, value.CodeAddrVal(addr))
	return nil
}

func (vm *VM) execJumpIf(inst *tam.Instruction) error {
	condVal, err := vm.Pop()
	if err != nil {
		return err
	}
	c, err := condVal.AsInt()
	if err != nil {
		return err
	}
	if c == inst.N {
		addr, err := vm.addrOf(inst.Register, inst.D)
		if err != nil {
			return err
		}
		vm.Registers.Set(tam.CP, value.CodeAddrVal(uint32(addr)))
		return nil
	}
	return vm.IncCP()
}

func (vm *VM) execHalt(inst *tam.Instruction) error {
	vm.State = StateHalted
	return nil
}

// callPrimitive dispatches to the primitive at the given displacement
// (address - PB).
func (vm *VM) callPrimitive(disp int) error {
	if vm.Primitives == nil {
		return NewMachineError(InternalError, "no primitive table installed")
	}
	return vm.Primitives.Call(vm, disp)
}

// pushCallFrame pushes the dynamic link and return address and
// establishes the new frame's LB, per the CALL/CALLI direct-call
// semantics.
func (vm *VM) pushCallFrame(target uint32) error {
	oldLB, err := vm.Registers.GetUint(tam.LB)
	if err != nil {
		return err
	}
	oldCP, err := vm.Registers.GetUint(tam.CP)
	if err != nil {
		return err
	}
	oldST, err := vm.Registers.GetUint(tam.ST)
	if err != nil {
		return err
	}
	if err := vm.Push(value.StackAddrVal(oldLB)); err != nil {
		return err
	}
	if err := vm.Push(value.CodeAddrVal(oldCP + 1)); err != nil {
		return err
	}
	vm.Registers.Set(tam.LB, value.StackAddrVal(oldST))
	vm.Registers.Set(tam.CP, value.CodeAddrVal(target))
	return nil
}

func (vm *VM) execCall(inst *tam.Instruction) error {
	// A CALL through register PB always names a primitive by
	// displacement d directly, even when d would otherwise look
	// out-of-range for the general addr-d[r] computation.
	if inst.Register == tam.PB {
		if err := vm.callPrimitive(int(inst.D)); err != nil {
			return err
		}
		return vm.IncCP()
	}

	target, err := vm.addrOf(inst.Register, inst.D)
	if err != nil {
		return err
	}
	pb, err := vm.Registers.GetUint(tam.PB)
	if err != nil {
		return err
	}
	if uint32(target) >= pb {
		if err := vm.callPrimitive(target - int(pb)); err != nil {
			return err
		}
		return vm.IncCP()
	}
	return vm.pushCallFrame(uint32(target))
}

func (vm *VM) execCallI(inst *tam.Instruction) error {
	addrVal, err := vm.Pop()
	if err != nil {
		return err
	}
	target, err := addrVal.AsAddr()
	if err != nil {
		return err
	}
	pb, err := vm.Registers.GetUint(tam.PB)
	if err != nil {
		return err
	}
	if target >= pb {
		if err := vm.callPrimitive(int(target) - int(pb)); err != nil {
			return err
		}
		return vm.IncCP()
	}
	return vm.pushCallFrame(target)
}

func (vm *VM) execReturn(inst *tam.Instruction) error {
	lb, err := vm.Registers.GetUint(tam.LB)
	if err != nil {
		return err
	}
	st, err := vm.Registers.GetUint(tam.ST)
	if err != nil {
		return err
	}
	n := int(inst.N)
	d := int(inst.D)

	dynLink, err := vm.GetMem(int(lb))
	if err != nil {
		return err
	}
	retAddr, err := vm.GetMem(int(lb) + 1)
	if err != nil {
		return err
	}

	srcStart := int(st) - n
	dstStart := int(lb) - d
	if err := vm.CopyMem(srcStart, dstStart, n); err != nil {
		return err
	}

	vm.Registers.Set(tam.ST, value.StackAddrVal(uint32(dstStart+n)))
	vm.Registers.Set(tam.LB, dynLink)
	vm.Registers.Set(tam.CP, retAddr)
	return nil
}
