package primitive

import (
	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

func primNop(vm *machine.VM) error {
	return nil
}

// primErr pops a string id and raises RuntimeError carrying that string,
// the only primitive that deliberately fails the run. Used
// by the code generator's bounds-check emission.
func primErr(vm *machine.VM) error {
	msg, err := popString(vm)
	if err != nil {
		return err
	}
	return machine.NewMachineError(machine.RuntimeError, "%s", msg)
}

func primNot(vm *machine.VM) error {
	b, err := popBool(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.BoolVal(!b))
}

func primAnd(vm *machine.VM) error {
	b, err := popBool(vm)
	if err != nil {
		return err
	}
	a, err := popBool(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.BoolVal(a && b))
}

func primOr(vm *machine.VM) error {
	b, err := popBool(vm)
	if err != nil {
		return err
	}
	a, err := popBool(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.BoolVal(a || b))
}

// primSucc and primPred preserve the operand's tag: an
// address value incremented by succ stays an address.
func primSucc(vm *machine.VM) error {
	v, err := vm.Pop()
	if err != nil {
		return err
	}
	n, err := v.AsInt()
	if err != nil {
		return err
	}
	return vm.Push(value.Value{Tag: v.Tag, Payload: uint32(n + 1)})
}

func primPred(vm *machine.VM) error {
	v, err := vm.Pop()
	if err != nil {
		return err
	}
	n, err := v.AsInt()
	if err != nil {
		return err
	}
	return vm.Push(value.Value{Tag: v.Tag, Payload: uint32(n - 1)})
}
