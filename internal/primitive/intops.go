package primitive

import (
	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

func primNegI(vm *machine.VM) error {
	a, err := popInt(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Int32(-a))
}

// primAddI is tag-propagating: if either operand
// carries an address tag, the result keeps that tag. This is the one
// arithmetic primitive the code generator relies on for address
// arithmetic (LOADA + offset), so the asymmetry is load-bearing, not
// incidental.
func primAddI(vm *machine.VM) error {
	bv, err := vm.Pop()
	if err != nil {
		return err
	}
	av, err := vm.Pop()
	if err != nil {
		return err
	}
	b, err := bv.AsInt()
	if err != nil {
		return err
	}
	a, err := av.AsInt()
	if err != nil {
		return err
	}
	tag := value.Int
	switch {
	case av.IsAddr():
		tag = av.Tag
	case bv.IsAddr():
		tag = bv.Tag
	}
	return vm.Push(value.Value{Tag: tag, Payload: uint32(a + b)})
}

func intBinOp(vm *machine.VM, op func(a, b int32) int32) error {
	b, err := popInt(vm)
	if err != nil {
		return err
	}
	a, err := popInt(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Int32(op(a, b)))
}

func intCompare(vm *machine.VM, op func(a, b int32) bool) error {
	b, err := popInt(vm)
	if err != nil {
		return err
	}
	a, err := popInt(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.BoolVal(op(a, b)))
}

func primSubI(vm *machine.VM) error {
	return intBinOp(vm, func(a, b int32) int32 { return a - b })
}

func primMulI(vm *machine.VM) error {
	return intBinOp(vm, func(a, b int32) int32 { return a * b })
}

func primDivI(vm *machine.VM) error {
	b, err := popInt(vm)
	if err != nil {
		return err
	}
	a, err := popInt(vm)
	if err != nil {
		return err
	}
	if b == 0 {
		return machine.NewMachineError(machine.ZeroDivision, "divI by zero")
	}
	return vm.Push(value.Int32(a / b))
}

func primModI(vm *machine.VM) error {
	b, err := popInt(vm)
	if err != nil {
		return err
	}
	a, err := popInt(vm)
	if err != nil {
		return err
	}
	if b == 0 {
		return machine.NewMachineError(machine.ZeroDivision, "modI by zero")
	}
	return vm.Push(value.Int32(a % b))
}

func primEqI(vm *machine.VM) error { return intCompare(vm, func(a, b int32) bool { return a == b }) }
func primNeI(vm *machine.VM) error { return intCompare(vm, func(a, b int32) bool { return a != b }) }
func primLtI(vm *machine.VM) error { return intCompare(vm, func(a, b int32) bool { return a < b }) }
func primLeI(vm *machine.VM) error { return intCompare(vm, func(a, b int32) bool { return a <= b }) }
func primGtI(vm *machine.VM) error { return intCompare(vm, func(a, b int32) bool { return a > b }) }
func primGeI(vm *machine.VM) error { return intCompare(vm, func(a, b int32) bool { return a >= b }) }
