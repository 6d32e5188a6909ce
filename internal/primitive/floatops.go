package primitive

import (
	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

func primNegF(vm *machine.VM) error {
	a, err := popFloat(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Float32(-a))
}

func floatBinOp(vm *machine.VM, op func(a, b float32) float32) error {
	b, err := popFloat(vm)
	if err != nil {
		return err
	}
	a, err := popFloat(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Float32(op(a, b)))
}

func floatCompare(vm *machine.VM, op func(a, b float32) bool) error {
	b, err := popFloat(vm)
	if err != nil {
		return err
	}
	a, err := popFloat(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.BoolVal(op(a, b)))
}

func primAddF(vm *machine.VM) error {
	return floatBinOp(vm, func(a, b float32) float32 { return a + b })
}

func primSubF(vm *machine.VM) error {
	return floatBinOp(vm, func(a, b float32) float32 { return a - b })
}

func primMulF(vm *machine.VM) error {
	return floatBinOp(vm, func(a, b float32) float32 { return a * b })
}

// primDivF raises ZeroDivision on exact 0.0, not on
// near-zero values; floating division by a tiny nonzero divisor produces
// a large but well-defined float, matching IEEE-754 semantics.
func primDivF(vm *machine.VM) error {
	b, err := popFloat(vm)
	if err != nil {
		return err
	}
	a, err := popFloat(vm)
	if err != nil {
		return err
	}
	if b == 0 {
		return machine.NewMachineError(machine.ZeroDivision, "divF by zero")
	}
	return vm.Push(value.Float32(a / b))
}

func primModF(vm *machine.VM) error {
	b, err := popFloat(vm)
	if err != nil {
		return err
	}
	a, err := popFloat(vm)
	if err != nil {
		return err
	}
	if b == 0 {
		return machine.NewMachineError(machine.ZeroDivision, "modF by zero")
	}
	return vm.Push(value.Float32(modFloat32(a, b)))
}

func modFloat32(a, b float32) float32 {
	q := float32(int32(a / b))
	return a - q*b
}

func primEqF(vm *machine.VM) error {
	return floatCompare(vm, func(a, b float32) bool { return a == b })
}
func primNeF(vm *machine.VM) error {
	return floatCompare(vm, func(a, b float32) bool { return a != b })
}
func primLtF(vm *machine.VM) error {
	return floatCompare(vm, func(a, b float32) bool { return a < b })
}
func primLeF(vm *machine.VM) error {
	return floatCompare(vm, func(a, b float32) bool { return a <= b })
}
func primGtF(vm *machine.VM) error {
	return floatCompare(vm, func(a, b float32) bool { return a > b })
}
func primGeF(vm *machine.VM) error {
	return floatCompare(vm, func(a, b float32) bool { return a >= b })
}
