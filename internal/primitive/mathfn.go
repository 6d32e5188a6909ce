package primitive

import (
	"math"

	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// primPowInt computes b^e by repeated squaring over int32, matching
// integer exponentiation exactly rather than round-tripping through
// float64 math.Pow. A negative exponent yields 0, mirroring integer
// division truncation elsewhere in this package.
func primPowInt(vm *machine.VM) error {
	e, err := popInt(vm)
	if err != nil {
		return err
	}
	b, err := popInt(vm)
	if err != nil {
		return err
	}
	if e < 0 {
		return vm.Push(value.Int32(0))
	}
	result := int32(1)
	base := b
	for exp := e; exp > 0; exp >>= 1 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
	}
	return vm.Push(value.Int32(result))
}

func primPowFloat(vm *machine.VM) error {
	e, err := popFloat(vm)
	if err != nil {
		return err
	}
	b, err := popFloat(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Float32(float32(math.Pow(float64(b), float64(e)))))
}

func primSqrtInt(vm *machine.VM) error {
	v, err := popInt(vm)
	if err != nil {
		return err
	}
	if v < 0 {
		return machine.NewMachineError(machine.RuntimeError, "sqrtInt of negative value %d", v)
	}
	return vm.Push(value.Int32(int32(math.Sqrt(float64(v)))))
}

func primSqrtFloat(vm *machine.VM) error {
	v, err := popFloat(vm)
	if err != nil {
		return err
	}
	if v < 0 {
		return machine.NewMachineError(machine.RuntimeError, "sqrtFloat of negative value %g", v)
	}
	return vm.Push(value.Float32(float32(math.Sqrt(float64(v)))))
}

func primInt2Float(vm *machine.VM) error {
	v, err := popInt(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Float32(float32(v)))
}

func primFloat2Int(vm *machine.VM) error {
	v, err := popFloat(vm)
	if err != nil {
		return err
	}
	return vm.Push(value.Int32(int32(v)))
}
