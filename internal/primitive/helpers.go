package primitive

import (
	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

func popInt(vm *machine.VM) (int32, error) {
	v, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

func popFloat(vm *machine.VM) (float32, error) {
	v, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	return v.AsFloat()
}

func popBool(vm *machine.VM) (bool, error) {
	v, err := vm.Pop()
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func popStringID(vm *machine.VM) (int, error) {
	v, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	return v.AsStringID()
}

func popString(vm *machine.VM) (string, error) {
	id, err := popStringID(vm)
	if err != nil {
		return "", err
	}
	s, serr := vm.Image.GetString(id)
	if serr != nil {
		return "", machine.NewMachineError(machine.IoError, "string pool: %v", serr)
	}
	return s, nil
}

// popWords pops count words and returns them in their original push order
// (index 0 is the word pushed first / deepest, index count-1 is the word
// that was on top of the stack). Matrix arguments are pushed in row-major
// order, so this restores row-major order on the way back out.
func popWords(vm *machine.VM, count int) ([]value.Value, error) {
	words := make([]value.Value, count)
	for i := count - 1; i >= 0; i-- {
		v, err := vm.Pop()
		if err != nil {
			return nil, err
		}
		words[i] = v
	}
	return words, nil
}

func pushWords(vm *machine.VM, words []value.Value) error {
	for _, w := range words {
		if err := vm.Push(w); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
