package primitive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

func primPrintInt(vm *machine.VM) error {
	v, err := popInt(vm)
	if err != nil {
		return err
	}
	fmt.Fprintf(vm.Stdout, "%d", v)
	return nil
}

func primPrintFloat(vm *machine.VM) error {
	v, err := popFloat(vm)
	if err != nil {
		return err
	}
	fmt.Fprintf(vm.Stdout, "%g", v)
	return nil
}

func primPrintBool(vm *machine.VM) error {
	v, err := popBool(vm)
	if err != nil {
		return err
	}
	fmt.Fprintf(vm.Stdout, "%t", v)
	return nil
}

func primPrintString(vm *machine.VM) error {
	s, err := popString(vm)
	if err != nil {
		return err
	}
	fmt.Fprint(vm.Stdout, s)
	return nil
}

func primPrintLine(vm *machine.VM) error {
	fmt.Fprintln(vm.Stdout)
	return nil
}

// readLine reads one non-blank line from the VM's buffered stdin. There
// is no error-code fallback on EOF or a malformed token: TAM has no
// recoverable primitive tier, so a read failure here is fatal.
func readLine(vm *machine.VM) (string, error) {
	r := vm.BufferedStdin()
	for {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed, nil
		}
		if err != nil {
			return "", machine.NewMachineError(machine.IoError, "read from stdin: %v", err)
		}
	}
}

func primReadInt(vm *machine.VM) error {
	line, err := readLine(vm)
	if err != nil {
		return err
	}
	n, perr := strconv.ParseInt(line, 10, 32)
	if perr != nil {
		return machine.NewMachineError(machine.IoError, "readInt: %v", perr)
	}
	return vm.Push(value.Int32(int32(n)))
}

func primReadFloat(vm *machine.VM) error {
	line, err := readLine(vm)
	if err != nil {
		return err
	}
	f, perr := strconv.ParseFloat(line, 32)
	if perr != nil {
		return machine.NewMachineError(machine.IoError, "readFloat: %v", perr)
	}
	return vm.Push(value.Float32(float32(f)))
}

func primReadBool(vm *machine.VM) error {
	line, err := readLine(vm)
	if err != nil {
		return err
	}
	b, perr := strconv.ParseBool(line)
	if perr != nil {
		return machine.NewMachineError(machine.IoError, "readBool: %v", perr)
	}
	return vm.Push(value.BoolVal(b))
}
