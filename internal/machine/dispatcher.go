// Package machine implements the TAM machine state and instruction
// dispatcher: the register file, linear memory, and the fetch-execute
// loop that interprets an Image one instruction at a time.
package machine

import (
	"bufio"
	"io"
	"os"

	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// PrimitiveTable is the set of built-in operations addressable in
// [PB, PT). Implemented by internal/primitive; declared here (rather than
// imported) so internal/primitive can depend on internal/machine without
// a cycle.
type PrimitiveTable interface {
	// Count returns the number of primitives, fixing PB = maxCodeMemSize -
	// Count().
	Count() int
	// Call invokes the primitive at the given displacement (address-PB)
	// against vm. It consumes its arguments from and pushes its result
	// onto vm's stack.
	Call(vm *VM, displacement int) error
}

// VM wraps a MachineState with the Image it is executing and the
// primitive library it calls into, and runs the fetch-execute loop.
type VM struct {
	*MachineState
	Image      *tam.Image
	Primitives PrimitiveTable

	Stdin  io.Reader
	Stdout io.Writer

	MaxCycles uint64
	Cycles    uint64

	// HonorBreakpoints, when true, makes Step stop (StateBreakpoint)
	// before executing an instruction carrying a BreakPoint debug symbol,
	// instead of running through it. Breakpoints are the one mutable part
	// of a loaded Image; this flag is the only core-VM
	// concession to that debug feature.
	HonorBreakpoints bool
	resumingBreak    bool

	bufStdin *bufio.Reader
}

// BufferedStdin returns a bufio.Reader wrapping vm.Stdin, created once and
// reused across calls. readInt/readFloat/readBool primitives must share a
// single buffered reader rather than each wrapping vm.Stdin fresh: fmt.Fscan
// silently drops any look-ahead it buffers past the current token if the
// underlying reader isn't a bufio.Reader already, which loses input between
// successive read primitives.
func (vm *VM) BufferedStdin() *bufio.Reader {
	if vm.bufStdin == nil {
		vm.bufStdin = bufio.NewReader(vm.Stdin)
	}
	return vm.bufStdin
}

// SetStdin installs r as the VM's input source, resetting any buffered
// look-ahead from a previous source.
func (vm *VM) SetStdin(r io.Reader) {
	vm.Stdin = r
	vm.bufStdin = nil
}

// NewVM builds a VM ready to run img: CB=0, CT=len(img.Instructions),
// PB=maxCodeMemSize-primitives.Count(), PT=maxCodeMemSize, SB=0, ST=SB,
// CP=CB. LB is left at its zero value until the first CALL establishes a
// frame.
func NewVM(img *tam.Image, memSize int, maxCodeMemSize int, primitives PrimitiveTable) *VM {
	ms := NewMachineState(memSize)

	ct := uint32(len(img.Instructions))
	pb := uint32(maxCodeMemSize - primitives.Count())
	pt := uint32(maxCodeMemSize)

	ms.Registers.Set(tam.CB, value.CodeAddrVal(0))
	ms.Registers.Set(tam.CT, value.CodeAddrVal(ct))
	ms.Registers.Set(tam.PB, value.CodeAddrVal(pb))
	ms.Registers.Set(tam.PT, value.CodeAddrVal(pt))
	ms.Registers.Set(tam.SB, value.StackAddrVal(0))
	ms.Registers.Set(tam.ST, value.StackAddrVal(0))
	ms.Registers.Set(tam.LB, value.StackAddrVal(0))
	ms.Registers.Set(tam.CP, value.CodeAddrVal(0))

	return &VM{
		MachineState: ms,
		Image:        img,
		Primitives:   primitives,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		MaxCycles:    DefaultMaxCycles,
	}
}

// CycleBudgetExhausted reports whether the run has hit its cycle budget
// while still Running.
func (vm *VM) CycleBudgetExhausted() bool {
	return vm.MaxCycles > 0 && vm.Cycles >= vm.MaxCycles && vm.State == StateRunning
}

// Run executes instructions until the machine halts, errors, hits a
// breakpoint, or exhausts its cycle budget. A machine error ends the run
// in StateError with the error latched in vm.Err; Run itself returns nil
// in that case.
func (vm *VM) Run() error {
	for vm.State == StateRunning {
		if vm.CycleBudgetExhausted() {
			return nil
		}
		if err := vm.Step(); err != nil && vm.State != StateError {
			return err
		}
	}
	return nil
}

// Step fetches and executes exactly one instruction. If the machine is
// not Running, Step is a no-op.
func (vm *VM) Step() error {
	if vm.State != StateRunning {
		return nil
	}

	cp, err := vm.Registers.GetUint(tam.CP)
	if err != nil {
		return vm.Fail(NewMachineError(InternalError, "CP register: %v", err))
	}

	inst, ierr := vm.Image.GetInstruction(int(cp))
	if ierr != nil {
		merr := NewMachineError(InvalidAddress, "fetch at CP=%d: %v", cp, ierr)
		merr.CP, merr.HasCP = cp, true
		return vm.Fail(merr)
	}

	if vm.HonorBreakpoints && !vm.resumingBreak && inst.HasBreakPoint() {
		vm.State = StateBreakpoint
		return nil
	}
	vm.resumingBreak = false

	if !inst.Opcode.Valid() {
		merr := NewMachineError(MalformedInstruction, "unknown opcode %d", int(inst.Opcode))
		merr.CP, merr.HasCP = cp, true
		return vm.Fail(merr)
	}

	execErr := vm.dispatch(inst)
	if execErr != nil {
		merr, ok := execErr.(*MachineError)
		if !ok {
			merr = NewMachineError(InternalError, "%v", execErr)
		}
		if !merr.HasCP {
			merr.CP, merr.HasCP = cp, true
		}
		return vm.Fail(merr)
	}

	vm.Cycles++
	return nil
}

// ResumeFromBreakpoint executes exactly one instruction even though it
// carries a BreakPoint symbol, then returns to normal breakpoint honoring
// for subsequent instructions.
func (vm *VM) ResumeFromBreakpoint() error {
	if vm.State != StateBreakpoint {
		return nil
	}
	vm.State = StateRunning
	vm.resumingBreak = true
	return vm.Step()
}

func (vm *VM) dispatch(inst *tam.Instruction) error {
	switch inst.Opcode {
	case tam.LOAD:
		return vm.execLoad(inst)
	case tam.LOADA:
		return vm.execLoadA(inst)
	case tam.LOADI:
		return vm.execLoadI(inst)
	case tam.LOADL:
		return vm.execLoadL(inst)
	case tam.STORE:
		return vm.execStore(inst)
	case tam.STOREI:
		return vm.execStoreI(inst)
	case tam.CALL:
		return vm.execCall(inst)
	case tam.CALLI:
		return vm.execCallI(inst)
	case tam.RETURN:
		return vm.execReturn(inst)
	case tam.PUSH:
		return vm.execPush(inst)
	case tam.POP:
		return vm.execPop(inst)
	case tam.JUMP:
		return vm.execJump(inst)
	case tam.JUMPI:
		return vm.execJumpI(inst)
	case tam.JUMPIF:
		return vm.execJumpIf(inst)
	case tam.HALT:
		return vm.execHalt(inst)
	default:
		return NewMachineError(MalformedInstruction, "unhandled opcode %s", inst.Opcode)
	}
}

// addrOf computes addr d[r]: register r's value plus d.
func (vm *VM) addrOf(reg tam.Register, d int32) (int, error) {
	base, err := vm.Registers.GetUint(reg)
	if err != nil {
		return 0, err
	}
	return int(int64(base) + int64(d)), nil
}
