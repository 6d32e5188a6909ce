package machine

import (
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// ExecutionState is the lifecycle state of a MachineState.
type ExecutionState int

const (
	StateRunning ExecutionState = iota
	StateHalted
	StateBreakpoint
	StateError
)

func (s ExecutionState) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateHalted:
		return "Halted"
	case StateBreakpoint:
		return "Breakpoint"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// MachineState is the register file, linear memory and lifecycle state
// that an Image runs against. Every run gets a fresh MachineState; once
// it enters StateError, every subsequent operation below is a no-op that
// returns the latched error.
type MachineState struct {
	Registers *RegisterFile
	Memory    *Memory
	Profiler  *Profiler

	State ExecutionState
	Err   *MachineError
}

// NewMachineState allocates a fresh MachineState with memSize words of
// linear memory.
func NewMachineState(memSize int) *MachineState {
	profiler := &Profiler{}
	return &MachineState{
		Registers: NewRegisterFile(profiler),
		Memory:    NewMemory(memSize, profiler),
		Profiler:  profiler,
		State:     StateRunning,
	}
}

// Fail latches err and transitions to StateError. Once failed, the state
// never recovers on its own; a fresh MachineState is required to run
// again.
func (ms *MachineState) Fail(err *MachineError) *MachineError {
	if ms.State == StateError {
		return ms.Err
	}
	ms.State = StateError
	ms.Err = err
	return err
}

// Failed reports whether the state has latched an error.
func (ms *MachineState) Failed() bool {
	return ms.State == StateError
}

// GetMem reads memory, no-op after failure.
func (ms *MachineState) GetMem(addr int) (value.Value, error) {
	if ms.Failed() {
		return value.Value{}, ms.Err
	}
	v, err := ms.Memory.GetMem(addr)
	if err != nil {
		return value.Value{}, ms.Fail(err.(*MachineError))
	}
	return v, nil
}

// SetMem writes memory, no-op after failure.
func (ms *MachineState) SetMem(addr int, v value.Value) error {
	if ms.Failed() {
		return ms.Err
	}
	if err := ms.Memory.SetMem(addr, v); err != nil {
		return ms.Fail(err.(*MachineError))
	}
	return nil
}

// CopyMem copies memory, no-op after failure.
func (ms *MachineState) CopyMem(src, dst, count int) error {
	if ms.Failed() {
		return ms.Err
	}
	if err := ms.Memory.CopyMem(src, dst, count); err != nil {
		return ms.Fail(err.(*MachineError))
	}
	return nil
}

// ZeroMem zero-fills memory, no-op after failure.
func (ms *MachineState) ZeroMem(dst, count int, tag value.Tag) error {
	if ms.Failed() {
		return ms.Err
	}
	if err := ms.Memory.ZeroMem(dst, count, tag); err != nil {
		return ms.Fail(err.(*MachineError))
	}
	return nil
}

// IncStack reserves n words at the top of the stack. It returns the
// previous ST (the address of the first reserved word) and sets
// ST += n. Fails StackOverflow if the new ST would reach or exceed the
// memory size.
func (ms *MachineState) IncStack(n int) (uint32, error) {
	if ms.Failed() {
		return 0, ms.Err
	}
	st, err := ms.Registers.GetUint(tam.ST)
	if err != nil {
		return 0, ms.Fail(NewMachineError(InternalError, "ST register: %v", err))
	}
	newST := int(st) + n
	if newST >= ms.Memory.Size() {
		return 0, ms.Fail(NewMachineError(StackOverflow, "stack top %d would reach memory size %d", newST, ms.Memory.Size()))
	}
	ms.Registers.Set(tam.ST, value.StackAddrVal(uint32(newST)))
	return st, nil
}

// DecStack releases n words from the top of the stack. It sets
// ST -= n and returns the new ST. Fails StackUnderflow if the new ST
// would fall below SB.
func (ms *MachineState) DecStack(n int) (uint32, error) {
	if ms.Failed() {
		return 0, ms.Err
	}
	st, err := ms.Registers.GetUint(tam.ST)
	if err != nil {
		return 0, ms.Fail(NewMachineError(InternalError, "ST register: %v", err))
	}
	sb, err := ms.Registers.GetUint(tam.SB)
	if err != nil {
		return 0, ms.Fail(NewMachineError(InternalError, "SB register: %v", err))
	}
	newST := int(st) - n
	if newST < int(sb) {
		return 0, ms.Fail(NewMachineError(StackUnderflow, "stack top %d would fall below base %d", newST, sb))
	}
	ms.Registers.Set(tam.ST, value.StackAddrVal(uint32(newST)))
	return uint32(newST), nil
}

// Push reserves one word and stores v into it.
func (ms *MachineState) Push(v value.Value) error {
	addr, err := ms.IncStack(1)
	if err != nil {
		return err
	}
	return ms.SetMem(int(addr), v)
}

// Pop releases one word and returns its value.
func (ms *MachineState) Pop() (value.Value, error) {
	addr, err := ms.DecStack(1)
	if err != nil {
		return value.Value{}, err
	}
	return ms.GetMem(int(addr))
}

// IncCP advances CP by one instruction, preserving its CodeAddr tag.
func (ms *MachineState) IncCP() error {
	if ms.Failed() {
		return ms.Err
	}
	cp, err := ms.Registers.GetUint(tam.CP)
	if err != nil {
		return ms.Fail(NewMachineError(InternalError, "CP register: %v", err))
	}
	ms.Registers.Set(tam.CP, value.CodeAddrVal(cp+1))
	return nil
}
