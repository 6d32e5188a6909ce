// Package asm implements the TAM assembler: the owning object that turns
// a sequence of emission calls from internal/codegen into a finished
// internal/tam.Image: the instruction vector, the forward-patch map for
// deferred CALLs, the string pool, and the local-offset counter bundled
// into one type that every emission method hangs off.
package asm

import (
	"fmt"

	"github.com/lookbusy1344/tamvm/internal/primitive"
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// AssembleError reports a problem discovered while assembling, distinct
// from a runtime MachineError: these are compiler-side failures (an
// unresolved forward call, an illegal back-patch target).
type AssembleError struct {
	Message string
}

func (e *AssembleError) Error() string { return e.Message }

// patchSite is one deferred CALL instruction awaiting its callee's
// address.
type patchSite struct {
	addr int
}

// Assembler owns the growing instruction vector (via its Image), a
// forward-patch map keyed by callee name, the current local-offset
// counter, and the debug-symbol staging container.
type Assembler struct {
	img *tam.Image

	funcAddrs map[string]int
	pending   map[string][]patchSite

	nextOffset int32

	mainPatchAddr int

	stagedSymbols []tam.DebugSymbol
	locStack      []tam.DebugSymbol
}

// New returns an Assembler with the mandatory entry scaffolding already
// emitted: a `CALL CB,0,-1` placeholder (patched once the function named
// "main" is added) followed by `HALT`.
func New() *Assembler {
	a := &Assembler{
		img:       tam.NewImage(),
		funcAddrs: make(map[string]int),
		pending:   make(map[string][]patchSite),
	}
	a.mainPatchAddr = a.img.Emit(tam.Instruction{Opcode: tam.CALL, Register: tam.CB, D: -1})
	a.img.Emit(tam.Instruction{Opcode: tam.HALT})
	return a
}

// Image returns the Assembler's underlying image. Valid to call at any
// point; callers should check Finish for unresolved forward calls before
// treating it as complete.
func (a *Assembler) Image() *tam.Image {
	return a.img
}

// StageSymbol queues a debug symbol to be attached to the next emitted
// instruction, draining on the next Emit call.
func (a *Assembler) StageSymbol(s tam.DebugSymbol) {
	a.stagedSymbols = append(a.stagedSymbols, s)
}

// PushLocation records the current AST node's source position so it is
// automatically attached to every instruction emitted until the matching
// PopLocation.
func (a *Assembler) PushLocation(line, col int) {
	a.locStack = append(a.locStack, tam.Location(line, col))
}

// PopLocation pops the most recently pushed source position.
func (a *Assembler) PopLocation() {
	if len(a.locStack) == 0 {
		return
	}
	a.locStack = a.locStack[:len(a.locStack)-1]
}

// Emit appends an instruction, draining any staged symbols plus the
// current top-of-stack source location onto it, and returns its address.
func (a *Assembler) Emit(op tam.Opcode, reg tam.Register, n, d int32) int {
	inst := tam.Instruction{Opcode: op, Register: reg, N: n, D: d}
	if len(a.locStack) > 0 {
		inst.AddSymbol(a.locStack[len(a.locStack)-1])
	}
	for _, s := range a.stagedSymbols {
		inst.AddSymbol(s)
	}
	a.stagedSymbols = nil
	return a.img.Emit(inst)
}

// EmitTyped is Emit plus a Type debug symbol, used for LOADL/PUSH so the
// dispatcher's literalTag lookup has something to read.
func (a *Assembler) EmitTyped(op tam.Opcode, reg tam.Register, n, d int32, t value.Tag) int {
	addr := a.Emit(op, reg, n, d)
	inst, _ := a.img.GetInstruction(addr)
	inst.AddSymbol(tam.TypeSymbol(t))
	return addr
}

// InternString delegates to the Image's string pool.
func (a *Assembler) InternString(s string) int {
	return a.img.InternString(s)
}

// SnapshotOffset returns the current local offset, to be restored by
// ResetOffset at the end of a block.
func (a *Assembler) SnapshotOffset() int32 {
	return a.nextOffset
}

// Declare reserves size words at the current offset and returns where
// they start, bumping the offset for the next declaration.
func (a *Assembler) Declare(size int32) int32 {
	off := a.nextOffset
	a.nextOffset += size
	return off
}

// ResetOffset restores the local offset to old, emitting POP(0, n) first
// if the offset grew past old in the meantime — discarding the slack left
// by block-scoped declarations that have gone out of scope.
func (a *Assembler) ResetOffset(old int32) {
	if a.nextOffset > old {
		a.Emit(tam.POP, 0, 0, a.nextOffset-old)
	}
	a.nextOffset = old
}

// AddNewFunction records fn's entry address as the current end of the
// instruction stream, back-patches every deferred call to fn recorded so
// far, rewrites the entry placeholder if fn is "main", and resets the
// local offset to 2, reserving slots 0[LB]/1[LB] for the dynamic link and
// return address.
func (a *Assembler) AddNewFunction(fn string) int {
	addr := a.img.InstructionCount()
	a.funcAddrs[fn] = addr

	for _, site := range a.pending[fn] {
		inst, _ := a.img.GetInstruction(site.addr)
		inst.D = int32(addr)
	}
	delete(a.pending, fn)

	if fn == "main" {
		mainInst, _ := a.img.GetInstruction(a.mainPatchAddr)
		mainInst.D = int32(addr)
	}

	a.nextOffset = 2
	return addr
}

// CallFunction emits a direct CALL if fn's address is already known, or a
// deferred placeholder registered for later patching by AddNewFunction.
func (a *Assembler) CallFunction(fn string) int {
	if addr, ok := a.funcAddrs[fn]; ok {
		return a.Emit(tam.CALL, tam.CB, 0, int32(addr))
	}
	site := a.Emit(tam.CALL, tam.CB, 0, -1)
	a.pending[fn] = append(a.pending[fn], patchSite{addr: site})
	return site
}

// CallPrimitive emits a CALL through PB at the named primitive's fixed
// displacement.
func (a *Assembler) CallPrimitive(name string) (int, error) {
	d, ok := primitive.Displacement(name)
	if !ok {
		return 0, &AssembleError{Message: fmt.Sprintf("no such primitive: %s", name)}
	}
	return a.Emit(tam.CALL, tam.PB, 0, int32(d)), nil
}

// BackPatchJump sets the d field of the JUMP/JUMPIF instruction at addr.
// Legal only for those two opcodes.
func (a *Assembler) BackPatchJump(addr int, target int32) error {
	inst, err := a.img.GetInstruction(addr)
	if err != nil {
		return err
	}
	if inst.Opcode != tam.JUMP && inst.Opcode != tam.JUMPIF {
		return &AssembleError{Message: fmt.Sprintf("back-patch target at %d is %s, not JUMP/JUMPIF", addr, inst.Opcode)}
	}
	inst.D = target
	return nil
}

// Finish reports every callee that still has unresolved forward calls:
// no CALL with d = -1 may survive past the point every referenced callee
// has had AddNewFunction called.
func (a *Assembler) Finish() error {
	if len(a.pending) == 0 {
		return nil
	}
	for fn := range a.pending {
		return &AssembleError{Message: fmt.Sprintf("function %q is called but never defined", fn)}
	}
	return nil
}
