package asm

import (
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// EmitBoundsCheck emits a range check for a value on top of the
// stack: duplicate, compare against lower then upper bound,
// and call the err primitive on either violation, leaving the original
// value untouched on success.
//
// TAM has no dedicated duplicate opcode; a LOAD through ST at offset -1
// re-reads the current top-of-stack word and pushes a copy of it, which
// is how this (and the code generator's other "peek" needs) duplicates a
// value without a STORE round-trip.
func (a *Assembler) EmitBoundsCheck(lower, upper int32) error {
	a.dup()
	a.EmitTyped(tam.LOADL, 0, 0, lower, value.Int)
	if _, err := a.CallPrimitive("ltI"); err != nil {
		return err
	}
	failJump1 := a.Emit(tam.JUMPIF, tam.CB, 1, -1)

	a.dup()
	a.EmitTyped(tam.LOADL, 0, 0, upper, value.Int)
	if _, err := a.CallPrimitive("geI"); err != nil {
		return err
	}
	failJump2 := a.Emit(tam.JUMPIF, tam.CB, 1, -1)

	endJump := a.Emit(tam.JUMP, tam.CB, 0, -1)

	failAddr := int32(a.img.InstructionCount())
	if err := a.BackPatchJump(failJump1, failAddr); err != nil {
		return err
	}
	if err := a.BackPatchJump(failJump2, failAddr); err != nil {
		return err
	}
	id := a.InternString("Index out of bounds")
	a.EmitTyped(tam.LOADL, 0, 0, int32(id), value.StringID)
	if _, err := a.CallPrimitive("err"); err != nil {
		return err
	}

	endAddr := int32(a.img.InstructionCount())
	return a.BackPatchJump(endJump, endAddr)
}

// dup duplicates the current top-of-stack word.
func (a *Assembler) dup() {
	a.Emit(tam.LOAD, tam.ST, 1, -1)
}
