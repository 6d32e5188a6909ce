package asm_test

import (
	"testing"

	"github.com/lookbusy1344/tamvm/internal/asm"
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryScaffoldingIsCallThenHalt(t *testing.T) {
	a := asm.New()
	img := a.Image()
	require.Equal(t, 2, img.InstructionCount())

	inst0, err := img.GetInstruction(0)
	require.NoError(t, err)
	assert.Equal(t, tam.CALL, inst0.Opcode)
	assert.Equal(t, tam.CB, inst0.Register)
	assert.Equal(t, int32(-1), inst0.D)

	inst1, err := img.GetInstruction(1)
	require.NoError(t, err)
	assert.Equal(t, tam.HALT, inst1.Opcode)
}

func TestAddNewFunctionMainPatchesEntryPlaceholder(t *testing.T) {
	a := asm.New()
	addr := a.AddNewFunction("main")

	inst0, err := a.Image().GetInstruction(0)
	require.NoError(t, err)
	assert.Equal(t, int32(addr), inst0.D)
}

func TestForwardCallIsPatchedOnceCalleeIsDefined(t *testing.T) {
	a := asm.New()
	a.AddNewFunction("main")

	callSite := a.CallFunction("helper")
	inst, err := a.Image().GetInstruction(callSite)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), inst.D, "forward call is unresolved until the callee is defined")

	helperAddr := a.AddNewFunction("helper")

	inst, err = a.Image().GetInstruction(callSite)
	require.NoError(t, err)
	assert.Equal(t, int32(helperAddr), inst.D)

	require.NoError(t, a.Finish())
}

func TestFinishReportsUndefinedCallee(t *testing.T) {
	a := asm.New()
	a.AddNewFunction("main")
	a.CallFunction("neverDefined")

	err := a.Finish()
	require.Error(t, err)
}

func TestDirectCallEmitsKnownAddressImmediately(t *testing.T) {
	a := asm.New()
	a.AddNewFunction("main")
	helperAddr := a.AddNewFunction("helper")

	callSite := a.CallFunction("helper")
	inst, err := a.Image().GetInstruction(callSite)
	require.NoError(t, err)
	assert.Equal(t, int32(helperAddr), inst.D, "calling an already-defined function emits the address directly, no placeholder")
}

func TestResetOffsetEmitsPopOnlyWhenOffsetGrew(t *testing.T) {
	a := asm.New()
	a.AddNewFunction("main")

	before := a.Image().InstructionCount()
	snap := a.SnapshotOffset()
	a.ResetOffset(snap)
	assert.Equal(t, before, a.Image().InstructionCount(), "no growth, no POP emitted")

	snap = a.SnapshotOffset()
	a.Declare(2)
	before = a.Image().InstructionCount()
	a.ResetOffset(snap)
	assert.Equal(t, before+1, a.Image().InstructionCount(), "offset grew, exactly one POP emitted")

	last, err := a.Image().GetInstruction(a.Image().InstructionCount() - 1)
	require.NoError(t, err)
	assert.Equal(t, tam.POP, last.Opcode)
	assert.Equal(t, int32(2), last.D)
}

func TestBackPatchJumpRejectsNonJumpOpcode(t *testing.T) {
	a := asm.New()
	err := a.BackPatchJump(1, 5) // instruction 1 is HALT
	require.Error(t, err)
}

func TestEmitBoundsCheckLeavesStackShapeForSuccessPath(t *testing.T) {
	a := asm.New()
	a.AddNewFunction("main")
	before := a.Image().InstructionCount()
	require.NoError(t, a.EmitBoundsCheck(0, 3))
	after := a.Image().InstructionCount()
	assert.Greater(t, after, before)

	// The success path ends in a JUMP over the two-instruction fail path
	// (LOADL message, CALL err) to the address just past the last emitted
	// instruction.
	endJump, err := a.Image().GetInstruction(after - 3)
	require.NoError(t, err)
	assert.Equal(t, tam.JUMP, endJump.Opcode)
	assert.Equal(t, int32(after), endJump.D)
}

func TestStringInterningIsDensePrefix(t *testing.T) {
	a := asm.New()
	id1 := a.InternString("hello")
	id2 := a.InternString("world")
	id3 := a.InternString("hello")
	assert.Equal(t, 0, id1)
	assert.Equal(t, 1, id2)
	assert.Equal(t, id1, id3)
}
