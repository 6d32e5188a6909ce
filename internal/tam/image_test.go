package tam_test

import (
	"bytes"
	"testing"

	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternStringIsBijectiveOntoDensePrefix(t *testing.T) {
	img := tam.NewImage()

	id0 := img.InternString("hello")
	id1 := img.InternString("world")
	id0Again := img.InternString("hello")

	assert.Equal(t, 0, id0)
	assert.Equal(t, 1, id1)
	assert.Equal(t, id0, id0Again, "re-interning the same string reuses its id")
	assert.Equal(t, 2, len(img.Strings))
}

func TestGetInstructionOutOfRange(t *testing.T) {
	img := tam.NewImage()
	img.Emit(tam.Instruction{Opcode: tam.HALT})

	_, err := img.GetInstruction(1)
	require.Error(t, err)

	inst, err := img.GetInstruction(0)
	require.NoError(t, err)
	assert.Equal(t, tam.HALT, inst.Opcode)
}

func TestImageSaveLoadRoundTrip(t *testing.T) {
	img := tam.NewImage()
	img.Emit(tam.Instruction{Opcode: tam.HALT})

	var buf bytes.Buffer
	require.NoError(t, img.Save(&buf))

	loaded, err := tam.Load(&buf)
	require.NoError(t, err)

	require.Equal(t, 1, loaded.InstructionCount())
	inst, err := loaded.GetInstruction(0)
	require.NoError(t, err)
	assert.Equal(t, tam.HALT, inst.Opcode)
}

func TestImageSaveLoadRoundTripWithStrings(t *testing.T) {
	img := tam.NewImage()
	id := img.InternString("Index out of bounds")
	img.Emit(tam.Instruction{Opcode: tam.LOADL, D: int32(id)})
	img.Emit(tam.Instruction{Opcode: tam.HALT})

	var buf bytes.Buffer
	require.NoError(t, img.Save(&buf))

	loaded, err := tam.Load(&buf)
	require.NoError(t, err)

	s, err := loaded.GetString(id)
	require.NoError(t, err)
	assert.Equal(t, "Index out of bounds", s)
}

func TestSymbolsRoundTripExceptBreakPoint(t *testing.T) {
	img := tam.NewImage()
	img.Emit(tam.Instruction{Opcode: tam.HALT})
	img.Instructions[0].AddSymbol(tam.Name("main"))
	img.Instructions[0].AddSymbol(tam.Location(3, 7))
	img.Instructions[0].AddSymbol(tam.TypeSymbol(value.Int))
	img.Instructions[0].AddSymbol(tam.Comment("entry", true))
	img.Instructions[0].SetBreakPoint(true)

	var buf bytes.Buffer
	require.NoError(t, img.SaveSymbols(&buf))

	fresh := tam.NewImage()
	fresh.Emit(tam.Instruction{Opcode: tam.HALT})
	require.NoError(t, fresh.LoadSymbols(&buf))

	name, ok := fresh.Instructions[0].SymbolOfKind(tam.SymName)
	require.True(t, ok)
	assert.Equal(t, "main", name.Text)

	loc, ok := fresh.Instructions[0].SymbolOfKind(tam.SymLocation)
	require.True(t, ok)
	assert.Equal(t, 3, loc.Line)
	assert.Equal(t, 7, loc.Col)

	typ, ok := fresh.Instructions[0].SymbolOfKind(tam.SymType)
	require.True(t, ok)
	assert.Equal(t, value.Int, typ.ValueType)

	assert.False(t, fresh.Instructions[0].HasBreakPoint(), "break points are never persisted")
}

func TestBreakPointToggle(t *testing.T) {
	inst := &tam.Instruction{Opcode: tam.HALT}
	assert.False(t, inst.HasBreakPoint())
	inst.SetBreakPoint(true)
	assert.True(t, inst.HasBreakPoint())
	inst.SetBreakPoint(false)
	assert.False(t, inst.HasBreakPoint())
}

func TestDisassembleLabelsPrecedeInstructionWithBlankLine(t *testing.T) {
	img := tam.NewImage()
	img.Emit(tam.Instruction{Opcode: tam.HALT})
	img.Instructions[0].AddSymbol(tam.Label("main"))

	lines := tam.Disassemble(img)
	require.Len(t, lines, 2)
	assert.Equal(t, tam.LineLabel, lines[0].Kind)
	assert.True(t, lines[0].BlankBefore)
	assert.Equal(t, tam.LineInstruction, lines[1].Kind)
	assert.Equal(t, 0, lines[1].Address)
}
