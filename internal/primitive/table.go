// Package primitive implements the closed set of built-in operations
// addressable in [PB, PT). Each primitive consumes its
// arguments from the machine's stack and pushes its result, the same
// calling convention a direct CALL would use.
package primitive

import (
	"github.com/lookbusy1344/tamvm/internal/machine"
)

// displacement fixes the primitive numbering. The set is closed and the
// order is part of the image format: 61 primitives, displacements 0-60,
// with transpose split into matTransposeI/matTransposeF so every entry is
// monomorphic in its operand type, like matMulI/matMulF. New primitives
// must append.
type displacement int

const (
	dispNop displacement = iota
	dispErr
	dispNot
	dispAnd
	dispOr
	dispSucc
	dispPred
	dispNegI
	dispAddI
	dispSubI
	dispMulI
	dispDivI
	dispModI
	dispEqI
	dispNeI
	dispLtI
	dispLeI
	dispGtI
	dispGeI
	dispNegF
	dispAddF
	dispSubF
	dispMulF
	dispDivF
	dispModF
	dispEqF
	dispNeF
	dispLtF
	dispLeF
	dispGtF
	dispGeF
	dispPowInt
	dispPowFloat
	dispSqrtInt
	dispSqrtFloat
	dispPrintInt
	dispPrintFloat
	dispPrintBool
	dispPrintString
	dispPrintLine
	dispReadInt
	dispReadFloat
	dispReadBool
	dispInt2Float
	dispFloat2Int
	dispReadMatrix9I
	dispWriteMatrix9I
	dispReadMatrix9F
	dispWriteMatrix9F
	dispReadMatrix16I
	dispWriteMatrix16I
	dispReadMatrix16F
	dispWriteMatrix16F
	dispReadMatrix64I
	dispWriteMatrix64I
	dispReadMatrix64F
	dispWriteMatrix64F
	dispMatMulI
	dispMatMulF
	dispMatTransposeI
	dispMatTransposeF
	dispCount
)

// Names gives each displacement's primitive name, in table order, for use
// by a disassembler or inspector annotating CALL PB instructions.
var Names = [dispCount]string{
	"nop", "err", "not", "and", "or", "succ", "pred",
	"negI", "addI", "subI", "mulI", "divI", "modI",
	"eqI", "neI", "ltI", "leI", "gtI", "geI",
	"negF", "addF", "subF", "mulF", "divF", "modF",
	"eqF", "neF", "ltF", "leF", "gtF", "geF",
	"powInt", "powFloat", "sqrtInt", "sqrtFloat",
	"printInt", "printFloat", "printBool", "printString", "printLine",
	"readInt", "readFloat", "readBool",
	"int2float", "float2int",
	"readMatrix9I", "writeMatrix9I", "readMatrix9F", "writeMatrix9F",
	"readMatrix16I", "writeMatrix16I", "readMatrix16F", "writeMatrix16F",
	"readMatrix64I", "writeMatrix64I", "readMatrix64F", "writeMatrix64F",
	"matMulI", "matMulF", "matTransposeI", "matTransposeF",
}

// Displacement looks up a primitive's fixed displacement by name, for use
// by the code generator and assembler when emitting `CALL PB,0,d`.
func Displacement(name string) (int, bool) {
	for i, n := range Names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

type primitiveFunc func(vm *machine.VM) error

// Table implements machine.PrimitiveTable: a flat array of native Go
// functions indexed by displacement. The displacement set is dense and
// fixed at compile time, so array dispatch beats a switch.
type Table struct {
	funcs [dispCount]primitiveFunc
}

// NewTable builds the one and only primitive table TAM runs against.
func NewTable() *Table {
	t := &Table{}
	t.funcs[dispNop] = primNop
	t.funcs[dispErr] = primErr
	t.funcs[dispNot] = primNot
	t.funcs[dispAnd] = primAnd
	t.funcs[dispOr] = primOr
	t.funcs[dispSucc] = primSucc
	t.funcs[dispPred] = primPred

	t.funcs[dispNegI] = primNegI
	t.funcs[dispAddI] = primAddI
	t.funcs[dispSubI] = primSubI
	t.funcs[dispMulI] = primMulI
	t.funcs[dispDivI] = primDivI
	t.funcs[dispModI] = primModI
	t.funcs[dispEqI] = primEqI
	t.funcs[dispNeI] = primNeI
	t.funcs[dispLtI] = primLtI
	t.funcs[dispLeI] = primLeI
	t.funcs[dispGtI] = primGtI
	t.funcs[dispGeI] = primGeI

	t.funcs[dispNegF] = primNegF
	t.funcs[dispAddF] = primAddF
	t.funcs[dispSubF] = primSubF
	t.funcs[dispMulF] = primMulF
	t.funcs[dispDivF] = primDivF
	t.funcs[dispModF] = primModF
	t.funcs[dispEqF] = primEqF
	t.funcs[dispNeF] = primNeF
	t.funcs[dispLtF] = primLtF
	t.funcs[dispLeF] = primLeF
	t.funcs[dispGtF] = primGtF
	t.funcs[dispGeF] = primGeF

	t.funcs[dispPowInt] = primPowInt
	t.funcs[dispPowFloat] = primPowFloat
	t.funcs[dispSqrtInt] = primSqrtInt
	t.funcs[dispSqrtFloat] = primSqrtFloat

	t.funcs[dispPrintInt] = primPrintInt
	t.funcs[dispPrintFloat] = primPrintFloat
	t.funcs[dispPrintBool] = primPrintBool
	t.funcs[dispPrintString] = primPrintString
	t.funcs[dispPrintLine] = primPrintLine
	t.funcs[dispReadInt] = primReadInt
	t.funcs[dispReadFloat] = primReadFloat
	t.funcs[dispReadBool] = primReadBool

	t.funcs[dispInt2Float] = primInt2Float
	t.funcs[dispFloat2Int] = primFloat2Int

	t.funcs[dispReadMatrix9I] = matrixReadFunc(9, false)
	t.funcs[dispWriteMatrix9I] = matrixWriteFunc(9, false)
	t.funcs[dispReadMatrix9F] = matrixReadFunc(9, true)
	t.funcs[dispWriteMatrix9F] = matrixWriteFunc(9, true)
	t.funcs[dispReadMatrix16I] = matrixReadFunc(16, false)
	t.funcs[dispWriteMatrix16I] = matrixWriteFunc(16, false)
	t.funcs[dispReadMatrix16F] = matrixReadFunc(16, true)
	t.funcs[dispWriteMatrix16F] = matrixWriteFunc(16, true)
	t.funcs[dispReadMatrix64I] = matrixReadFunc(64, false)
	t.funcs[dispWriteMatrix64I] = matrixWriteFunc(64, false)
	t.funcs[dispReadMatrix64F] = matrixReadFunc(64, true)
	t.funcs[dispWriteMatrix64F] = matrixWriteFunc(64, true)

	t.funcs[dispMatMulI] = primMatMulI
	t.funcs[dispMatMulF] = primMatMulF
	t.funcs[dispMatTransposeI] = primMatTransposeI
	t.funcs[dispMatTransposeF] = primMatTransposeF

	return t
}

// Count implements machine.PrimitiveTable.
func (t *Table) Count() int {
	return int(dispCount)
}

// Call implements machine.PrimitiveTable.
func (t *Table) Call(vm *machine.VM, disp int) error {
	if disp < 0 || disp >= int(dispCount) {
		return machine.NewMachineError(machine.InvalidAddress, "no primitive at displacement %d", disp)
	}
	fn := t.funcs[disp]
	if fn == nil {
		return machine.NewMachineError(machine.InternalError, "unimplemented primitive %s (%d)", Names[disp], disp)
	}
	return fn(vm)
}
