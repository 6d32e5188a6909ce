// Package codegen walks a typed internal/ast.Program and emits TAM
// instructions through internal/asm. It assumes the external analysis
// stage has already resolved every node's Type and that no implicit
// conversions remain: a typed-but-absurd AST shape reaching this package
// is a compiler bug, reported as a *CodegenError rather than a
// user-facing diagnostic.
package codegen

import (
	"fmt"

	"github.com/lookbusy1344/tamvm/internal/asm"
	"github.com/lookbusy1344/tamvm/internal/ast"
	"github.com/lookbusy1344/tamvm/internal/tam"
)

// CodegenError reports a problem found while generating code: an
// impossible-by-typing AST shape, an undeclared identifier, or similar
// compiler-internal inconsistency.
type CodegenError struct {
	Message string
}

func (e *CodegenError) Error() string { return e.Message }

func errf(format string, args ...any) error {
	return &CodegenError{Message: fmt.Sprintf(format, args...)}
}

// local describes one declared name's position and type within the
// current function's frame.
type local struct {
	offset int32
	typ    ast.Type
}

// scope is one block's set of declared names, with the frame offset it
// started at (so the generator can ResetOffset on block exit).
type scope struct {
	names    map[string]local
	snapshot int32
}

// Generator walks a Program and emits through a single owning Assembler.
type Generator struct {
	a *asm.Assembler

	scopes []*scope

	resultSize int
	paramSize  int
	endJumps   []int // JUMP placeholders awaiting the function's end address
}

// New returns a Generator ready to compile a Program.
func New() *Generator {
	return &Generator{a: asm.New()}
}

// Generate compiles every function in prog and returns the finished
// Assembler, or an error if any forward call was never resolved or a node
// could not be compiled.
func Generate(prog *ast.Program) (*asm.Assembler, error) {
	g := New()
	for _, fn := range prog.Functions {
		if err := g.compileFunction(fn); err != nil {
			return nil, err
		}
	}
	if err := g.a.Finish(); err != nil {
		return nil, err
	}
	return g.a, nil
}

func (g *Generator) pushScope() {
	snap := g.a.SnapshotOffset()
	g.scopes = append(g.scopes, &scope{names: make(map[string]local), snapshot: snap})
}

func (g *Generator) popScope() {
	top := g.scopes[len(g.scopes)-1]
	g.scopes = g.scopes[:len(g.scopes)-1]
	g.a.ResetOffset(top.snapshot)
}

func (g *Generator) define(name string, typ ast.Type) int32 {
	off := g.a.Declare(int32(typ.WordSize()))
	g.scopes[len(g.scopes)-1].names[name] = local{offset: off, typ: typ}
	return off
}

func (g *Generator) lookup(name string) (local, error) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if l, ok := g.scopes[i].names[name]; ok {
			return l, nil
		}
	}
	return local{}, errf("undeclared identifier %q", name)
}

// compileFunction emits fn's prologue-free body. The caller pushes the
// actual parameters and CALL then sets LB to the old stack top, so
// parameters sit below the frame: the first at LB-paramSize, the last
// ending at LB-1, with the dynamic link and return address at 0[LB] and
// 1[LB] and locals from 2[LB] up. A single RETURN is emitted once, after
// the last statement, with every `return` mid-body compiled as "evaluate,
// JUMP to end" so multiple return statements share one RETURN opcode.
func (g *Generator) compileFunction(fn *ast.Function) error {
	g.a.AddNewFunction(fn.Name)
	g.pushScope()
	off := -int32(fn.ParamWordSize())
	for _, p := range fn.Params {
		g.scopes[len(g.scopes)-1].names[p.Name] = local{offset: off, typ: p.Type}
		off += int32(p.Type.WordSize())
	}

	g.resultSize = fn.ResultType.WordSize()
	g.paramSize = fn.ParamWordSize()
	savedEndJumps := g.endJumps
	g.endJumps = nil

	if err := g.compileBlock(fn.Body); err != nil {
		return err
	}

	endAddr := int32(g.a.Image().InstructionCount())
	for _, site := range g.endJumps {
		if err := g.a.BackPatchJump(site, endAddr); err != nil {
			return err
		}
	}
	g.endJumps = savedEndJumps

	g.popScope()
	g.a.Emit(tam.RETURN, 0, int32(g.resultSize), int32(g.paramSize))
	return nil
}

// emitJumpToEnd emits a JUMP placeholder recorded for back-patching to the
// function's single end-of-body RETURN once compileFunction finishes
// emitting every statement.
func (g *Generator) emitJumpToEnd() {
	addr := g.a.Emit(tam.JUMP, tam.CB, 0, -1)
	g.endJumps = append(g.endJumps, addr)
}
