package codegen

import (
	"math"

	"github.com/lookbusy1344/tamvm/internal/ast"
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// compileExpr pushes e's value: WordSize(e.Type()) words, in the same
// order memory reads and writes use throughout this package (element 0
// first, element n-1 last).
func (g *Generator) compileExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Literal:
		return g.compileLiteral(n)
	case *ast.Ident:
		l, err := g.lookup(n.Name)
		if err != nil {
			return err
		}
		g.a.Emit(tam.LOAD, tam.LB, int32(l.typ.WordSize()), l.offset)
		return nil
	case *ast.Index, *ast.MatrixIndex, *ast.FieldAccess, *ast.SubVector:
		if err := g.compileAddr(n); err != nil {
			return err
		}
		g.a.Emit(tam.LOADI, 0, int32(n.Type().WordSize()), 0)
		return nil
	case *ast.SubMatrix:
		return g.compileSubMatrix(n)
	case *ast.BinaryArith:
		return g.compileBinaryArith(n)
	case *ast.MatMul:
		return g.compileMatMul(n)
	case *ast.DotProduct:
		return g.compileDotProduct(n)
	case *ast.CallExpr:
		return g.compileCall(n)
	case *ast.Select:
		return g.compileSelect(n)
	default:
		return errf("unhandled expression type %T", e)
	}
}

func (g *Generator) compileLiteral(n *ast.Literal) error {
	switch n.Type().Kind {
	case ast.KInt:
		g.a.EmitTyped(tam.LOADL, 0, 0, n.IntVal, value.Int)
	case ast.KFloat:
		g.a.EmitTyped(tam.LOADL, 0, 0, int32(math.Float32bits(n.FloatVal)), value.Float)
	case ast.KBool:
		d := int32(0)
		if n.BoolVal {
			d = 1
		}
		g.a.EmitTyped(tam.LOADL, 0, 0, d, value.Bool)
	case ast.KString:
		id := g.a.InternString(n.StringVal)
		g.a.EmitTyped(tam.LOADL, 0, 0, int32(id), value.StringID)
	default:
		return errf("literal has non-scalar type %s", n.Type())
	}
	return nil
}

// primNameFor maps an operator and the scalar kind it's being applied to
// onto the matching internal/primitive name. Comparisons between bools
// go through the int-tagged compare primitives, since a Bool payload is
// read back by AsInt as 0/1.
func primNameFor(op ast.BinaryArithOp, kind ast.Kind) (string, error) {
	isFloat := kind == ast.KFloat
	switch op {
	case ast.OpAdd:
		if isFloat {
			return "addF", nil
		}
		return "addI", nil
	case ast.OpSub:
		if isFloat {
			return "subF", nil
		}
		return "subI", nil
	case ast.OpMul:
		if isFloat {
			return "mulF", nil
		}
		return "mulI", nil
	case ast.OpDiv:
		if isFloat {
			return "divF", nil
		}
		return "divI", nil
	case ast.OpMod:
		if isFloat {
			return "modF", nil
		}
		return "modI", nil
	case ast.OpEq:
		if isFloat {
			return "eqF", nil
		}
		return "eqI", nil
	case ast.OpNe:
		if isFloat {
			return "neF", nil
		}
		return "neI", nil
	case ast.OpLt:
		if isFloat {
			return "ltF", nil
		}
		return "ltI", nil
	case ast.OpLe:
		if isFloat {
			return "leF", nil
		}
		return "leI", nil
	case ast.OpGt:
		if isFloat {
			return "gtF", nil
		}
		return "gtI", nil
	case ast.OpGe:
		if isFloat {
			return "geF", nil
		}
		return "geI", nil
	case ast.OpAnd:
		return "and", nil
	case ast.OpOr:
		return "or", nil
	default:
		return "", errf("unknown binary operator %d", int(op))
	}
}

// operandKind returns the scalar element kind an operand contributes to a
// BinaryArith: its own Kind if scalar, else its vector/matrix element's
// Kind.
func operandKind(t ast.Type) ast.Kind {
	switch t.Kind {
	case ast.KVector, ast.KMatrix:
		return t.Elem.Kind
	default:
		return t.Kind
	}
}

// compileBinaryArith handles both the scalar case and the three broadcast
// shapes (vector-op-vector, vector-op-scalar, scalar-op-vector), chosen by
// inspecting the operand types. Matrices broadcast the same way, treated
// as a flat word sequence.
func (g *Generator) compileBinaryArith(n *ast.BinaryArith) error {
	lt, rt := n.Left.Type(), n.Right.Type()
	lIsAgg := lt.Kind == ast.KVector || lt.Kind == ast.KMatrix
	rIsAgg := rt.Kind == ast.KVector || rt.Kind == ast.KMatrix

	if !lIsAgg && !rIsAgg {
		if err := g.compileExpr(n.Left); err != nil {
			return err
		}
		if err := g.compileExpr(n.Right); err != nil {
			return err
		}
		name, err := primNameFor(n.Op, operandKind(lt))
		if err != nil {
			return err
		}
		_, err = g.a.CallPrimitive(name)
		return err
	}

	count := lt.WordSize()
	if rIsAgg {
		count = rt.WordSize()
	}
	name, err := primNameFor(n.Op, operandKind(lt))
	if err != nil {
		return err
	}

	// Operands that cannot be re-addressed per element — scalars, whose
	// side effects must run once, and non-addressable aggregates like a
	// call result — are evaluated once into a prelude block that the
	// result words accumulate on top of. Prelude words are reread with
	// ST-relative LOADs, so this works at any stack depth, and the
	// prelude is popped out from underneath the result at the end.
	type operandSrc struct {
		addressable bool
		start, size int
	}
	prelude := 0
	plan := func(operand ast.Expr, isAgg bool) (operandSrc, error) {
		if isAgg && isAddressable(operand) {
			return operandSrc{addressable: true}, nil
		}
		size := 1
		if isAgg {
			size = operand.Type().WordSize()
		}
		if err := g.compileExpr(operand); err != nil {
			return operandSrc{}, err
		}
		s := operandSrc{start: prelude, size: size}
		prelude += size
		return s, nil
	}
	left, err := plan(n.Left, lIsAgg)
	if err != nil {
		return err
	}
	right, err := plan(n.Right, rIsAgg)
	if err != nil {
		return err
	}

	pushed := 0
	emitOperand := func(s operandSrc, operand ast.Expr, i int) error {
		if s.addressable {
			if err := g.compileAddr(operand); err != nil {
				return err
			}
			if err := g.addConstOffset(int32(i)); err != nil {
				return err
			}
			g.a.Emit(tam.LOADI, 0, 1, 0)
			return nil
		}
		idx := 0
		if s.size > 1 {
			idx = i
		}
		g.a.Emit(tam.LOAD, tam.ST, 1, int32(s.start+idx-prelude-pushed))
		return nil
	}

	for i := 0; i < count; i++ {
		if err := emitOperand(left, n.Left, i); err != nil {
			return err
		}
		pushed++
		if err := emitOperand(right, n.Right, i); err != nil {
			return err
		}
		pushed++
		if _, err := g.a.CallPrimitive(name); err != nil {
			return err
		}
		pushed--
	}
	if prelude > 0 {
		g.a.Emit(tam.POP, 0, int32(count), int32(prelude))
	}
	return nil
}

// compileSubMatrix pushes a submatrix row by row. A submatrix is not
// contiguous in its source: each of its rows is a contiguous run, but
// consecutive rows are strided by the source's column count, so a single
// LOADI of the whole extent would grab the wrong words for any slice
// narrower than the source.
func (g *Generator) compileSubMatrix(n *ast.SubMatrix) error {
	mt := n.Matrix.Type()
	elemSize := mt.Elem.WordSize()
	for r := 0; r < n.Rows; r++ {
		if err := g.compileAddr(n.Matrix); err != nil {
			return err
		}
		off := ((n.StartRow+r)*mt.Cols + n.StartCol) * elemSize
		if err := g.addConstOffset(int32(off)); err != nil {
			return err
		}
		g.a.Emit(tam.LOADI, 0, int32(n.Cols*elemSize), 0)
	}
	return nil
}

// pushIntLiteral pushes a compile-time-known int constant, used for the
// lrows/dim/rcols arguments matMulI/matMulF expect on the stack alongside
// the two operand matrices.
func (g *Generator) pushIntLiteral(n int32) {
	g.a.EmitTyped(tam.LOADL, 0, 0, n, value.Int)
}

// compileMatMul pushes both operand matrices in full, then lrows, dim,
// rcols, and calls matMulI/matMulF.
func (g *Generator) compileMatMul(n *ast.MatMul) error {
	lt, rt := n.Left.Type(), n.Right.Type()
	rows, inner, cols := lt.Rows, lt.Cols, rt.Cols
	isFloat := lt.Elem.Kind == ast.KFloat

	if err := g.compileExpr(n.Left); err != nil {
		return err
	}
	if err := g.compileExpr(n.Right); err != nil {
		return err
	}
	g.pushIntLiteral(int32(rows))
	g.pushIntLiteral(int32(inner))
	g.pushIntLiteral(int32(cols))

	mulName := "matMulI"
	if isFloat {
		mulName = "matMulF"
	}
	_, err := g.a.CallPrimitive(mulName)
	return err
}

// compileDotProduct compiles a·b as a 1×dim by dim×1 matMul call whose
// 1×1 result is the dot product itself.
func (g *Generator) compileDotProduct(n *ast.DotProduct) error {
	lt := n.Left.Type()
	dim := lt.Len
	isFloat := lt.Elem.Kind == ast.KFloat

	if err := g.compileExpr(n.Left); err != nil {
		return err
	}
	if err := g.compileExpr(n.Right); err != nil {
		return err
	}
	g.pushIntLiteral(1)
	g.pushIntLiteral(int32(dim))
	g.pushIntLiteral(1)

	mulName := "matMulI"
	if isFloat {
		mulName = "matMulF"
	}
	_, err := g.a.CallPrimitive(mulName)
	return err
}

// compileCall pushes each argument left to right, then CALLs the callee
// by name; forward references are resolved later by the Assembler, so
// compilation order across functions does not matter.
func (g *Generator) compileCall(n *ast.CallExpr) error {
	for _, arg := range n.Args {
		if err := g.compileExpr(arg); err != nil {
			return err
		}
	}
	g.a.CallFunction(n.Callee)
	return nil
}

// compileSelect compiles `cond ? t : f` as a conditional branch around two
// mutually exclusive code paths, rather than evaluating
// both sides unconditionally: MAVL expressions may call functions, and
// only one side's side effects should run.
func (g *Generator) compileSelect(n *ast.Select) error {
	if err := g.compileExpr(n.Cond); err != nil {
		return err
	}
	falseJump := g.a.Emit(tam.JUMPIF, tam.CB, 0, -1)

	if err := g.compileExpr(n.TrueExpr); err != nil {
		return err
	}
	endJump := g.a.Emit(tam.JUMP, tam.CB, 0, -1)

	falseAddr := int32(g.a.Image().InstructionCount())
	if err := g.a.BackPatchJump(falseJump, falseAddr); err != nil {
		return err
	}
	if err := g.compileExpr(n.FalseExpr); err != nil {
		return err
	}

	endAddr := int32(g.a.Image().InstructionCount())
	return g.a.BackPatchJump(endJump, endAddr)
}
