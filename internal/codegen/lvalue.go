package codegen

import (
	"github.com/lookbusy1344/tamvm/internal/ast"
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// compileAddr pushes the stack address of an addressable expression:
// Ident, Index, MatrixIndex, FieldAccess, SubVector or SubMatrix.
// Anything else is not addressable and is a codegen-stage bug, since the
// external analysis stage is assumed to reject non-addressable assignment
// targets and index bases before this package ever sees them.
func (g *Generator) compileAddr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Ident:
		l, err := g.lookup(n.Name)
		if err != nil {
			return err
		}
		g.a.Emit(tam.LOADA, tam.LB, 1, l.offset)
		return nil

	case *ast.Index:
		return g.compileIndexAddr(n)

	case *ast.MatrixIndex:
		return g.compileMatrixIndexAddr(n)

	case *ast.FieldAccess:
		return g.compileFieldAddr(n)

	case *ast.SubVector:
		if err := g.compileAddr(n.Vector); err != nil {
			return err
		}
		elemSize := n.Vector.Type().Elem.WordSize()
		return g.addConstOffset(int32(n.Start * elemSize))

	case *ast.SubMatrix:
		if err := g.compileAddr(n.Matrix); err != nil {
			return err
		}
		mt := n.Matrix.Type()
		off := (n.StartRow*mt.Cols + n.StartCol) * mt.Elem.WordSize()
		return g.addConstOffset(int32(off))

	default:
		return errf("expression of type %T is not addressable", e)
	}
}

// addConstOffset adds a compile-time-known constant to the address
// already on top of the stack, skipping the LOADL/addI pair entirely when
// the offset is zero.
func (g *Generator) addConstOffset(off int32) error {
	if off == 0 {
		return nil
	}
	g.a.EmitTyped(tam.LOADL, 0, 0, off, value.Int)
	_, err := g.a.CallPrimitive("addI")
	return err
}

// compileIndexAddr computes addr(v) + i for v[i], bounds-checking i
// against [0, len) first.
func (g *Generator) compileIndexAddr(n *ast.Index) error {
	if err := g.compileAddr(n.Vector); err != nil {
		return err
	}
	if err := g.compileExpr(n.Idx); err != nil {
		return err
	}
	vt := n.Vector.Type()
	if err := g.a.EmitBoundsCheck(0, int32(vt.Len)); err != nil {
		return err
	}
	if elemSize := vt.Elem.WordSize(); elemSize > 1 {
		g.a.EmitTyped(tam.LOADL, 0, 0, int32(elemSize), value.Int)
		if _, err := g.a.CallPrimitive("mulI"); err != nil {
			return err
		}
	}
	_, err := g.a.CallPrimitive("addI")
	return err
}

// compileMatrixIndexAddr computes addr(m) + (row*cols + col) for m[r][c],
// bounds-checking row against [0, rows) and col against [0, cols)
// separately.
func (g *Generator) compileMatrixIndexAddr(n *ast.MatrixIndex) error {
	if err := g.compileAddr(n.Matrix); err != nil {
		return err
	}
	mt := n.Matrix.Type()

	if err := g.compileExpr(n.Row); err != nil {
		return err
	}
	if err := g.a.EmitBoundsCheck(0, int32(mt.Rows)); err != nil {
		return err
	}
	g.a.EmitTyped(tam.LOADL, 0, 0, int32(mt.Cols), value.Int)
	if _, err := g.a.CallPrimitive("mulI"); err != nil {
		return err
	}
	if _, err := g.a.CallPrimitive("addI"); err != nil {
		return err
	}

	if err := g.compileExpr(n.Col); err != nil {
		return err
	}
	if err := g.a.EmitBoundsCheck(0, int32(mt.Cols)); err != nil {
		return err
	}
	_, err := g.a.CallPrimitive("addI")
	return err
}

// compileFieldAddr computes addr(r) + fieldOffset(field) for r.field.
// Record field offsets are fixed by declaration order, so no bounds check
// is needed.
func (g *Generator) compileFieldAddr(n *ast.FieldAccess) error {
	if err := g.compileAddr(n.Record); err != nil {
		return err
	}
	off, ok := n.Record.Type().FieldOffset(n.Field)
	if !ok {
		return errf("record has no field %q", n.Field)
	}
	return g.addConstOffset(int32(off))
}
