package codegen

import (
	"github.com/lookbusy1344/tamvm/internal/ast"
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// compileBlock compiles a sequence of statements inside a fresh scope,
// restoring the local offset on exit.
func (g *Generator) compileBlock(stmts []ast.Stmt) error {
	g.pushScope()
	for _, s := range stmts {
		if err := g.compileStmt(s); err != nil {
			return err
		}
	}
	g.popScope()
	return nil
}

func (g *Generator) compileStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ValueDecl:
		return g.compileValueDecl(n)
	case *ast.VarDecl:
		return g.compileVarDecl(n)
	case *ast.Assign:
		return g.compileAssign(n)
	case *ast.If:
		return g.compileIf(n)
	case *ast.For:
		return g.compileFor(n)
	case *ast.ForEach:
		return g.compileForEach(n)
	case *ast.Switch:
		return g.compileSwitch(n)
	case *ast.Return:
		return g.compileReturn(n)
	case *ast.CallExpr:
		if err := g.compileCall(n); err != nil {
			return err
		}
		if size := n.Type().WordSize(); size > 0 {
			g.a.Emit(tam.POP, 0, 0, int32(size))
		}
		return nil
	default:
		return errf("unhandled statement type %T", s)
	}
}

// compileValueDecl evaluates Init and leaves its words in place as the
// binding's storage: no separate PUSH is needed since the
// pushed result words already occupy the declaration's frame slot.
func (g *Generator) compileValueDecl(n *ast.ValueDecl) error {
	off := g.a.SnapshotOffset()
	if err := g.compileExpr(n.Init); err != nil {
		return err
	}
	g.defineAt(n.Name, n.DeclType, off)
	return nil
}

// compileVarDecl reserves the declaration's words via PUSH, zero-
// initialized under the declared type's tag, with no initializer.
func (g *Generator) compileVarDecl(n *ast.VarDecl) error {
	size := int32(n.DeclType.WordSize())
	g.define(n.Name, n.DeclType)
	g.a.EmitTyped(tam.PUSH, 0, 0, size, scalarTagOf(n.DeclType))
	return nil
}

// scalarTagOf returns the Value tag a PUSH/LOADL for t's zero value or
// literal should carry. Aggregates reserve their words untyped (Unknown),
// since each element is written with its own tag later.
func scalarTagOf(t ast.Type) value.Tag {
	switch t.Kind {
	case ast.KInt:
		return value.Int
	case ast.KFloat:
		return value.Float
	case ast.KBool:
		return value.Bool
	case ast.KString:
		return value.StringID
	default:
		return value.Unknown
	}
}

// defineAt records a binding whose words were already placed at off by
// the caller, without bumping the offset again (compileValueDecl already
// grew it via the expression's pushes).
func (g *Generator) defineAt(name string, typ ast.Type, off int32) {
	g.scopes[len(g.scopes)-1].names[name] = local{offset: off, typ: typ}
	g.a.Declare(int32(typ.WordSize()))
}

// compileAssign writes Value into Target's storage: a direct STORE for a
// simple identifier, or compute-address-then-STOREI otherwise. The value is
// computed before the address: STOREI expects the address on top of the
// value words.
func (g *Generator) compileAssign(n *ast.Assign) error {
	if id, ok := n.Target.(*ast.Ident); ok {
		l, err := g.lookup(id.Name)
		if err != nil {
			return err
		}
		if err := g.compileExpr(n.Value); err != nil {
			return err
		}
		g.a.Emit(tam.STORE, tam.LB, int32(l.typ.WordSize()), l.offset)
		return nil
	}

	if err := g.compileExpr(n.Value); err != nil {
		return err
	}
	if err := g.compileAddr(n.Target); err != nil {
		return err
	}
	g.a.Emit(tam.STOREI, 0, int32(n.Target.Type().WordSize()), 0)
	return nil
}

// compileIf emits a conditional branch around the Then/Else blocks.
func (g *Generator) compileIf(n *ast.If) error {
	if err := g.compileExpr(n.Cond); err != nil {
		return err
	}
	elseJump := g.a.Emit(tam.JUMPIF, tam.CB, 0, -1)

	if err := g.compileBlock(n.Then); err != nil {
		return err
	}

	if len(n.Else) == 0 {
		elseAddr := int32(g.a.Image().InstructionCount())
		return g.a.BackPatchJump(elseJump, elseAddr)
	}

	endJump := g.a.Emit(tam.JUMP, tam.CB, 0, -1)
	elseAddr := int32(g.a.Image().InstructionCount())
	if err := g.a.BackPatchJump(elseJump, elseAddr); err != nil {
		return err
	}
	if err := g.compileBlock(n.Else); err != nil {
		return err
	}
	endAddr := int32(g.a.Image().InstructionCount())
	return g.a.BackPatchJump(endJump, endAddr)
}

// compileFor emits a counted loop: Init once, then test-body-increment
// repeated until Cond is false.
func (g *Generator) compileFor(n *ast.For) error {
	g.pushScope()
	if n.Init != nil {
		if err := g.compileAssign(n.Init); err != nil {
			return err
		}
	}

	condAddr := int32(g.a.Image().InstructionCount())
	if err := g.compileExpr(n.Cond); err != nil {
		return err
	}
	exitJump := g.a.Emit(tam.JUMPIF, tam.CB, 0, -1)

	if err := g.compileBlock(n.Body); err != nil {
		return err
	}
	if n.Inc != nil {
		if err := g.compileAssign(n.Inc); err != nil {
			return err
		}
	}
	g.a.Emit(tam.JUMP, tam.CB, 0, condAddr)

	exitAddr := int32(g.a.Image().InstructionCount())
	if err := g.a.BackPatchJump(exitJump, exitAddr); err != nil {
		return err
	}
	g.popScope()
	return nil
}

// compileForEach iterates every word-sized element of Source, binding it
// to IterName. Source is always materialized into a temp local first, so
// a non-addressable source (e.g. a call result) can still be iterated; a
// writable iterator (`var`) copies its element back after each iteration,
// which only reaches the original storage when Source is itself
// addressable.
func (g *Generator) compileForEach(n *ast.ForEach) error {
	st := n.Source.Type()
	count := st.WordSize()

	g.pushScope()
	srcOff := g.a.SnapshotOffset()
	if err := g.compileExpr(n.Source); err != nil {
		return err
	}
	g.a.Declare(int32(count))

	iterOff := g.a.SnapshotOffset()
	g.a.EmitTyped(tam.PUSH, 0, 0, 1, scalarTagOf(n.IterType))
	g.a.Declare(1)
	g.scopes[len(g.scopes)-1].names[n.IterName] = local{offset: iterOff, typ: n.IterType}

	writeBack := n.IterWritable && isAddressable(n.Source)

	for i := 0; i < count; i++ {
		g.a.Emit(tam.LOAD, tam.LB, 1, srcOff+int32(i))
		g.a.Emit(tam.STORE, tam.LB, 1, iterOff)

		if err := g.compileBlock(n.Body); err != nil {
			return err
		}

		g.a.Emit(tam.LOAD, tam.LB, 1, iterOff)
		g.a.Emit(tam.STORE, tam.LB, 1, srcOff+int32(i))

		if writeBack {
			g.a.Emit(tam.LOAD, tam.LB, 1, srcOff+int32(i))
			if err := g.compileAddr(n.Source); err != nil {
				return err
			}
			if err := g.addConstOffset(int32(i)); err != nil {
				return err
			}
			g.a.Emit(tam.STOREI, 0, 1, 0)
		}
	}

	g.popScope()
	return nil
}

// isAddressable reports whether e's words can be re-addressed per element
// as base+i. A SubMatrix is deliberately excluded: its address is well
// defined but its words are strided in the source, so per-element callers
// (broadcast, foreach) must evaluate it onto the stack instead.
func isAddressable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Ident, *ast.Index, *ast.MatrixIndex, *ast.FieldAccess, *ast.SubVector:
		return true
	default:
		return false
	}
}

// compileSwitch evaluates Discriminant once, compares it against each
// case in order, and falls back to Default if present.
func (g *Generator) compileSwitch(n *ast.Switch) error {
	g.pushScope()
	off := g.a.SnapshotOffset()
	dt := n.Discriminant.Type()
	if err := g.compileExpr(n.Discriminant); err != nil {
		return err
	}
	g.defineAt("$switch", dt, off)

	eqName, err := primNameFor(ast.OpEq, operandKind(dt))
	if err != nil {
		return err
	}

	var endJumps []int
	for _, c := range n.Cases {
		g.a.Emit(tam.LOAD, tam.LB, 1, off)
		if err := g.compileExpr(c.Value); err != nil {
			return err
		}
		if _, err := g.a.CallPrimitive(eqName); err != nil {
			return err
		}
		nextJump := g.a.Emit(tam.JUMPIF, tam.CB, 0, -1)

		if err := g.compileBlock(c.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, g.a.Emit(tam.JUMP, tam.CB, 0, -1))

		nextAddr := int32(g.a.Image().InstructionCount())
		if err := g.a.BackPatchJump(nextJump, nextAddr); err != nil {
			return err
		}
	}

	if n.Default != nil {
		if err := g.compileBlock(n.Default); err != nil {
			return err
		}
	}

	endAddr := int32(g.a.Image().InstructionCount())
	for _, j := range endJumps {
		if err := g.a.BackPatchJump(j, endAddr); err != nil {
			return err
		}
	}
	g.popScope()
	return nil
}

// compileReturn evaluates Value (if any) into the result slot's position
// and jumps to the function's single RETURN. The result
// words are left sitting above the current frame; RETURN's own n/d
// collapse the frame beneath them regardless of how many locals
// accumulated in between.
func (g *Generator) compileReturn(n *ast.Return) error {
	if n.Value != nil {
		if err := g.compileExpr(n.Value); err != nil {
			return err
		}
	}
	g.emitJumpToEnd()
	return nil
}
