package tam

import "fmt"

// DisasmLineKind identifies which kind of disassembly line a DisasmLine
// represents.
type DisasmLineKind int

const (
	LineComment DisasmLineKind = iota
	LineLabel
	LineInstruction
)

// DisasmLine is one line of a derived, read-only disassembly view.
// Labels attached to an instruction precede it, preceded
// in turn by a blank-line marker (BlankBefore).
type DisasmLine struct {
	Kind        DisasmLineKind
	Address     int // valid for LineInstruction
	Text        string
	BlankBefore bool
}

// Disassemble builds the derived disassembly view for img: one line per
// attached Label (with a preceding blank line), one line per
// show-in-disassembly Comment, and one line per instruction.
func Disassemble(img *Image) []DisasmLine {
	var lines []DisasmLine
	for addr := range img.Instructions {
		inst := &img.Instructions[addr]
		for _, sym := range inst.Symbols {
			switch sym.Kind {
			case SymLabel:
				lines = append(lines, DisasmLine{
					Kind:        LineLabel,
					Text:        sym.Text + ":",
					BlankBefore: true,
				})
			case SymComment:
				if sym.ShowInDisasm {
					lines = append(lines, DisasmLine{
						Kind: LineComment,
						Text: "; " + sym.Text,
					})
				}
			}
		}
		lines = append(lines, DisasmLine{
			Kind:    LineInstruction,
			Address: addr,
			Text:    formatInstruction(inst),
		})
	}
	return lines
}

func formatInstruction(inst *Instruction) string {
	switch inst.Opcode {
	case LOAD, STORE:
		return fmt.Sprintf("%-7s %s, %d, %d", inst.Opcode, inst.Register, inst.N, inst.D)
	case LOADA, JUMP:
		return fmt.Sprintf("%-7s %s, %d", inst.Opcode, inst.Register, inst.D)
	case LOADI, STOREI:
		return fmt.Sprintf("%-7s %d", inst.Opcode, inst.N)
	case LOADL:
		return fmt.Sprintf("%-7s %d", inst.Opcode, inst.D)
	case CALL:
		return fmt.Sprintf("%-7s %s, %d", inst.Opcode, inst.Register, inst.D)
	case CALLI:
		return fmt.Sprintf("%-7s", inst.Opcode)
	case RETURN, POP:
		return fmt.Sprintf("%-7s %d, %d", inst.Opcode, inst.N, inst.D)
	case PUSH:
		return fmt.Sprintf("%-7s %d", inst.Opcode, inst.D)
	case JUMPI, HALT:
		return fmt.Sprintf("%-7s", inst.Opcode)
	case JUMPIF:
		return fmt.Sprintf("%-7s %s, %d, %d", inst.Opcode, inst.Register, inst.N, inst.D)
	default:
		return fmt.Sprintf("%-7s r=%s n=%d d=%d", inst.Opcode, inst.Register, inst.N, inst.D)
	}
}
