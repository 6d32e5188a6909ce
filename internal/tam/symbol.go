package tam

import (
	"fmt"

	"github.com/lookbusy1344/tamvm/internal/value"
)

// SymbolKind identifies which variant of DebugSymbol is in play.
type SymbolKind int

const (
	SymComment SymbolKind = iota
	SymLocation
	SymType
	SymName
	SymLabel
	SymBreakPoint
)

func (k SymbolKind) String() string {
	switch k {
	case SymComment:
		return "Comment"
	case SymLocation:
		return "Location"
	case SymType:
		return "Type"
	case SymName:
		return "Name"
	case SymLabel:
		return "Label"
	case SymBreakPoint:
		return "BreakPoint"
	default:
		return "Unknown"
	}
}

// DebugSymbol is a tagged variant attached to an instruction. Only the
// fields relevant to Kind are meaningful; this mirrors the Instruction
// field-by-opcode convention rather than introducing a visitor hierarchy.
type DebugSymbol struct {
	Kind SymbolKind

	// Comment
	Text         string
	ShowInDisasm bool

	// Location
	Line int
	Col  int

	// Type
	ValueType value.Tag

	// Name / Label reuse Text above.
}

// Comment builds a Comment debug symbol.
func Comment(text string, showInDisasm bool) DebugSymbol {
	return DebugSymbol{Kind: SymComment, Text: text, ShowInDisasm: showInDisasm}
}

// Location builds a Location debug symbol.
func Location(line, col int) DebugSymbol {
	return DebugSymbol{Kind: SymLocation, Line: line, Col: col}
}

// TypeSymbol builds a Type debug symbol.
func TypeSymbol(t value.Tag) DebugSymbol {
	return DebugSymbol{Kind: SymType, ValueType: t}
}

// Name builds a Name debug symbol.
func Name(text string) DebugSymbol {
	return DebugSymbol{Kind: SymName, Text: text}
}

// Label builds a Label debug symbol.
func Label(text string) DebugSymbol {
	return DebugSymbol{Kind: SymLabel, Text: text}
}

// BreakPoint builds a BreakPoint debug symbol. BreakPoint symbols are
// never persisted.
func BreakPoint() DebugSymbol {
	return DebugSymbol{Kind: SymBreakPoint}
}

// String renders a symbol for disassembly/CLI dumps.
func (s DebugSymbol) String() string {
	switch s.Kind {
	case SymComment:
		return fmt.Sprintf("Comment(%q)", s.Text)
	case SymLocation:
		return fmt.Sprintf("Location(%d,%d)", s.Line, s.Col)
	case SymType:
		return fmt.Sprintf("Type(%s)", s.ValueType)
	case SymName:
		return fmt.Sprintf("Name(%q)", s.Text)
	case SymLabel:
		return fmt.Sprintf("Label(%q)", s.Text)
	case SymBreakPoint:
		return "BreakPoint"
	default:
		return s.Kind.String()
	}
}
