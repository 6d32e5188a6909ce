package tam

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lookbusy1344/tamvm/internal/value"
)

// Debug symbol sidecar format:
//
//  1. count K of instructions that carry symbols
//  2. K groups of {instruction-index, symbol-count, symbols...}
//
// Each symbol is {kind-id, payload}; payload layout is fixed per kind:
// string for Name/Label, string+bool for Comment, two ints for Location,
// one int for Type. BreakPoint symbols are never persisted.

// SaveSymbols writes every non-BreakPoint debug symbol to w.
func (img *Image) SaveSymbols(w io.Writer) error {
	bw := bufio.NewWriter(w)

	type group struct {
		index   int
		symbols []DebugSymbol
	}
	var groups []group
	for i := range img.Instructions {
		persisted := persistableSymbols(img.Instructions[i].Symbols)
		if len(persisted) > 0 {
			groups = append(groups, group{index: i, symbols: persisted})
		}
	}

	if err := writeUint32(bw, uint32(len(groups))); err != nil {
		return err
	}
	for _, g := range groups {
		if err := writeUint32(bw, uint32(g.index)); err != nil {
			return err
		}
		if err := writeUint32(bw, uint32(len(g.symbols))); err != nil {
			return err
		}
		for _, sym := range g.symbols {
			if err := writeSymbol(bw, sym); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// SaveSymbolsFile saves the image's debug symbols to path.
func (img *Image) SaveSymbolsFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create symbols file: %w", err)
	}
	defer f.Close()
	return img.SaveSymbols(f)
}

// LoadSymbols reads debug symbols from r and attaches them to img's
// instructions, in addition to whatever symbols are already attached.
func (img *Image) LoadSymbols(r io.Reader) error {
	br := bufio.NewReader(r)

	k, err := readUint32(br)
	if err != nil {
		return fmt.Errorf("read symbol group count: %w", err)
	}
	for g := uint32(0); g < k; g++ {
		index, err := readUint32(br)
		if err != nil {
			return fmt.Errorf("read group %d instruction index: %w", g, err)
		}
		count, err := readUint32(br)
		if err != nil {
			return fmt.Errorf("read group %d symbol count: %w", g, err)
		}
		if int(index) >= len(img.Instructions) {
			return fmt.Errorf("symbol group %d references instruction %d outside the loaded image (%d instructions)", g, index, len(img.Instructions))
		}
		for s := uint32(0); s < count; s++ {
			sym, err := readSymbol(br)
			if err != nil {
				return fmt.Errorf("read group %d symbol %d: %w", g, s, err)
			}
			img.Instructions[index].AddSymbol(sym)
		}
	}
	return nil
}

// LoadSymbolsFile loads debug symbols from path and attaches them to img.
func (img *Image) LoadSymbolsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open symbols file: %w", err)
	}
	defer f.Close()
	return img.LoadSymbols(f)
}

func persistableSymbols(symbols []DebugSymbol) []DebugSymbol {
	var out []DebugSymbol
	for _, s := range symbols {
		if s.Kind != SymBreakPoint {
			out = append(out, s)
		}
	}
	return out
}

func writeSymbol(w io.Writer, s DebugSymbol) error {
	if err := writeUint32(w, uint32(s.Kind)); err != nil {
		return err
	}
	switch s.Kind {
	case SymComment:
		if err := writeString(w, s.Text); err != nil {
			return err
		}
		var flag uint32
		if s.ShowInDisasm {
			flag = 1
		}
		return writeUint32(w, flag)
	case SymLocation:
		if err := writeUint32(w, uint32(s.Line)); err != nil {
			return err
		}
		return writeUint32(w, uint32(s.Col))
	case SymType:
		return writeUint32(w, uint32(s.ValueType))
	case SymName, SymLabel:
		return writeString(w, s.Text)
	default:
		return fmt.Errorf("debug symbol kind %s cannot be persisted", s.Kind)
	}
}

func readSymbol(r io.Reader) (DebugSymbol, error) {
	kindVal, err := readUint32(r)
	if err != nil {
		return DebugSymbol{}, err
	}
	kind := SymbolKind(kindVal)
	switch kind {
	case SymComment:
		text, err := readString(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		flag, err := readUint32(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		return Comment(text, flag != 0), nil
	case SymLocation:
		line, err := readUint32(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		col, err := readUint32(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		return Location(int(line), int(col)), nil
	case SymType:
		t, err := readUint32(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		return TypeSymbol(value.Tag(t)), nil
	case SymName:
		text, err := readString(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		return Name(text), nil
	case SymLabel:
		text, err := readString(r)
		if err != nil {
			return DebugSymbol{}, err
		}
		return Label(text), nil
	default:
		return DebugSymbol{}, fmt.Errorf("unknown debug symbol kind id %d", kindVal)
	}
}
