package tam

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Binary format, big-endian 32-bit integers unless noted:
//
//  1. instruction count N
//  2. N records of four 32-bit ints: opcode-id, register-id, n, d
//  3. string pool count M
//  4. M strings, each prefixed by a 16-bit big-endian byte length,
//     UTF-8 encoded.
//
// Debug symbols live in a separate sidecar file (see symbols_binary.go).

// Save writes the instruction array and string pool to w in the format
// above.
func (img *Image) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := writeUint32(bw, uint32(len(img.Instructions))); err != nil {
		return err
	}
	for _, inst := range img.Instructions {
		if err := writeUint32(bw, uint32(inst.Opcode)); err != nil {
			return err
		}
		if err := writeUint32(bw, uint32(inst.Register)); err != nil {
			return err
		}
		if err := writeUint32(bw, uint32(inst.N)); err != nil {
			return err
		}
		if err := writeUint32(bw, uint32(inst.D)); err != nil {
			return err
		}
	}

	if err := writeUint32(bw, uint32(len(img.Strings))); err != nil {
		return err
	}
	for _, s := range img.Strings {
		if err := writeString(bw, s); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// SaveFile saves the image's instructions and string pool to path.
func (img *Image) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	return img.Save(f)
}

// Load reads an instruction array and string pool from r, in the format
// written by Save. It returns a fresh Image with no debug symbols attached
// (load symbols separately via LoadSymbols).
func Load(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	n, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("read instruction count: %w", err)
	}

	img := NewImage()
	img.Instructions = make([]Instruction, n)
	for i := range img.Instructions {
		opcode, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read instruction %d opcode: %w", i, err)
		}
		reg, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read instruction %d register: %w", i, err)
		}
		nVal, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read instruction %d n: %w", i, err)
		}
		dVal, err := readUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read instruction %d d: %w", i, err)
		}
		img.Instructions[i] = Instruction{
			Opcode:   Opcode(opcode),
			Register: Register(reg),
			N:        int32(nVal),
			D:        int32(dVal),
		}
	}

	m, err := readUint32(br)
	if err != nil {
		return nil, fmt.Errorf("read string pool count: %w", err)
	}
	img.Strings = make([]string, m)
	img.stringIndex = make(map[string]int, m)
	for i := range img.Strings {
		s, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("read string %d: %w", i, err)
		}
		img.Strings[i] = s
		img.stringIndex[s] = i
	}

	return img, nil
}

// LoadFile loads an Image's instructions and string pool from path.
func LoadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string of length %d exceeds the 16-bit length prefix", len(s))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
