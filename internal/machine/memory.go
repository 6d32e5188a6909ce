package machine

import "github.com/lookbusy1344/tamvm/internal/value"

// Memory is the VM's single word-addressed linear array.
// Only addresses in [SB, ST) are considered defined stack by convention;
// the array itself accepts any in-range address, bounds-checked here.
type Memory struct {
	words    []value.Value
	profiler *Profiler
}

// NewMemory allocates a Memory of the given size (conventionally a power
// of two, e.g. 2^20 words).
func NewMemory(size int, profiler *Profiler) *Memory {
	return &Memory{
		words:    make([]value.Value, size),
		profiler: profiler,
	}
}

// Size returns the number of addressable words.
func (m *Memory) Size() int {
	return len(m.words)
}

func (m *Memory) inRange(addr int) bool {
	return addr >= 0 && addr < len(m.words)
}

// GetMem reads the word at addr, bounds-checked against the memory size.
func (m *Memory) GetMem(addr int) (value.Value, error) {
	if !m.inRange(addr) {
		return value.Value{}, NewMachineError(InvalidAddress, "read at address %d outside [0,%d)", addr, len(m.words))
	}
	m.profiler.countMemoryRead()
	return m.words[addr], nil
}

// SetMem writes v to addr, bounds-checked against the memory size.
func (m *Memory) SetMem(addr int, v value.Value) error {
	if !m.inRange(addr) {
		return NewMachineError(InvalidAddress, "write at address %d outside [0,%d)", addr, len(m.words))
	}
	m.profiler.countMemoryWrite()
	m.words[addr] = v
	return nil
}

// CopyMem copies count words from src to dst. Overlapping regions are
// copied in forward order (src+i -> dst+i for increasing i): this is
// relied upon by caller idioms like POP/RETURN "pop result over
// locals".
func (m *Memory) CopyMem(src, dst, count int) error {
	if count == 0 {
		return nil
	}
	if !m.inRange(src) || !m.inRange(src+count-1) {
		return NewMachineError(InvalidAddress, "copy_mem source range [%d,%d) out of bounds", src, src+count)
	}
	if !m.inRange(dst) || !m.inRange(dst+count-1) {
		return NewMachineError(InvalidAddress, "copy_mem destination range [%d,%d) out of bounds", dst, dst+count)
	}
	for i := 0; i < count; i++ {
		m.profiler.countMemoryRead()
		v := m.words[src+i]
		m.profiler.countMemoryWrite()
		m.words[dst+i] = v
	}
	return nil
}

// ZeroMem fills count words starting at dst with the typed zero value for
// tag.
func (m *Memory) ZeroMem(dst, count int, tag value.Tag) error {
	if count == 0 {
		return nil
	}
	if !m.inRange(dst) || !m.inRange(dst+count-1) {
		return NewMachineError(InvalidAddress, "zero_mem range [%d,%d) out of bounds", dst, dst+count)
	}
	z := value.Zero(tag)
	for i := 0; i < count; i++ {
		m.profiler.countMemoryWrite()
		m.words[dst+i] = z
	}
	return nil
}
