package machine

import (
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// RegisterFile holds the eight TAM registers. CB, CT, PB, PT
// are fixed once a program is loaded; SB, ST, LB, CP move during
// execution.
type RegisterFile struct {
	regs     [8]value.Value
	profiler *Profiler
}

// NewRegisterFile returns a register file with every register zeroed
// (CB/SB tagged as their respective address kinds at address 0, the rest
// Unknown until the loader/dispatcher sets them).
func NewRegisterFile(profiler *Profiler) *RegisterFile {
	rf := &RegisterFile{profiler: profiler}
	rf.regs[tam.CB] = value.CodeAddrVal(0)
	rf.regs[tam.SB] = value.StackAddrVal(0)
	return rf
}

// Get reads register r, counting the access on the profiler.
func (rf *RegisterFile) Get(r tam.Register) value.Value {
	rf.profiler.countRegisterRead()
	return rf.regs[r]
}

// Set writes register r, counting the access on the profiler.
func (rf *RegisterFile) Set(r tam.Register, v value.Value) {
	rf.profiler.countRegisterWrite()
	rf.regs[r] = v
}

// GetAddr reads register r as an address (its natural tag).
func (rf *RegisterFile) GetAddr(r tam.Register) (uint32, error) {
	return rf.Get(r).AsAddr()
}

// GetUint reads register r reinterpreted as an unsigned 32-bit word,
// regardless of its address/int tag — used for the d[r]-style address
// arithmetic the assembler and dispatcher perform.
func (rf *RegisterFile) GetUint(r tam.Register) (uint32, error) {
	return rf.Get(r).AsUint()
}

// AddrTagFor returns the address tag LOADA should attach when addressing
// through register reg: CodeAddr for the code-register family, StackAddr
// for the stack-register family.
func AddrTagFor(reg tam.Register) value.Tag {
	if reg.IsCodeRegister() {
		return value.CodeAddr
	}
	return value.StackAddr
}
