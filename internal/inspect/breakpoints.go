// Package inspect implements a read-only TUI over a loaded internal/tam
// image: disassembly, the interned string pool, and breakpoint toggling,
// the one mutable part of an otherwise immutable image. internal/machine
// already honors breakpoints attached directly to an Instruction via
// HasBreakPoint/SetBreakPoint, so this manager's job is tracking hit
// counts and presenting a list, not owning the mutation itself.
package inspect

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lookbusy1344/tamvm/internal/tam"
)

// BreakpointInfo is a breakpoint's display-facing state: the address plus
// a hit count the Image itself has no room to store.
type BreakpointInfo struct {
	Address  uint32
	HitCount int
}

// BreakpointManager tracks breakpoint hit counts alongside the Image's
// own BreakPoint debug symbols, which remain the source of truth for
// whether a breakpoint exists at all.
type BreakpointManager struct {
	mu   sync.RWMutex
	img  *tam.Image
	hits map[uint32]int
}

// NewBreakpointManager returns a manager over img.
func NewBreakpointManager(img *tam.Image) *BreakpointManager {
	return &BreakpointManager{img: img, hits: make(map[uint32]int)}
}

// Toggle flips the breakpoint at addr and returns its new state.
func (bm *BreakpointManager) Toggle(addr uint32) (bool, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	inst, err := bm.img.GetInstruction(int(addr))
	if err != nil {
		return false, err
	}
	on := !inst.HasBreakPoint()
	inst.SetBreakPoint(on)
	if !on {
		delete(bm.hits, addr)
	}
	return on, nil
}

// RecordHit increments addr's hit count. Nothing in this package calls
// it: the inspector does not run programs, so hit counts change only when
// an outside caller records them.
func (bm *BreakpointManager) RecordHit(addr uint32) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.hits[addr]++
}

// List returns every breakpointed address in the image, in ascending
// order, with its tracked hit count.
func (bm *BreakpointManager) List() []BreakpointInfo {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	var out []BreakpointInfo
	for addr := range bm.img.Instructions {
		inst, err := bm.img.GetInstruction(addr)
		if err != nil || !inst.HasBreakPoint() {
			continue
		}
		out = append(out, BreakpointInfo{Address: uint32(addr), HitCount: bm.hits[uint32(addr)]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Format renders a BreakpointInfo as one line for the breakpoints panel.
func (b BreakpointInfo) Format() string {
	return fmt.Sprintf("0x%08X  hits=%d", b.Address, b.HitCount)
}
