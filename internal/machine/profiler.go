package machine

// Profiler counts every memory and register touch the machine makes. It
// is an explicit side-object referenced by RegisterFile and Memory, not
// global mutable state, so two machines never share counters.
type Profiler struct {
	MemoryReads    uint64
	MemoryWrites   uint64
	RegisterReads  uint64
	RegisterWrites uint64
}

func (p *Profiler) countMemoryRead()    { p.MemoryReads++ }
func (p *Profiler) countMemoryWrite()   { p.MemoryWrites++ }
func (p *Profiler) countRegisterRead()  { p.RegisterReads++ }
func (p *Profiler) countRegisterWrite() { p.RegisterWrites++ }

// TotalAccesses returns the sum of every counted touch, handy for
// statistics reporting.
func (p *Profiler) TotalAccesses() uint64 {
	return p.MemoryReads + p.MemoryWrites + p.RegisterReads + p.RegisterWrites
}
