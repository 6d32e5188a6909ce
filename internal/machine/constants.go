package machine

// DefaultMemorySize is the default linear memory size in words.
const DefaultMemorySize = 1 << 20

// DefaultMaxCodeMemSize bounds the combined code-address space: real
// instructions occupy [CB, CT) and primitives occupy
// [maxCodeMemSize-numPrimitives, maxCodeMemSize). A single flat
// code-address space; TAM has no separate segment permissions.
const DefaultMaxCodeMemSize = 65536

// DefaultMaxCycles bounds a run's cycle budget; 0 means
// unbounded.
const DefaultMaxCycles = 1_000_000
