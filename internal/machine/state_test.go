package machine_test

import (
	"testing"

	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBoundaryAtSizeMinusOneAndSize(t *testing.T) {
	ms := machine.NewMachineState(4)

	_, err := ms.GetMem(3)
	assert.NoError(t, err, "reading the last valid address should succeed")

	_, err = ms.Memory.GetMem(4)
	require.Error(t, err, "reading at size should fail")
	assert.False(t, ms.Failed(), "a raw Memory read doesn't latch MachineState")

	_, err = ms.GetMem(4)
	require.Error(t, err)
	assert.True(t, ms.Failed(), "the MachineState wrapper latches the failure")
}

func TestStackExactCapacity(t *testing.T) {
	ms := machine.NewMachineState(2)

	require.NoError(t, ms.Push(value.Int32(1)))
	err := ms.Push(value.Int32(2))
	require.Error(t, err, "pushing past capacity should overflow")
	assert.True(t, ms.Failed())
}

func TestStackUnderflowThenRecoveryRequiresFreshState(t *testing.T) {
	ms := machine.NewMachineState(4)
	_, err := ms.Pop()
	require.Error(t, err)
	assert.True(t, ms.Failed())

	// Once failed, further operations are no-ops returning the same error.
	_, err2 := ms.Pop()
	require.Error(t, err2)
}

func TestPushThenPopSucceedsAtCapacity(t *testing.T) {
	ms := machine.NewMachineState(1)
	require.NoError(t, ms.Push(value.Int32(5)))
	v, err := ms.Pop()
	require.NoError(t, err)
	got, _ := v.AsInt()
	assert.Equal(t, int32(5), got)
	require.NoError(t, ms.Push(value.Int32(6)))
}

func TestCopyMemForwardOverlap(t *testing.T) {
	ms := machine.NewMachineState(8)
	for i := 0; i < 4; i++ {
		require.NoError(t, ms.SetMem(i, value.Int32(int32(i))))
	}
	// Overlapping forward copy: dst < src, so each destination write
	// happens strictly after its source has been read at that offset.
	require.NoError(t, ms.CopyMem(1, 0, 3))
	for i := 0; i < 3; i++ {
		v, err := ms.GetMem(i)
		require.NoError(t, err)
		got, _ := v.AsInt()
		assert.Equal(t, int32(i+1), got)
	}
}

func TestZeroMemUsesTypedZero(t *testing.T) {
	ms := machine.NewMachineState(4)
	require.NoError(t, ms.ZeroMem(0, 2, value.Float))
	v, err := ms.GetMem(0)
	require.NoError(t, err)
	f, err := v.AsFloat()
	require.NoError(t, err)
	assert.Equal(t, float32(0), f)
}
