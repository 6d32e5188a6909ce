package primitive_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/primitive"
	"github.com/lookbusy1344/tamvm/internal/tam"
	"github.com/lookbusy1344/tamvm/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVM() (*machine.VM, *bytes.Buffer) {
	img := tam.NewImage()
	img.Emit(tam.Instruction{Opcode: tam.HALT})
	out := &bytes.Buffer{}
	vm := machine.NewVM(img, 256, machine.DefaultMaxCodeMemSize, primitive.NewTable())
	vm.Stdout = out
	return vm, out
}

func call(t *testing.T, vm *machine.VM, name string) error {
	t.Helper()
	for i, n := range primitive.Names {
		if n == name {
			return primitive.NewTable().Call(vm, i)
		}
	}
	t.Fatalf("no such primitive %q", name)
	return nil
}

func TestDivIByZeroRaisesZeroDivision(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.Int32(10)))
	require.NoError(t, vm.Push(value.Int32(0)))
	err := call(t, vm, "divI")
	require.Error(t, err)
	merr, ok := err.(*machine.MachineError)
	require.True(t, ok)
	assert.Equal(t, machine.ZeroDivision, merr.Kind)
}

func TestModIByZeroRaisesZeroDivision(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.Int32(10)))
	require.NoError(t, vm.Push(value.Int32(0)))
	err := call(t, vm, "modI")
	require.Error(t, err)
	assert.Equal(t, machine.ZeroDivision, err.(*machine.MachineError).Kind)
}

func TestDivFByExactZeroRaisesZeroDivision(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.Float32(1.5)))
	require.NoError(t, vm.Push(value.Float32(0)))
	err := call(t, vm, "divF")
	require.Error(t, err)
	assert.Equal(t, machine.ZeroDivision, err.(*machine.MachineError).Kind)
}

func TestAddIPropagatesAddressTag(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.StackAddrVal(100)))
	require.NoError(t, vm.Push(value.Int32(4)))
	require.NoError(t, call(t, vm, "addI"))
	v, err := vm.Pop()
	require.NoError(t, err)
	assert.Equal(t, value.StackAddr, v.Tag)
	assert.Equal(t, uint32(104), v.Payload)
}

func TestAddIPropagatesAddressTagEitherOperandOrder(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.Int32(4)))
	require.NoError(t, vm.Push(value.CodeAddrVal(200)))
	require.NoError(t, call(t, vm, "addI"))
	v, err := vm.Pop()
	require.NoError(t, err)
	assert.Equal(t, value.CodeAddr, v.Tag)
	assert.Equal(t, uint32(204), v.Payload)
}

func TestAddIPlainIntsStayInt(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.Int32(2)))
	require.NoError(t, vm.Push(value.Int32(3)))
	require.NoError(t, call(t, vm, "addI"))
	v, err := vm.Pop()
	require.NoError(t, err)
	assert.Equal(t, value.Int, v.Tag)
	got, _ := v.AsInt()
	assert.Equal(t, int32(5), got)
}

func TestSuccPredPreserveTag(t *testing.T) {
	vm, _ := newVM()
	require.NoError(t, vm.Push(value.CodeAddrVal(10)))
	require.NoError(t, call(t, vm, "succ"))
	v, err := vm.Pop()
	require.NoError(t, err)
	assert.Equal(t, value.CodeAddr, v.Tag)
	assert.Equal(t, uint32(11), v.Payload)

	require.NoError(t, vm.Push(value.StackAddrVal(10)))
	require.NoError(t, call(t, vm, "pred"))
	v, err = vm.Pop()
	require.NoError(t, err)
	assert.Equal(t, value.StackAddr, v.Tag)
	assert.Equal(t, uint32(9), v.Payload)
}

func TestErrPrimitiveRaisesRuntimeErrorWithMessage(t *testing.T) {
	vm, _ := newVM()
	id := vm.Image.InternString("Index out of bounds")
	require.NoError(t, vm.Push(value.StringIDVal(id)))
	err := call(t, vm, "err")
	require.Error(t, err)
	merr := err.(*machine.MachineError)
	assert.Equal(t, machine.RuntimeError, merr.Kind)
	assert.Equal(t, "Index out of bounds", merr.Message)
}

func TestPrintIntPrintLine(t *testing.T) {
	vm, out := newVM()
	require.NoError(t, vm.Push(value.Int32(3)))
	require.NoError(t, call(t, vm, "printInt"))
	require.NoError(t, call(t, vm, "printLine"))
	assert.Equal(t, "3\n", out.String())
}

func TestReadIntSkipsBlankLines(t *testing.T) {
	vm, _ := newVM()
	vm.SetStdin(strings.NewReader("\n\n42\n"))
	require.NoError(t, call(t, vm, "readInt"))
	v, err := vm.Pop()
	require.NoError(t, err)
	got, _ := v.AsInt()
	assert.Equal(t, int32(42), got)
}

func TestReadBoolParsesTrueFalse(t *testing.T) {
	vm, _ := newVM()
	vm.SetStdin(strings.NewReader("true\n"))
	require.NoError(t, call(t, vm, "readBool"))
	v, err := vm.Pop()
	require.NoError(t, err)
	b, err := v.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func pushMatrix(t *testing.T, vm *machine.VM, rows, cols int, vals []int32) {
	t.Helper()
	for _, v := range vals {
		require.NoError(t, vm.Push(value.Int32(v)))
	}
}

func writeRawFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestMatMulIIdentity(t *testing.T) {
	vm, _ := newVM()
	identity := []int32{1, 0, 0, 1}
	pushMatrix(t, vm, 2, 2, identity) // lmat
	pushMatrix(t, vm, 2, 2, []int32{5, 6, 7, 8}) // rmat
	require.NoError(t, vm.Push(value.Int32(2))) // lrows
	require.NoError(t, vm.Push(value.Int32(2))) // dim
	require.NoError(t, vm.Push(value.Int32(2))) // rcols

	require.NoError(t, call(t, vm, "matMulI"))

	words, err := func() ([]int32, error) {
		vals := make([]int32, 4)
		for i := 3; i >= 0; i-- {
			v, err := vm.Pop()
			if err != nil {
				return nil, err
			}
			n, err := v.AsInt()
			if err != nil {
				return nil, err
			}
			vals[i] = n
		}
		return vals, nil
	}()
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 6, 7, 8}, words)
}

func TestMatTransposeI(t *testing.T) {
	vm, _ := newVM()
	// 2x3 matrix [[1,2,3],[4,5,6]]
	pushMatrix(t, vm, 2, 3, []int32{1, 2, 3, 4, 5, 6})
	require.NoError(t, vm.Push(value.Int32(2))) // rows
	require.NoError(t, vm.Push(value.Int32(3))) // cols

	require.NoError(t, call(t, vm, "matTransposeI"))

	vals := make([]int32, 6)
	for i := 5; i >= 0; i-- {
		v, err := vm.Pop()
		require.NoError(t, err)
		n, err := v.AsInt()
		require.NoError(t, err)
		vals[i] = n
	}
	// transpose is 3x2: [[1,4],[2,5],[3,6]]
	assert.Equal(t, []int32{1, 4, 2, 5, 3, 6}, vals)
}

func TestMatrix9IWriteThenReadRoundTrips(t *testing.T) {
	vm, _ := newVM()
	path := filepath.Join(t.TempDir(), "m.csv")

	vals := make([]int32, 81)
	for i := range vals {
		vals[i] = int32(i)
	}
	pushMatrix(t, vm, 9, 9, vals)
	id := vm.Image.InternString(path)
	require.NoError(t, vm.Push(value.StringIDVal(id)))
	require.NoError(t, call(t, vm, "writeMatrix9I"))

	id2 := vm.Image.InternString(path)
	require.NoError(t, vm.Push(value.StringIDVal(id2)))
	require.NoError(t, call(t, vm, "readMatrix9I"))

	got := make([]int32, 81)
	for i := 80; i >= 0; i-- {
		v, err := vm.Pop()
		require.NoError(t, err)
		n, err := v.AsInt()
		require.NoError(t, err)
		got[i] = n
	}
	assert.Equal(t, vals, got)
}

func TestMatrixReadRejectsWrongRowCount(t *testing.T) {
	vm, _ := newVM()
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, writeRawFile(path, "1,2,3,4,5,6,7,8,9\n1,2,3,4,5,6,7,8,9\n"))
	id := vm.Image.InternString(path)
	require.NoError(t, vm.Push(value.StringIDVal(id)))
	err := call(t, vm, "readMatrix9I")
	require.Error(t, err)
	assert.Equal(t, machine.IoError, err.(*machine.MachineError).Kind)
}

func TestPrimitiveCountIs61(t *testing.T) {
	tbl := primitive.NewTable()
	assert.Equal(t, 61, tbl.Count())
}
