package primitive

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/value"
)

// matrixReadFunc returns a primitive that reads a dim×dim matrix (int or
// float, selected by isFloat) from the path named by the popped string
// id: comma-separated values, one row per line, blank lines ignored,
// exact row/column count enforced.
func matrixReadFunc(dim int, isFloat bool) primitiveFunc {
	return func(vm *machine.VM) error {
		path, err := popString(vm)
		if err != nil {
			return err
		}
		f, oerr := os.Open(path)
		if oerr != nil {
			return machine.NewMachineError(machine.IoError, "open %s: %v", path, oerr)
		}
		defer f.Close()

		words := make([]value.Value, 0, dim*dim)
		scanner := bufio.NewScanner(f)
		rows := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			fields := strings.Split(line, ",")
			if len(fields) != dim {
				return machine.NewMachineError(machine.IoError, "%s: row %d has %d columns, want %d", path, rows, len(fields), dim)
			}
			for _, raw := range fields {
				cell := strings.TrimSpace(raw)
				if isFloat {
					v, perr := strconv.ParseFloat(cell, 32)
					if perr != nil {
						return machine.NewMachineError(machine.IoError, "%s: %v", path, perr)
					}
					words = append(words, value.Float32(float32(v)))
				} else {
					v, perr := strconv.ParseInt(cell, 10, 32)
					if perr != nil {
						return machine.NewMachineError(machine.IoError, "%s: %v", path, perr)
					}
					words = append(words, value.Int32(int32(v)))
				}
			}
			rows++
		}
		if serr := scanner.Err(); serr != nil {
			return machine.NewMachineError(machine.IoError, "%s: %v", path, serr)
		}
		if rows != dim {
			return machine.NewMachineError(machine.IoError, "%s: %d rows, want %d", path, rows, dim)
		}
		return pushWords(vm, words)
	}
}

// matrixWriteFunc returns a primitive that pops a dim×dim matrix and a
// path string id (path on top, per the usual "path last" argument order)
// and writes it as comma-separated rows with a dot decimal point.
func matrixWriteFunc(dim int, isFloat bool) primitiveFunc {
	return func(vm *machine.VM) error {
		path, err := popString(vm)
		if err != nil {
			return err
		}
		words, werr := popWords(vm, dim*dim)
		if werr != nil {
			return werr
		}
		f, cerr := os.Create(path)
		if cerr != nil {
			return machine.NewMachineError(machine.IoError, "create %s: %v", path, cerr)
		}
		defer f.Close()

		w := bufio.NewWriter(f)
		for r := 0; r < dim; r++ {
			for c := 0; c < dim; c++ {
				if c > 0 {
					fmt.Fprint(w, ", ")
				}
				cell := words[r*dim+c]
				if isFloat {
					fv, _ := cell.AsFloat()
					fmt.Fprintf(w, "%g", fv)
				} else {
					iv, _ := cell.AsInt()
					fmt.Fprintf(w, "%d", iv)
				}
			}
			fmt.Fprintln(w)
		}
		if ferr := w.Flush(); ferr != nil {
			return machine.NewMachineError(machine.IoError, "write %s: %v", path, ferr)
		}
		return nil
	}
}

// matMulInt pops the shared matrix-multiply operands: stack layout lmat,
// rmat, lrows, dim, rcols, popped right-to-left.
func matMulInt(vm *machine.VM) ([]int32, []int32, int, int, int, error) {
	rcols, err := popInt(vm)
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	dim, err := popInt(vm)
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	lrows, err := popInt(vm)
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	rmatWords, err := popWords(vm, int(dim)*int(rcols))
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	lmatWords, err := popWords(vm, int(lrows)*int(dim))
	if err != nil {
		return nil, nil, 0, 0, 0, err
	}
	lmat := make([]int32, len(lmatWords))
	for i, w := range lmatWords {
		lmat[i], err = w.AsInt()
		if err != nil {
			return nil, nil, 0, 0, 0, err
		}
	}
	rmat := make([]int32, len(rmatWords))
	for i, w := range rmatWords {
		rmat[i], err = w.AsInt()
		if err != nil {
			return nil, nil, 0, 0, 0, err
		}
	}
	return lmat, rmat, int(lrows), int(dim), int(rcols), nil
}

func primMatMulI(vm *machine.VM) error {
	lmat, rmat, lrows, dim, rcols, err := matMulInt(vm)
	if err != nil {
		return err
	}
	result := make([]value.Value, lrows*rcols)
	for r := 0; r < lrows; r++ {
		for c := 0; c < rcols; c++ {
			var sum int32
			for k := 0; k < dim; k++ {
				sum += lmat[r*dim+k] * rmat[k*rcols+c]
			}
			result[r*rcols+c] = value.Int32(sum)
		}
	}
	return pushWords(vm, result)
}

func primMatMulF(vm *machine.VM) error {
	rcols, err := popInt(vm)
	if err != nil {
		return err
	}
	dim, err := popInt(vm)
	if err != nil {
		return err
	}
	lrows, err := popInt(vm)
	if err != nil {
		return err
	}
	rmatWords, err := popWords(vm, int(dim)*int(rcols))
	if err != nil {
		return err
	}
	lmatWords, err := popWords(vm, int(lrows)*int(dim))
	if err != nil {
		return err
	}
	lmat := make([]float32, len(lmatWords))
	for i, w := range lmatWords {
		lmat[i], err = w.AsFloat()
		if err != nil {
			return err
		}
	}
	rmat := make([]float32, len(rmatWords))
	for i, w := range rmatWords {
		rmat[i], err = w.AsFloat()
		if err != nil {
			return err
		}
	}
	result := make([]value.Value, int(lrows)*int(rcols))
	for r := 0; r < int(lrows); r++ {
		for c := 0; c < int(rcols); c++ {
			var sum float32
			for k := 0; k < int(dim); k++ {
				sum += lmat[r*int(dim)+k] * rmat[k*int(rcols)+c]
			}
			result[r*int(rcols)+c] = value.Float32(sum)
		}
	}
	return pushWords(vm, result)
}

func primMatTransposeI(vm *machine.VM) error {
	cols, err := popInt(vm)
	if err != nil {
		return err
	}
	rows, err := popInt(vm)
	if err != nil {
		return err
	}
	words, err := popWords(vm, int(rows)*int(cols))
	if err != nil {
		return err
	}
	result := make([]value.Value, len(words))
	for r := 0; r < int(rows); r++ {
		for c := 0; c < int(cols); c++ {
			result[c*int(rows)+r] = words[r*int(cols)+c]
		}
	}
	return pushWords(vm, result)
}

// primMatTransposeF shares primMatTransposeI's body: transposing only
// permutes word positions, it never inspects the tag, so the int/float
// split exists for displacement symmetry with matMulI/matMulF rather than
// because the algorithm differs.
func primMatTransposeF(vm *machine.VM) error {
	return primMatTransposeI(vm)
}
