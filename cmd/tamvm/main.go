// Command tamvm is the thin driver around the TAM virtual machine core.
// It loads a pre-built `.tam` image (and, if present, its
// `<path>.sym` debug-symbol sidecar), optionally dumps the image before
// running it, executes it against a fresh machine state, and reports the
// terminal execution state. MAVL lexing, parsing and type checking live
// in an external analysis stage: this driver never compiles source, only
// runs images.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/tamvm/internal/config"
	"github.com/lookbusy1344/tamvm/internal/inspect"
	"github.com/lookbusy1344/tamvm/internal/machine"
	"github.com/lookbusy1344/tamvm/internal/primitive"
	"github.com/lookbusy1344/tamvm/internal/tam"
)

var (
	// Version is overridden at build time with -ldflags "-X main.Version=...".
	Version = "dev"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("tamvm", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		showVersion  = fs.Bool("version", false, "print version and exit")
		runPath      = fs.String("run", "", "path to a .tam image to execute")
		dumpImage    = fs.Bool("dump-image", false, "print instruction count and string pool before running")
		dumpSymbols  = fs.Bool("dump-symbols", false, "print attached debug symbols before running")
		dumpDisasm   = fs.Bool("dump-disasm", false, "print the image's disassembly view before running")
		maxCycles    = fs.Uint64("max-cycles", 0, "cycle budget; 0 uses the config/default value")
		memSize      = fs.Int("mem-size", 0, "linear memory size in words; 0 uses the config/default value")
		configPath   = fs.String("config", "", "path to a TOML run-configuration file")
		inspectImage = fs.Bool("inspect", false, "open the read-only TUI inspector instead of running")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("tamvm %s\n", Version)
		return 0
	}

	if *runPath == "" {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tamvm: %v\n", err)
		return 1
	}

	img, err := loadImage(*runPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tamvm: %v\n", err)
		return 1
	}

	if *dumpImage {
		dumpImageSummary(img)
	}
	if *dumpSymbols {
		dumpImageSymbols(img)
	}
	if *dumpDisasm {
		dumpDisassembly(img)
	}

	if *inspectImage {
		t := inspect.NewTUI(img)
		if err := t.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tamvm: inspector: %v\n", err)
			return 1
		}
		return 0
	}

	effectiveCycles := cfg.Execution.MaxCycles
	if *maxCycles != 0 {
		effectiveCycles = *maxCycles
	}
	effectiveMemSize := cfg.Execution.MemorySize
	if *memSize != 0 {
		effectiveMemSize = *memSize
	}

	vm := machine.NewVM(img, effectiveMemSize, cfg.Execution.MaxCodeMemSize, primitive.NewTable())
	vm.MaxCycles = effectiveCycles
	vm.Stdin = os.Stdin
	vm.Stdout = os.Stdout

	if err := vm.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tamvm: %v\n", err)
		return 1
	}

	switch vm.State {
	case machine.StateHalted:
		return 0
	case machine.StateError:
		fmt.Fprintf(os.Stderr, "tamvm: %v\n", vm.Err)
		return 1
	default:
		fmt.Fprintf(os.Stderr, "tamvm: execution stopped in state %s after %d cycles (cycle budget exhausted)\n", vm.State, vm.Cycles)
		return 1
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFrom(path)
}

// loadImage loads runPath's instructions/string pool, then its debug
// symbol sidecar (runPath + ".sym") if present. A missing sidecar is not
// an error: images stripped of debug info still run, every
// untyped word defaulting to the `unknown` wildcard tag.
func loadImage(runPath string) (*tam.Image, error) {
	img, err := tam.LoadFile(runPath)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", runPath, err)
	}

	symPath := runPath + ".sym"
	if _, statErr := os.Stat(symPath); statErr == nil {
		if err := img.LoadSymbolsFile(symPath); err != nil {
			return nil, fmt.Errorf("load symbols %s: %w", symPath, err)
		}
	}
	return img, nil
}

func dumpImageSummary(img *tam.Image) {
	fmt.Printf("instructions: %d\n", img.InstructionCount())
	fmt.Printf("strings: %d\n", len(img.Strings))
	for id, s := range img.Strings {
		fmt.Printf("  %4d  %q\n", id, s)
	}
}

func dumpImageSymbols(img *tam.Image) {
	for addr := range img.Instructions {
		inst := &img.Instructions[addr]
		if len(inst.Symbols) == 0 {
			continue
		}
		fmt.Printf("%6d:", addr)
		for _, s := range inst.Symbols {
			fmt.Printf(" %s", s.String())
		}
		fmt.Println()
	}
}

func dumpDisassembly(img *tam.Image) {
	for _, line := range tam.Disassemble(img) {
		if line.BlankBefore {
			fmt.Println()
		}
		switch line.Kind {
		case tam.LineInstruction:
			fmt.Printf("%6d  %s\n", line.Address, line.Text)
		default:
			fmt.Println(line.Text)
		}
	}
}
