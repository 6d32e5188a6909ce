package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/tamvm/internal/tam"
)

// TUI is tamvm's read-only image inspector: a disassembly pane, a string
// pool pane, a breakpoints pane, and a command line for jumping to an
// address or toggling a breakpoint.
type TUI struct {
	Image       *tam.Image
	Breakpoints *BreakpointManager

	App   *tview.Application
	Pages *tview.Pages

	DisasmView      *tview.TextView
	StringPoolView  *tview.TextView
	BreakpointsView *tview.TextView
	StatusView      *tview.TextView
	CommandInput    *tview.InputField

	lines []tam.DisasmLine
}

// NewTUI builds an inspector over img, ready for Run.
func NewTUI(img *tam.Image) *TUI {
	t := &TUI{
		Image:       img,
		Breakpoints: NewBreakpointManager(img),
		App:         tview.NewApplication(),
		lines:       tam.Disassemble(img),
	}
	t.initializeViews()
	t.buildLayout()
	t.refreshDisasm()
	t.refreshBreakpoints()
	return t
}

func (t *TUI) initializeViews() {
	t.DisasmView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisasmView.SetBorder(true).SetTitle(" Disassembly ")

	t.StringPoolView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StringPoolView.SetBorder(true).SetTitle(" Strings ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.StatusView = tview.NewTextView().SetDynamicColors(true)
	t.StatusView.SetBorder(true).SetTitle(" Status ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command (b <addr> toggles a breakpoint, g <addr> jumps) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.StringPoolView, 0, 1, false).
		AddItem(t.BreakpointsView, 0, 1, false).
		AddItem(t.StatusView, 5, 0, false)

	main := tview.NewFlex().
		AddItem(t.DisasmView, 0, 2, true).
		AddItem(right, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(main, 0, 1, true).
		AddItem(t.CommandInput, 3, 0, false)

	t.Pages = tview.NewPages().AddPage("main", root, true, true)
	t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput)
}

func (t *TUI) refreshDisasm() {
	var b strings.Builder
	for _, line := range t.lines {
		if line.BlankBefore {
			b.WriteString("\n")
		}
		switch line.Kind {
		case tam.LineLabel:
			fmt.Fprintf(&b, "[yellow]%s[-]\n", line.Text)
		case tam.LineComment:
			fmt.Fprintf(&b, "[gray]%s[-]\n", line.Text)
		case tam.LineInstruction:
			mark := " "
			if inst, err := t.Image.GetInstruction(line.Address); err == nil && inst.HasBreakPoint() {
				mark = "*"
			}
			fmt.Fprintf(&b, "%s %6d  %s\n", mark, line.Address, line.Text)
		}
	}
	t.DisasmView.SetText(b.String())

	var sb strings.Builder
	for id, s := range t.Image.Strings {
		fmt.Fprintf(&sb, "%4d  %q\n", id, s)
	}
	t.StringPoolView.SetText(sb.String())
}

func (t *TUI) refreshBreakpoints() {
	var b strings.Builder
	for _, bp := range t.Breakpoints.List() {
		b.WriteString(bp.Format())
		b.WriteString("\n")
	}
	t.BreakpointsView.SetText(b.String())
}

func (t *TUI) setStatus(format string, args ...any) {
	t.StatusView.SetText(fmt.Sprintf(format, args...))
}

// handleCommand parses a line typed into the command input: "b <addr>"
// toggles a breakpoint, "g <addr>" scrolls the disassembly to an address.
func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	text := strings.TrimSpace(t.CommandInput.GetText())
	t.CommandInput.SetText("")
	if text == "" {
		return
	}
	fields := strings.Fields(text)
	switch fields[0] {
	case "b":
		t.cmdToggleBreakpoint(fields)
	case "g":
		t.cmdGoto(fields)
	default:
		t.setStatus("unknown command: %s", fields[0])
	}
}

func (t *TUI) cmdToggleBreakpoint(fields []string) {
	if len(fields) != 2 {
		t.setStatus("usage: b <addr>")
		return
	}
	addr, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		t.setStatus("bad address: %s", fields[1])
		return
	}
	on, err := t.Breakpoints.Toggle(uint32(addr))
	if err != nil {
		t.setStatus("%v", err)
		return
	}
	t.refreshDisasm()
	t.refreshBreakpoints()
	if on {
		t.setStatus("breakpoint set at %d", addr)
	} else {
		t.setStatus("breakpoint cleared at %d", addr)
	}
}

func (t *TUI) cmdGoto(fields []string) {
	if len(fields) != 2 {
		t.setStatus("usage: g <addr>")
		return
	}
	addr, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		t.setStatus("bad address: %s", fields[1])
		return
	}
	for i, line := range t.lines {
		if line.Kind == tam.LineInstruction && line.Address == int(addr) {
			t.DisasmView.ScrollTo(i, 0)
			t.setStatus("jumped to %d", addr)
			return
		}
	}
	t.setStatus("no instruction at %d", addr)
}

// Run starts the inspector's event loop. It blocks until the user quits.
func (t *TUI) Run() error {
	return t.App.Run()
}

// Stop ends the inspector's event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
