package console

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// Debugger wraps a System with a line-oriented stdin REPL: step,
// breakpoints, register/stack dumps and reset.
//
// commands:
//
//	s [n]     step n CPU cycles (default 1)
//	br 0xADDR set a breakpoint on the program counter
//	p [what]  print machine state (cpu, ppu, stack, or nothing for both)
//	r         reset the machine
//	q         quit
type Debugger struct {
	*System
	cycles      uint64
	breakpoints []uint16
}

// NewDebugger wraps s with a REPL.
func NewDebugger(s *System) *Debugger {
	return &Debugger{System: s}
}

func (d *Debugger) step(n int) {
	for i := 0; i < n; i++ {
		d.Tick()
		d.cycles += 1
		if d.atBreakpoint() {
			fmt.Printf("break at 0x%04x\n", d.cpu.PC())
			return
		}
	}
}

func (d *Debugger) atBreakpoint() bool {
	pc := d.cpu.PC()
	for _, bp := range d.breakpoints {
		if bp == pc {
			return true
		}
	}
	return false
}

func (d *Debugger) printStack() {
	for i := 0; i < 256; i++ {
		addr := STACK_PAGE_BASE + uint16(i)
		fmt.Printf("0x%04x: 0x%02x  ", addr, d.Read(addr))
		if (i+1)%8 == 0 {
			fmt.Println()
		}
	}
}

// STACK_PAGE_BASE is the fixed page the 6502 stack lives in.
const STACK_PAGE_BASE = 0x0100

func (d *Debugger) printState(args []string) {
	if len(args) < 2 {
		fmt.Printf("cycles: %d\n%s\n", d.cycles, d.System)
		return
	}
	switch args[1] {
	case "c", "cpu":
		fmt.Println(d.cpu)
	case "p", "ppu":
		fmt.Println(d.ppu)
	case "st", "stack":
		fmt.Printf("SP -> 0x%04x\n", d.cpu.StackAddr())
		d.printStack()
	default:
		fmt.Printf("unknown print target %q\n", args[1])
	}
}

func (d *Debugger) stepCommand(args []string) {
	n := 1
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[1]); err == nil {
			n = v
		}
	}
	d.step(n)
	fmt.Printf("%s\n", d.cpu.Inst())
}

func (d *Debugger) breakpointCommand(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: br 0xADDR")
		return
	}
	var addr uint16
	if _, err := fmt.Sscanf(args[1], "0x%x", &addr); err != nil {
		fmt.Printf("bad address %q: %v\n", args[1], err)
		return
	}
	d.breakpoints = append(d.breakpoints, addr)
	glog.Infof("breakpoint set at 0x%04x", addr)
}

// RunOnce reads and executes a single command line from stdin. It
// returns false once the user asks to quit.
func (d *Debugger) RunOnce(in *bufio.Reader) bool {
	fmt.Print(">> ")
	line, err := in.ReadString('\n')
	if err != nil {
		glog.Errorf("reading debugger input: %v", err)
		return false
	}

	args := strings.Fields(strings.TrimSpace(line))
	if len(args) == 0 {
		return true
	}

	switch args[0] {
	case "s", "step":
		d.stepCommand(args)
	case "br", "breakpoint":
		d.breakpointCommand(args)
	case "p", "print":
		d.printState(args)
	case "r", "reset":
		d.cpu.Reset()
		d.ppu.Reset()
		d.cycles = 0
	case "q", "quit":
		return false
	default:
		fmt.Printf("unknown command %q\n", args[0])
	}
	return true
}

// RunREPL drives the debugger from stdin until the user quits.
func (d *Debugger) RunREPL() {
	in := bufio.NewReader(os.Stdin)
	fmt.Println("debugger mode, 'q' to quit")
	for d.RunOnce(in) {
	}
}
