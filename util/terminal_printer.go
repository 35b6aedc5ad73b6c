package util

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws one line per parallel output at a fixed frequency.
// Outputs must be created before Start.
type TerminalPrinter struct {
	parallelOutputs []*ParallelOutput
	frequency       time.Duration
	doneCh          chan struct{}
	stoppedCh       chan struct{}
	stopOnce        sync.Once

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(frequency time.Duration) *TerminalPrinter {
	return &TerminalPrinter{
		parallelOutputs: make([]*ParallelOutput, 0),
		frequency:       frequency,
		doneCh:          make(chan struct{}),
		stoppedCh:       make(chan struct{}),

		writer:  uilive.New(),
		writers: make([]io.Writer, 0),
	}
}

// SetOut redirects the printer, os.Stdout by default.
func (p *TerminalPrinter) SetOut(out io.Writer) {
	p.writer.Out = out
}

func (p *TerminalPrinter) NewOutput() *ParallelOutput {
	out := NewParallelOutput()
	p.parallelOutputs = append(p.parallelOutputs, out)
	p.writers = append(p.writers, p.writer.Newline())
	return out
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	go func() {
		defer close(p.stoppedCh)
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-p.doneCh:
				p.print()
				return
			case <-ctx.Done():
				p.print()
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop prints the outputs one last time and waits for the printer to exit.
func (p *TerminalPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.doneCh)
	})
	<-p.stoppedCh
}

func (p *TerminalPrinter) Write(out string) {
	fmt.Fprintf(p.writer, "%s", out)
	p.writer.Flush()
}

func (p *TerminalPrinter) print() {
	for i, output := range p.parallelOutputs {
		fmt.Fprint(p.writers[i], output.Get()+"\n")
	}
	p.writer.Flush()
}

// PARALLEL OUTPUT
// used to update and print experiment outputs
type ParallelOutput struct {
	mu        *sync.Mutex
	printable string
}

var _ io.Writer = &ParallelOutput{}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Write replaces the output with the last line written.
func (p *ParallelOutput) Write(bs []byte) (int, error) {
	p.Set(strings.TrimRight(string(bs), "\n"))
	return len(bs), nil
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
