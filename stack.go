package oclstat

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
)

// Frame is one resolved call frame.
type Frame struct {
	Function string
	Offset   uintptr
	File     string
	Line     int
}

func (f Frame) String() string {
	s := fmt.Sprintf("%s+%#x", f.Function, f.Offset)
	switch {
	case f.File != "" && f.Line > 0:
		s += fmt.Sprintf(" (%s:%d)", f.File, f.Line)
	case f.File != "":
		s += " (" + f.File + ")"
	}
	return s
}

// StackSnapshotter captures the calling thread's stack. skip counts the
// frames above the caller of Snapshot to omit.
type StackSnapshotter interface {
	Snapshot(skip int) []Frame
}

// GoStacks captures Go frames with runtime.Callers.
type GoStacks struct {
	Depth int
}

// Snapshot implements StackSnapshotter.
func (g GoStacks) Snapshot(skip int) []Frame {
	depth := g.Depth
	if depth <= 0 {
		depth = 32
	}
	pcs := make([]uintptr, depth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}
		out = append(out, Frame{
			Function: frame.Function,
			Offset:   frame.PC - frame.Entry,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
	return out
}

// NoStacks never captures anything.
type NoStacks struct{}

// Snapshot implements StackSnapshotter.
func (NoStacks) Snapshot(int) []Frame { return nil }

// WriteStack prints frames one per line, innermost first.
func WriteStack(w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for i, f := range frames {
		fmt.Fprintf(&buf, "    #%-2d %s\n", i, f)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
