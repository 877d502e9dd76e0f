package oclstat

import (
	"bytes"
	"fmt"
	"io"
	"time"
)

// Trigger names what caused a report.
type Trigger string

const (
	TriggerExit        Trigger = "exit"
	TriggerSignal      Trigger = "signal"
	TriggerFatalSignal Trigger = "fatal-signal"
	TriggerInterval    Trigger = "interval"
	TriggerExplicit    Trigger = "explicit"
)

// Report is a point-in-time summary of a registry.
type Report struct {
	Trigger    Trigger
	Time       time.Time
	Retention  Retention
	Categories []CategoryStats
	Recent     []Violation
}

// Stats returns the summary of one category.
func (r Report) Stats(c Category) CategoryStats {
	for _, st := range r.Categories {
		if st.Category == c {
			return st
		}
	}
	return CategoryStats{Category: c}
}

// LeakedBytes sums the bytes of alive memory objects. It is exact for
// buffers and a lower bound for images.
func (r Report) LeakedBytes() uint64 {
	var n uint64
	for _, st := range r.Categories {
		n += st.Bytes
	}
	return n
}

// EstimatedBytes is the image share of LeakedBytes.
func (r Report) EstimatedBytes() uint64 {
	var n uint64
	for _, st := range r.Categories {
		n += st.EstimatedBytes
	}
	return n
}

// Violations counts every violation seen, including those no longer kept
// in Recent.
func (r Report) Violations() uint64 {
	var n uint64
	for _, st := range r.Categories {
		n += st.Violations
	}
	return n
}

// Tombstones counts zero-count records still kept.
func (r Report) Tombstones() int {
	var n int
	for _, st := range r.Categories {
		n += st.Tombstones
	}
	return n
}

// WriteTo renders the report as text in a single write.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "oclstat: report (%s)\n", r.Trigger)
	for _, st := range r.Categories {
		fmt.Fprintf(&buf, "  %-16s  alive %-6d created %d\n", st.Category, st.Alive, st.Created)
	}
	fmt.Fprintf(&buf, "  %-16s  %d\n", "leaked bytes", r.LeakedBytes())
	if est := r.EstimatedBytes(); est > 0 {
		fmt.Fprintf(&buf, "  %-16s  %d (image sizes are estimated, total is a lower bound)\n", "image bytes", est)
	}
	if n := r.Tombstones(); n > 0 {
		fmt.Fprintf(&buf, "  %-16s  %d\n", "tombstones", n)
	}
	if n := r.Violations(); n > 0 {
		fmt.Fprintf(&buf, "  %-16s  %d\n", "violations", n)
		for _, v := range r.Recent {
			fmt.Fprintf(&buf, "    %s %s\n", v.Time.Format(time.RFC3339), v.Error())
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
