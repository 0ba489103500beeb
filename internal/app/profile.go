package app

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// profiler appends per-section frame timings as CSV rows. A nil profiler is
// a no-op so the frame path can call it unconditionally. It is only used
// from the frame goroutine.
type profiler struct {
	w     *bufio.Writer
	c     io.Closer
	now   func() time.Time
	frame uint64
	start time.Time
	last  time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Printf("profiler disabled: %v", err)
		return nil
	}
	return newProfilerTo(f)
}

func newProfilerTo(w io.WriteCloser) *profiler {
	p := &profiler{w: bufio.NewWriter(w), c: w, now: time.Now}
	fmt.Fprintln(p.w, "timestamp,frame,section,delta_ms")
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	p.frame++
	p.start = p.now()
	p.last = p.start
}

// markSection records the time since the previous mark.
func (p *profiler) markSection(name string) {
	if p == nil {
		return
	}
	now := p.now()
	p.row(now, name, now.Sub(p.last))
	p.last = now
}

// endFrame records the whole frame and flushes.
func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	now := p.now()
	p.row(now, "frame_total", now.Sub(p.start))
	_ = p.w.Flush()
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	if err := p.w.Flush(); err != nil {
		p.c.Close()
		return err
	}
	return p.c.Close()
}

func (p *profiler) row(at time.Time, section string, d time.Duration) {
	fmt.Fprintf(p.w, "%s,%d,%s,%.3f\n", at.Format(time.RFC3339Nano), p.frame, section, d.Seconds()*1000)
}
