package errors

import (
	stderrors "errors"
	"log/slog"
	"sync"
)

// Collector accumulates best-effort failures so a component can keep going
// and hand the caller a single list to log or count. Safe for concurrent use.
// A nil *Collector ignores Add and reports no errors.
type Collector struct {
	mu   sync.Mutex
	errs []error
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if c == nil || err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Merge appends every error recorded by other.
func (c *Collector) Merge(other *Collector) {
	if c == nil || other == nil {
		return
	}
	for _, err := range other.Errors() {
		c.Add(err)
	}
}

// Len returns the number of recorded errors.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Errors returns a copy of the recorded errors in insertion order.
func (c *Collector) Errors() []error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Count returns how many recorded errors carry code.
func (c *Collector) Count(code string) int {
	n := 0
	for _, err := range c.Errors() {
		if GetCode(err) == code {
			n++
		}
	}
	return n
}

// Err joins all recorded errors, or returns nil if there are none.
func (c *Collector) Err() error {
	return stderrors.Join(c.Errors()...)
}

// Log writes one warning per recorded error.
func (c *Collector) Log(logger *slog.Logger, msg string) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, err := range c.Errors() {
		attrs := make([]any, 0, 8)
		for k, v := range FormatForLog(err) {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.Warn(msg, attrs...)
	}
}
