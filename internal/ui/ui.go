// Package ui asks the user to resolve reconciliation decisions and tells
// them when the catalog changed.
//
// A Console picks a bubbletea prompt when both ends are terminals and a
// numbered line prompt otherwise (pipes, CI, --plain).
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// ErrNoChoice is returned when input ends before a label is chosen.
var ErrNoChoice = errors.New("no choice made")

// Config configures a Console.
type Config struct {
	Input      io.Reader
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces the line prompt.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// NewConfig creates a Config for the given streams.
func NewConfig(in io.Reader, out io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Input: in, Output: out}
	for _, opt := range opts {
		opt(&cfg)
	}
	if DetectNoColor() {
		cfg.NoColor = true
	}
	return cfg
}

// Prompter asks the user to pick one of a set of labels.
type Prompter interface {
	Choose(ctx context.Context, title string, labels []string) (string, error)
}

// Notifier is told when the catalog was rewritten. It must not block.
type Notifier interface {
	CatalogChanged(summary string)
}

var (
	_ Prompter = (*Console)(nil)
	_ Notifier = (*Console)(nil)
)

// Console prompts on a terminal or plain streams.
type Console struct {
	cfg    Config
	styles Styles

	mu        sync.Mutex
	listeners []func(summary string)
}

// New creates a Console. Output that is not a terminal is never styled.
func New(cfg Config) *Console {
	return &Console{cfg: cfg, styles: GetStyles(cfg.NoColor || !IsTTY(cfg.Output))}
}

// OnCatalogChanged registers fn to run after every catalog change notice.
func (c *Console) OnCatalogChanged(fn func(summary string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Interactive reports whether Choose will use the terminal prompt.
func (c *Console) Interactive() bool {
	if c.cfg.ForcePlain || DetectCI() {
		return false
	}
	return IsTTY(c.cfg.Output) && isTTYReader(c.cfg.Input)
}

// Choose asks the user to pick one of labels and returns it.
func (c *Console) Choose(ctx context.Context, title string, labels []string) (string, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("choose %q: no options", title)
	}
	if c.Interactive() {
		return runChoice(ctx, c.cfg, c.styles, title, labels)
	}
	return plainChoose(ctx, c.cfg.Input, c.cfg.Output, title, labels)
}

// CatalogChanged prints the change summary and notifies listeners.
func (c *Console) CatalogChanged(summary string) {
	if c.cfg.Output != nil {
		_, _ = fmt.Fprintln(c.cfg.Output, c.styles.Notice.Render("Catalog updated: "+summary))
	}
	c.mu.Lock()
	listeners := append([]func(string){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(summary)
	}
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func isTTYReader(r io.Reader) bool {
	if f, ok := r.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
