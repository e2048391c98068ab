// Package notify provides the audible cue played on timer mode changes.
package notify

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Bell writes the terminal BEL character.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell returns a Bell writing to out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

// Play rings the bell.
func (b *Bell) Play(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.out.Write([]byte{'\a'}); err != nil {
		return fmt.Errorf("notify: bell: %w", err)
	}
	return nil
}

// Command runs an external player, e.g. "paplay /usr/share/sounds/bell.oga".
type Command struct {
	name string
	args []string
}

// NewCommand splits cmdline on whitespace into a program and its arguments.
func NewCommand(cmdline string) (*Command, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("notify: empty command")
	}
	return &Command{name: fields[0], args: fields[1:]}, nil
}

// Play runs the command and waits for it to exit or for ctx to end.
func (c *Command) Play(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, c.name, c.args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("notify: %s: %w: %s", c.name, err, msg)
		}
		return fmt.Errorf("notify: %s: %w", c.name, err)
	}
	return nil
}

// Silent discards notifications.
type Silent struct{}

// Play does nothing.
func (Silent) Play(context.Context) error { return nil }
