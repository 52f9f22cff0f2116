// Package notify delivers urgent alerts outside the alert list: a terminal
// bell, a log line, or both.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"wildwatch-sim/internal/alert"
)

// Bell rings the terminal bell for each urgent alert.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell returns a Bell on STDERR, or nil when STDERR is not a terminal.
func NewBell() *Bell {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return &Bell{out: os.Stderr}
}

// NewBellTo writes the bell to w.
func NewBellTo(w io.Writer) *Bell { return &Bell{out: w} }

func (b *Bell) OnHighPriorityAlert(alert.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = io.WriteString(b.out, "\a")
}

// Log writes urgent alerts as warnings.
type Log struct {
	Logger *slog.Logger
}

func (l Log) OnHighPriorityAlert(a alert.Alert) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Warn("urgent alert",
		"id", a.ID,
		"type", a.Type,
		"priority", a.Priority,
		"title", a.Title,
		"location", fmt.Sprintf("%.4f,%.4f", a.Location.Lat, a.Location.Lon),
	)
}

// Multi fans an alert out to several notifiers in order. Nil entries are
// skipped.
type Multi []alert.Notifier

// NewMulti drops nil notifiers. It returns nil when none are left.
func NewMulti(ns ...alert.Notifier) alert.Notifier {
	var out Multi
	for _, n := range ns {
		if n == nil {
			continue
		}
		if b, ok := n.(*Bell); ok && b == nil {
			continue
		}
		out = append(out, n)
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (m Multi) OnHighPriorityAlert(a alert.Alert) {
	for _, n := range m {
		n.OnHighPriorityAlert(a)
	}
}
