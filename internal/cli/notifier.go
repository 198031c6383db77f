package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/skydrive/internal/notify"
)

// ConsoleNotifier prints notifications as colored one-liners. Writes from
// concurrent upload tasks are serialised.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Notify(_ context.Context, msg notify.Notification) {
	var tag string
	switch msg.Level {
	case notify.LevelSuccess:
		tag = color.New(color.FgGreen, color.Bold).Sprint("[ok]")
	case notify.LevelError:
		tag = color.New(color.FgRed, color.Bold).Sprint("[error]")
	default:
		tag = color.New(color.FgCyan).Sprint("[info]")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", tag, msg.Message)
}
