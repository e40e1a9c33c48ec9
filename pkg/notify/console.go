package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cfoust/dipwatch/pkg/diff"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	CONSOLE_TIME_FORMAT = "2006-01-02T15:04"

	bold  = "\x1b[1m"
	reset = "\x1b[0m"
)

// Console prints diffs, personal ones included, under a timestamp.
type Console struct {
	Out   io.Writer
	Now   func() time.Time
	Color bool
}

func NewConsole() *Console {
	return &Console{
		Out:   colorable.NewColorableStdout(),
		Now:   time.Now,
		Color: isatty.IsTerminal(os.Stdout.Fd()),
	}
}

func (c *Console) Deliver(ctx context.Context, diffs []diff.Diff) error {
	if len(diffs) == 0 {
		return nil
	}

	timestamp := c.Now().Truncate(time.Minute).Format(CONSOLE_TIME_FORMAT)
	if c.Color {
		timestamp = bold + timestamp + reset
	}

	var builder strings.Builder
	builder.WriteString("\n")
	builder.WriteString(timestamp)
	builder.WriteString("\n")
	for _, d := range diffs {
		fmt.Fprintf(&builder, "- %s\n", d)
	}

	_, err := io.WriteString(c.Out, builder.String())
	return err
}

var _ Sink = (*Console)(nil)
