package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Console is a human oriented slog handler: a colored level tag, the
// message and the attributes as key=value pairs, one record per line.
type Console struct {
	mu     *sync.Mutex
	w      io.Writer
	out    *termenv.Output
	level  slog.Leveler
	prefix string
	attrs  string
}

// NewConsole builds a console logger. Colors are only emitted when w is a terminal.
func NewConsole(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewConsoleHandler(w, level))
}

// NewConsoleHandler builds the handler behind NewConsole.
func NewConsoleHandler(w io.Writer, level slog.Leveler) *Console {
	profile := termenv.Ascii
	if IsTerminal(w) {
		profile = termenv.EnvColorProfile()
	}
	return &Console{
		mu:    &sync.Mutex{},
		w:     w,
		out:   termenv.NewOutput(w, termenv.WithProfile(profile)),
		level: level,
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *Console) Enabled(_ context.Context, l slog.Level) bool {
	return l >= c.level.Level()
}

func (c *Console) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(c.tag(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(c.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, c.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write(buf.Bytes())
	return err
}

func (c *Console) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	for _, a := range attrs {
		writeAttr(&buf, c.prefix, a)
	}
	clone := *c
	clone.attrs = c.attrs + buf.String()
	return &clone
}

func (c *Console) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	clone := *c
	clone.prefix = c.prefix + name + "."
	return &clone
}

func (c *Console) tag(l slog.Level) string {
	name := fmt.Sprintf("%-7s", LevelName(l))
	var color string
	switch {
	case l >= slog.LevelError:
		color = "1"
	case l >= slog.LevelWarn:
		color = "3"
	case l == LevelSuccess:
		color = "2"
	case l >= slog.LevelInfo:
		color = "6"
	default:
		return c.out.String(name).Faint().String()
	}
	return c.out.String(name).Foreground(c.out.Color(color)).String()
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, prefix+a.Key+".", ga)
		}
		return
	}
	key := prefix + a.Key
	if key == "error" {
		key = "err"
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(buf, " %s=%s", key, val)
}
