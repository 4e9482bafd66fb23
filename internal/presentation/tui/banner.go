package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the weft banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.Profile
	lines := []struct{ text, color string }{
		{"                  __ _   ", "#818cf8"},
		{" __      _____  / _| |_ ", "#a78bfa"},
		{" \\ \\ /\\ / / _ \\| |_| __|", "#c084fc"},
		{"  \\ V  V /  __/|  _| |_ ", "#e879f9"},
		{"   \\_/\\_/ \\___||_|  \\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
