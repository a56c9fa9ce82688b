// Command triadic prints the triadic companions of a color, or the mix of
// several colors with --mix.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/saaga0h/paintmix-platform/internal/color"
)

type swatch struct {
	RGB string `json:"rgb"`
	HSL string `json:"hsl"`
	Hex string `json:"hex"`
}

func newSwatch(c color.RGB) swatch {
	return swatch{RGB: c.String(), HSL: c.HSL().String(), Hex: c.Hex()}
}

func main() {
	fs := pflag.NewFlagSet("triadic", pflag.ContinueOnError)
	mix := fs.Bool("mix", false, "Average all given colors instead of printing triadic companions")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: triadic [flags] COLOR [COLOR...]\n\nCOLOR is rgb(r, g, b), hsl(h, s%%, l%%) or #rrggbb.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := run(os.Stdout, fs.Args(), *mix, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string, mix, asJSON bool) error {
	if len(args) == 0 {
		return fmt.Errorf("no color given")
	}

	colors := make([]color.RGB, 0, len(args))
	for _, arg := range args {
		c, err := color.ParseColor(arg)
		if err != nil {
			return err
		}
		colors = append(colors, c)
	}

	var out []swatch
	if mix {
		avg, err := color.AverageRGB(colors)
		if err != nil {
			return err
		}
		out = []swatch{newSwatch(avg)}
	} else {
		if len(colors) != 1 {
			return fmt.Errorf("expected one color, got %d", len(colors))
		}
		out = append(out, newSwatch(colors[0]))
		for _, h := range color.Triadic(colors[0].HSL()) {
			out = append(out, newSwatch(h.RGB()))
		}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, s := range out {
		fmt.Fprintf(w, "%-20s %-24s %s\n", s.RGB, s.HSL, s.Hex)
	}
	return nil
}
