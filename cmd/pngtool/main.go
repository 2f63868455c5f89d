// Command pngtool inspects and round-trips PNG files.
//
//	pngtool open <path>        parse a file and print its metadata
//	pngtool save <in> <out>    parse a file and re-encode it
//
// The exit code is 0 on success and non-zero on any parse error.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rasterhaus/png"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s open <path> | save <in> <out>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "open":
		err = open(args[1])
	case "save":
		if len(args) < 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = save(args[1], args[2])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pngtool: %+v\n", err)
		os.Exit(1)
	}
}

func open(path string) error {
	p, err := png.Open(path)
	if err != nil {
		return err
	}

	w, h := p.Dimensions()
	fmt.Printf("%s: %dx%d %s, %d-bit, %d byte(s) per pixel\n",
		path, w, h, p.Header.ColorType, p.Header.BitDepth, p.BPP())

	if plte, err := p.Palette(); err == nil {
		fmt.Printf("palette: %d entries\n", len(plte.Entries))
	}
	if dpi, ok := p.DPI(); ok {
		fmt.Printf("resolution: %dx%d dpi\n", dpi.X, dpi.Y)
	}
	if g := p.Ancillary.Gamma; g != nil {
		fmt.Printf("gamma: %.5f\n", float64(g.Gamma)/100000)
	}
	if t := p.Ancillary.LastModified; t != nil {
		fmt.Printf("last modified: %s\n", t.Time().Format("2006-01-02 15:04:05 UTC"))
	}
	for _, entry := range p.Ancillary.Text {
		fmt.Printf("%s %q: %q\n", entry.Kind, entry.Keyword, entry.Text)
	}
	for _, u := range p.Unrecognized {
		fmt.Printf("unrecognized chunk %q (%d bytes)\n", u.ChunkType, len(u.Data))
	}
	return nil
}

func save(in, out string) error {
	p, err := png.Open(in)
	if err != nil {
		return err
	}
	return p.Save(out)
}
