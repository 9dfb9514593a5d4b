package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/schema"
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to YAML schema file")
		encodeFile  = flag.String("encode", "", "YAML value file to encode")
		decodeHex   = flag.String("decode", "", "Hex message to decode")
		channel     = flag.Int("channel", -1, "Channel byte prefixed to each message (0-255)")
		align       = flag.Bool("align", false, "Align integer array blocks")
		color       = flag.String("color", "auto", "Styled output: auto, always or never")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: layout -schema <file.yaml> [-channel n] [-align]")
		fmt.Fprintln(os.Stderr, "       layout -schema <file.yaml> -encode <value.yaml>")
		fmt.Fprintln(os.Stderr, "       layout -schema <file.yaml> -decode <hex>")
		fmt.Fprintln(os.Stderr, "       layout -schema <file.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	cfg := config{schemaFile: *schemaFile, channel: *channel, align: *align}
	c, err := cfg.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(cfg.schemaFile, c); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	st := newStyles(useColor(*color))
	switch {
	case *encodeFile != "":
		err = runEncode(c, *encodeFile, st)
	case *decodeHex != "":
		err = runDecode(c, *decodeHex, st)
	default:
		fmt.Print(renderLayout(cfg.schemaFile, c, st))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	schemaFile string
	channel    int
	align      bool
}

func (cfg config) options() ([]codec.Option, error) {
	var opts []codec.Option
	if cfg.channel >= 0 {
		if cfg.channel > 0xFF {
			return nil, fmt.Errorf("channel %d out of range", cfg.channel)
		}
		opts = append(opts, codec.WithChannel(uint8(cfg.channel)))
	}
	if cfg.align {
		opts = append(opts, codec.WithAlignedArrays())
	}
	return opts, nil
}

func (cfg config) load() (*codec.Codec, error) {
	data, err := os.ReadFile(cfg.schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	def, err := schema.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	return codec.New(def, opts...)
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func runEncode(c *codec.Codec, file string, st styles) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read value: %w", err)
	}
	res := roundTrip(c, string(data))
	fmt.Print(renderResult(res, st))
	return res.err
}

func runDecode(c *codec.Codec, s string, st styles) error {
	buf, err := hex.DecodeString(strings.ReplaceAll(strings.TrimPrefix(s, "0x"), " ", ""))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	rec, err := c.Decode(buf)
	if err != nil {
		return err
	}
	out, err := formatValue(rec)
	if err != nil {
		return err
	}
	fmt.Print(st.ok.Render(out))
	return nil
}
