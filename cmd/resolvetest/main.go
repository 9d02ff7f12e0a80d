// Command resolvetest runs the extraction pipeline over recorded OCR payloads
// and prints the resolved receipt. It reads a JSON array of payloads from the
// file named on the command line, or from stdin.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/KenCariquitan/Receipt-Spendle/internal/brands"
	"github.com/KenCariquitan/Receipt-Spendle/internal/logger"
	"github.com/KenCariquitan/Receipt-Spendle/internal/receipt"
	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

func main() {
	fs := ff.NewFlagSet("resolvetest")
	var (
		brandsPath = fs.StringLong("brands", "", "JSON file extending the built-in brand dictionary")
		compact    = fs.BoolLong("compact", "Print the result on one line")
		logLevel   = fs.StringLong("log-level", "warn", "Log level: debug, info, warn or error")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("SPENDLE")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	logger.Init(os.Stderr, *logLevel, "text")

	if err := run(fs.GetArgs(), *brandsPath, *compact, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, brandsPath string, compact bool, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening payloads: %w", err)
		}
		defer f.Close()
		in = f
	}

	var payloads []scanning.Payload
	if err := json.NewDecoder(in).Decode(&payloads); err != nil {
		return fmt.Errorf("decoding payloads: %w", err)
	}
	for i := range payloads {
		payloads[i].OK = payloads[i].Error == ""
	}

	matcher := brands.NewMatcher(nil, 0)
	if brandsPath != "" {
		f, err := os.Open(brandsPath)
		if err != nil {
			return fmt.Errorf("opening brand dictionary: %w", err)
		}
		defer f.Close()
		dict, err := brands.LoadDictionary(f)
		if err != nil {
			return err
		}
		matcher = brands.NewMatcher(dict, 0)
	}

	service := receipt.NewService(nil, nil, receipt.Options{Matcher: matcher})
	res := service.ResolvePayloads(context.Background(), payloads)

	enc := json.NewEncoder(stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
