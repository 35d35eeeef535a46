package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	finparse "github.com/RxDataLab/go-finparse"
)

func main() {
	var (
		formatHint string
		outputPath string
		withRatios bool
	)

	flag.StringVar(&formatHint, "format", "", "Format hint: html, txt, or pdf (default: detect from extension and content)")
	flag.StringVar(&formatHint, "f", "", "Format hint (shorthand)")
	flag.StringVar(&outputPath, "output", "", "Output JSON file path (default: stdout)")
	flag.StringVar(&outputPath, "o", "", "Output JSON file path (shorthand)")
	flag.BoolVar(&withRatios, "ratios", true, "Compute derived ratios")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: finparse [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Extract financial metrics from a filing document.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  <file>    Path to a filing (HTML, plain text, or PDF)\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  finparse ./10k.htm\n")
		fmt.Fprintf(os.Stderr, "  finparse -f txt -o metrics.json ./filing.txt\n")
	}

	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: file path required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), formatHint, outputPath, withRatios); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// output is the CLI's JSON envelope.
type output struct {
	Label       string                     `json:"label"`
	Format      string                     `json:"format"`
	Metrics     []finparse.ExtractedMetric `json:"metrics"`
	Segments    []finparse.SegmentRevenue  `json:"segments,omitempty"`
	Notes       []string                   `json:"notes,omitempty"`
	Ratios      []finparse.DerivedRatio    `json:"ratios,omitempty"`
	Diagnostics finparse.Diagnostics       `json:"diagnostics"`
}

func run(path, formatHint, outputPath string, withRatios bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	hint := formatHint
	if hint == "" {
		hint = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	fmt.Fprintf(os.Stderr, "Parsing %s...\n", path)
	result, err := finparse.Parse(data, filepath.Base(path), finparse.FormatHint(hint))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Detected format: %s\n", result.Format)
	fmt.Fprintf(os.Stderr, "Extracted %d metrics (%d tables, %d warnings)\n",
		result.Metrics.Len(), result.Diagnostics.TableCount, len(result.Diagnostics.Warnings))

	out := output{
		Label:       result.Label,
		Format:      result.Format.String(),
		Metrics:     result.Metrics.Metrics(),
		Segments:    result.Metrics.Segments,
		Notes:       result.Metrics.QualitativeNotes,
		Diagnostics: result.Diagnostics,
	}
	if withRatios {
		out.Ratios = finparse.ComputeRatios(result.Metrics)
	}

	encoder := json.NewEncoder(os.Stdout)
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		encoder = json.NewEncoder(f)
	}
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", outputPath)
	}
	return nil
}
