package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dealscope/dealscope/annotate"
	"github.com/dealscope/dealscope/layout"
	"github.com/dealscope/dealscope/overlay"
	"github.com/dealscope/dealscope/settings"
)

func handleAnnotate(settingsPath, layoutPath string, args []string) {
	flags := flag.NewFlagSet("annotate", flag.ExitOnError)
	output := flags.String("o", "", "write annotated HTML to this path (default: annotate in place)")
	flags.Parse(args)

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: annotate requires exactly one HTML file")
		os.Exit(1)
	}
	input := flags.Arg(0)

	target := input
	if *output != "" {
		if err := copyFile(input, *output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		target = *output
	}

	profile, err := layout.Load(layoutPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := settings.NewStore(settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open settings store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	controller := annotate.NewController(
		annotate.NewFileSource(target),
		store,
		overlay.New(),
		profile,
		annotate.ControllerConfig{},
	)

	reports, err := controller.RunOnce("cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: pass failed: %v\n", err)
		os.Exit(1)
	}

	printReports(os.Stdout, reports)
	fmt.Printf("Annotated %d listing unit(s) -> %s\n", len(reports), target)
}

// copyFile copies src to dst, truncating dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return nil
}
