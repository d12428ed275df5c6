package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealscope/dealscope/annotate"
	"github.com/dealscope/dealscope/layout"
	"github.com/dealscope/dealscope/overlay"
	"github.com/dealscope/dealscope/settings"
)

func handleWatch(settingsPath, layoutPath string, args []string) {
	flags := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := flags.Duration("interval", annotate.DefaultPollInterval, "document poll interval")
	debounce := flags.Duration("debounce", annotate.DefaultDebounce, "trigger debounce delay")
	flags.Parse(args)

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: watch requires exactly one HTML file")
		os.Exit(1)
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

	source := annotate.NewFileSource(flags.Arg(0))
	controller := annotate.NewController(source, store, overlay.New(), profile, annotate.ControllerConfig{
		Debounce: *debounce,
	})
	watcher := annotate.NewWatcher(source, controller.Notify, *interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		fmt.Println("Shutting down...")
		cancel()
		controller.Stop()
	}()

	go watcher.Run(ctx)

	if err := controller.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Give the watcher goroutine a moment to observe the cancellation.
	time.Sleep(50 * time.Millisecond)
}
