// Command reelsmithd runs the reelsmith pipeline daemon in the foreground.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"reelsmith/internal/config"
	"reelsmith/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reelsmithd: load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "reelsmithd: ensure directories: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "reelsmithd: %v\n", err)
		os.Exit(1)
	}
}
