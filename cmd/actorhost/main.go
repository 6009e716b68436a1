// Command actorhost runs one actor program to quiescence.
//
// Usage: actorhost <script_path> [--timeout <seconds>]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"actorhost/internal/build"
	"actorhost/internal/clirun"
	"actorhost/internal/config"
	"actorhost/internal/runtime"
	"actorhost/internal/sandbox"
	"actorhost/scripts"
)

// rawBuildInfo is populated via -ldflags "-X main.rawBuildInfo=...json..." by
// the build system; empty in local/dev builds.
var rawBuildInfo string

func main() {
	timeoutSeconds := flag.Float64("timeout", 0, "wall-clock timeout in seconds (0 disables the timeout)")
	showVersion := flag.Bool("version", false, "print build info and exit")

	script := clirun.New("actorhost")

	script.Run(func(ctx context.Context) error {
		if *showVersion {
			printVersion()

			return clirun.Exit(runtime.ExitQuiescent)
		}

		args := flag.Args()
		if len(args) > 1 {
			// flag stops at the first positional argument; parse what follows the
			// script path so the documented trailing --timeout is honoured.
			if err := flag.CommandLine.Parse(args[1:]); err != nil {
				return clirun.ExitWithError(err)
			}

			args = append([]string{args[0]}, flag.Args()...)
		}

		if len(args) != 1 {
			return clirun.ExitWithErrorMessage("usage: actorhost <script_path> [--timeout <seconds>]")
		}

		scriptRef := args[0]

		if *timeoutSeconds > 0 {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, time.Duration(*timeoutSeconds*float64(time.Second)))
			defer cancel()
		}

		cfg := config.Load(ctx)
		driver := runtime.New(cfg, scripts.Registry(), os.Stdout)

		result, err := driver.Run(ctx, scriptRef)
		if err != nil && !errors.Is(err, sandbox.ErrMissingEntry) {
			return fmt.Errorf("%w: %w", clirun.Exit(result.ExitCode), err)
		}

		return clirun.Exit(result.ExitCode)
	})
}

func printVersion() {
	info, ok := build.Parse(rawBuildInfo)
	if !ok {
		fmt.Println("actorhost: development build")

		return
	}

	fmt.Printf("actorhost %s (%s, built %s)\n", info.GitCommit, info.GitBranch, info.BuildTime)
}
