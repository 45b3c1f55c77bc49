// Package main provides the interactive library circulation shell.
//
// Usage:
//
//	library [-data-path ~/Circulation] [-log-level info] [-search-enabled true]
//	library [flags] restore <backup.zip>
//	library [flags] verify <backup.zip>
//
// Without a subcommand, commands are read one per line from stdin; type
// "help" for the list. restore replaces the stored library with an archive
// before anything is loaded; verify checks an archive without writing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/samber/do/v2"

	"github.com/listenupapp/circulation/internal/backup"
	"github.com/listenupapp/circulation/internal/config"
	"github.com/listenupapp/circulation/internal/di"
	"github.com/listenupapp/circulation/internal/domain"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer(cfg)

	if len(cfg.Args) > 0 {
		code := runCommand(ctx, injector, cfg.Args)
		_ = injector.Shutdown()
		os.Exit(code)
	}

	svc, err := di.Bootstrap(ctx, injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open library: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*slog.Logger](injector)

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	shell := NewShell(svc, os.Stdout, domain.Today).WithBackups(do.MustInvoke[*backup.Service](injector))
	if err := shell.Run(ctx, os.Stdin, interactive); err != nil {
		log.Error("Shell stopped", "error", err)
	}

	log.Info("Closing library...")
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}
}

// runCommand runs a one-shot subcommand and returns the exit code.
func runCommand(ctx context.Context, injector do.Injector, args []string) int {
	if len(args) != 2 || (args[0] != "restore" && args[0] != "verify") {
		fmt.Fprintf(os.Stderr, "Unknown command %q; expected restore <file> or verify <file>\n", strings.Join(args, " "))
		return 2
	}

	backups, err := do.Invoke[*backup.Service](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open library: %v\n", err)
		return 1
	}

	result, err := backups.Restore(ctx, args[1], backup.RestoreOptions{DryRun: args[0] == "verify"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", args[0], err)
		return 1
	}

	counts := result.Manifest.Counts
	verb := "Restored"
	if result.DryRun {
		verb = "Verified"
	}
	fmt.Printf("%s %d books, %d loans and %d preference sets from %s.\n",
		verb, counts.Books, counts.Loans, counts.Preferences, args[1])
	return 0
}
