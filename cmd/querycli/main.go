package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"query-tools/internal/auth"
	"query-tools/internal/config"
	"query-tools/internal/persistence"
	"query-tools/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg := config.LoadConfig()

	fileStore, err := persistence.NewFileStore(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}

	manager := store.NewManager(fileStore)
	names, err := fileStore.ListCollections()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
	for _, name := range names {
		if err := fileStore.LoadCollection(name, manager.Get(name)); err != nil {
			slog.Error("Failed to load collection snapshot", "collection", name, "error", err)
		}
	}

	registry := auth.NewRegistry(manager.Get(auth.SystemCollection))
	if err := registry.Bootstrap(cfg.DefaultRootPassword); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}

	session := &Session{
		Manager:  manager,
		Registry: registry,
	}

	// Periodic snapshots so a killed session loses at most one interval.
	stopSnapshots := make(chan struct{})
	if cfg.EnableSnapshots {
		go func() {
			ticker := time.NewTicker(cfg.SnapshotInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					manager.SaveAll()
				case <-stopSnapshots:
					return
				}
			}
		}()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colorPrompt("querytools> "),
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    preLoginCompleter,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to start shell: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()
	session.rl = rl

	fmt.Println(colorInfo("Query Tools shell. Type 'help' for commands, 'login <user>' to authenticate."))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		session.Dispatch(input)
	}

	close(stopSnapshots)
	fmt.Println(colorInfo("Saving collections before exit..."))
	manager.SaveAll()
	manager.Wait()
}
