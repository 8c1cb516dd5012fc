// Package cli implements the db admin mini-app: schema init, database
// deletion and a tabular game listing for operators.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"gameserver/internal/server/service"
	"gameserver/internal/server/storage"

	"go.uber.org/zap"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, or query")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(path string) (*storage.Store, error) {
	return storage.NewStore(path, false, zap.NewNop())
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Printf("Database deleted: %s\n", *path)
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	username := fs.String("username", service.AllUsers, "Username to filter (optional, - for all)")
	complete := fs.Bool("complete", false, "Include game data in the listing")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := openStore(*path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	svc := service.New(store, zap.NewNop())
	games, err := svc.ListGames(*complete, *username)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games.Started) == 0 {
		fmt.Println("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tStarted\tLast Played\tData")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for id, started := range games.Started {
		data := "-"
		if d := games.Games[id]; d != nil {
			data = *d
			if len(data) > 32 {
				data = data[:32] + "..."
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", id, started, games.LastPlayed[id], data)
	}
	w.Flush()

	fmt.Printf("\nFound %d game(s)\n", len(games.Started))
	return nil
}
