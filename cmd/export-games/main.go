package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/magnanimus/magnanimus/internal/store"
)

func main() {
	defaultDataDir := "./data"
	if env := os.Getenv("MAGNANIMUS_DATA_DIR"); env != "" {
		defaultDataDir = env
	}

	var (
		dataDir    = flag.String("data-dir", defaultDataDir, "Data directory (games are kept under games/)")
		outputPath = flag.String("output", "games.csv", "Output CSV file (- for stdout)")
		gameID     = flag.String("id", "", "Export only this game")
	)
	flag.Parse()

	games, err := store.NewGameStore(filepath.Join(*dataDir, "games"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open game store: %v\n", err)
		os.Exit(1)
	}
	games.SetLogger(func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	defer games.Close()

	var out io.Writer = os.Stdout
	if *outputPath != "-" {
		outFile, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output file: %v\n", err)
			os.Exit(1)
		}
		defer outFile.Close()
		out = outFile
	}

	if *gameID != "" {
		if err := games.ExportCSV(out, *gameID); err != nil {
			fmt.Fprintf(os.Stderr, "export %s: %v\n", *gameID, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Exported game %s\n", *gameID)
		return
	}

	n, err := games.ExportAll(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Done! Exported %d games from %s\n", n, games.Dir())
}
