package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/store"
)

func main() {
	defaultDataDir := "./data"
	if env := os.Getenv("MAGNANIMUS_DATA_DIR"); env != "" {
		defaultDataDir = env
	}

	var (
		dataDir   = flag.String("data-dir", defaultDataDir, "Data directory (games are kept under games/)")
		inputPath = flag.String("input", "games.csv", "Input CSV file, as written by export-games")
	)
	flag.Parse()

	games, err := store.NewGameStore(filepath.Join(*dataDir, "games"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open game store: %v\n", err)
		os.Exit(1)
	}
	games.SetLogger(func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	})
	defer games.Close()

	inFile, err := os.Open(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input file: %v\n", err)
		os.Exit(1)
	}
	defer inFile.Close()

	fmt.Printf("Importing games from %s...\n", *inputPath)
	res, err := games.ImportCSV(inFile, board.NewGeometry())
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDone! Imported %d games (failed %d)\n", res.Imported, res.Failed)
}
