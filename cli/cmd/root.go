// Package cmd is the hldr command tree: a single root command, since the
// original is a one-shot CLI rather than a multi-subcommand tool.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/repr"
	"github.com/crudecomputer/hldr"
	"github.com/crudecomputer/hldr/config"
	"github.com/crudecomputer/hldr/lex"
	"github.com/crudecomputer/hldr/load"
	"github.com/crudecomputer/hldr/parse"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "hldr",
		Short:        "hldr seeds a Postgres database from a declarative data file",
		SilenceUsage: true,
		RunE:         runRoot,
	}

	flagCommit      bool
	flagDataFile    string
	flagDatabaseURL string
	flagSearchPath  string
	flagConfigPath  string
	flagVerbose     bool
	flagDumpTree    bool
)

// Execute registers flags and runs the root command.
func Execute() error {
	rootCmd.Flags().BoolVar(&flagCommit, "commit", false, "commit the transaction instead of rolling it back")
	rootCmd.Flags().StringVarP(&flagDataFile, "data-file", "f", "", "path to the .hldr source file")
	rootCmd.Flags().StringVarP(&flagDatabaseURL, "database-url", "d", "", "Postgres connection string")
	rootCmd.Flags().StringVarP(&flagSearchPath, "search-path", "s", "", "override search_path")
	rootCmd.Flags().StringVarP(&flagConfigPath, "config", "c", "hldr.yaml", "path to a hldr.yaml config file")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "raise log verbosity")
	rootCmd.Flags().BoolVar(&flagDumpTree, "dump-tree", false, "print the parsed tree instead of loading it")
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	if flagVerbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, cerr := config.Load(flagConfigPath)
	if cerr != nil && cerr.Kind != config.ErrNotFound {
		return cerr
	}

	dataFile := firstNonEmpty(flagDataFile, cfg.DataFile)
	if dataFile == "" {
		return fmt.Errorf("no data file given: pass -f or set data_file in %s", flagConfigPath)
	}

	if flagDumpTree {
		return dumpTree(dataFile)
	}

	databaseURL := firstNonEmpty(flagDatabaseURL, cfg.Database.URL)
	if databaseURL == "" {
		return fmt.Errorf("no database URL given: pass -d or set database.url in %s", flagConfigPath)
	}
	searchPath := firstNonEmpty(flagSearchPath, cfg.Database.SearchPath)

	ctx := context.Background()
	conn, err := load.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(ctx) }()

	return hldr.Place(ctx, logger, conn, dataFile, searchPath, flagCommit)
}

// dumpTree parses dataFile without a database connection and prints the
// resulting tree, for inspecting what a source file would insert.
func dumpTree(dataFile string) error {
	text, err := os.ReadFile(dataFile)
	if err != nil {
		return err
	}

	tokens, lerr := lex.Tokenize(string(text))
	if lerr != nil {
		return lerr
	}

	tree, perr := parse.Parse(tokens)
	if perr != nil {
		return perr
	}

	repr.Println(tree)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
