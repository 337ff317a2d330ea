// Command reason consults files of clauses and answers queries about them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brunokim/reason/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	style      string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "reason",
	Short: "Horn-clause solver backed by a Warren Abstract Machine",
	Long: `reason reads clauses from files and answers queries over them.

By default, clauses are compiled into WAM bytecode. Use --solver=backward to
resolve queries by walking the clauses directly, or --solver=forward to derive
facts until ground queries are proven.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if style != "" {
			cfg.Solver.Style = style
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		logger, err = cfg.NewLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Answer the queries in files, or the one given with --query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQueries,
}

var replCmd = &cobra.Command{
	Use:   "repl [FILE...]",
	Short: "Read queries interactively",
	RunE:  runREPL,
}

var compileCmd = &cobra.Command{
	Use:   "compile FILE...",
	Short: "Print the bytecode listing of the clauses in files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Print the clauses and queries in files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "reason.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&style, "solver", "", "Solver style: bytecode, backward or forward (default from config)")

	runCmd.Flags().StringP("query", "q", "", "Query to answer instead of the ones in files")
	runCmd.Flags().IntP("limit", "n", 0, "Maximum number of solutions per query, 0 for all")

	replCmd.Flags().String("history", "", "History file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
