package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/wam/compiler"
)

func formatGoals(goals []logic.Literal) string {
	parts := make([]string, len(goals))
	for i, goal := range goals {
		parts[i] = goal.String()
	}
	return strings.Join(parts, ", ")
}

func runQueries(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	s := newSession()
	if err := s.consult(ctx, args); err != nil {
		return err
	}
	queries := s.prog.Queries
	if query != "" {
		goals, err := s.parser.ParseQuery(query)
		if err != nil {
			return fmt.Errorf("--query: %w", err)
		}
		queries = [][]logic.Literal{goals}
	}
	if len(queries) == 0 {
		logger.Warn("no queries to answer", zap.Strings("files", args))
		return nil
	}
	sv, closeTrace, err := s.newSolver(ctx)
	if err != nil {
		return err
	}
	defer closeTrace()
	w := cmd.OutOrStdout()
	for _, goals := range queries {
		fmt.Fprintf(w, "?- %s.\n", formatGoals(goals))
		if err := answer(ctx, w, sv, goals, limit); err != nil {
			return err
		}
	}
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	s := newSession()
	if err := s.consult(cmd.Context(), args); err != nil {
		return err
	}
	prog, err := compiler.Compile(s.prog.Clauses)
	if err != nil {
		return err
	}
	logger.Debug("compiled",
		zap.Int("instructions", len(prog.Code)),
		zap.Int("registers", prog.NumRegisters))
	fmt.Fprint(cmd.OutOrStdout(), prog.Listing())
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	s := newSession()
	if err := s.consult(cmd.Context(), args); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, c := range s.prog.Clauses {
		fmt.Fprintln(w, c)
	}
	for _, goals := range s.prog.Queries {
		fmt.Fprintf(w, "?- %s.\n", formatGoals(goals))
	}
	return nil
}
