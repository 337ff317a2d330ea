package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/brunokim/reason/logic"
	"github.com/brunokim/reason/solver"
)

type repl struct {
	rl     *readline.Instance
	solver solver.Solver
	w      io.Writer
}

func runREPL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	history, _ := cmd.Flags().GetString("history")

	s := newSession()
	if err := s.consult(ctx, args); err != nil {
		return err
	}
	sv, closeTrace, err := s.newSolver(ctx)
	if err != nil {
		return err
	}
	defer closeTrace()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "?- ",
		HistoryFile:            history,
		DisableAutoSaveHistory: true,
		Stdout:                 cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	r := &repl{rl: rl, solver: sv, w: cmd.OutOrStdout()}
	for {
		query, err := r.readQuery()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		goals, err := s.parser.ParseQuery(query)
		if err != nil {
			fmt.Fprintln(r.w, err)
			continue
		}
		if err := r.enumerate(ctx, goals); err != nil {
			fmt.Fprintln(r.w, err)
		}
	}
}

// readQuery reads lines until one ends with a period.
func (r *repl) readQuery() (string, error) {
	r.rl.SetPrompt("?- ")
	var lines []string
	for {
		line, err := r.rl.Readline()
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
		if !strings.HasSuffix(line, ".") {
			r.rl.SetPrompt("|  ")
			continue
		}
		break
	}
	query := strings.Join(lines, " ")
	_ = r.rl.SaveHistory(query)
	return query, nil
}

// enumerate prints solutions one at a time, until the user stops or an interrupt.
func (r *repl) enumerate(ctx context.Context, goals []logic.Literal) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	results := r.solver.Query(ctx, goals...)
	for {
		result, ok := <-results
		if !ok {
			if ctx.Err() != nil {
				fmt.Fprintln(r.w, "interrupted.")
			} else {
				fmt.Fprintln(r.w, "false.")
			}
			return nil
		}
		if result.Err != nil {
			return result.Err
		}
		if len(result.Solution) == 0 {
			fmt.Fprint(r.w, "true")
		} else {
			fmt.Fprint(r.w, result.Solution)
		}
		if !r.readNext() {
			fmt.Fprintln(r.w, ".")
			return nil
		}
	}
}

// readNext reads ';' to ask for the next solution, or '.' to stop.
func (r *repl) readNext() bool {
	r.rl.SetPrompt(" ")
	for {
		line, err := r.rl.Readline()
		if err != nil {
			return false
		}
		switch strings.TrimSpace(line) {
		case ";":
			return true
		case ".", "":
			return false
		}
		fmt.Fprintln(r.w, "Expecting '.' or ';'")
	}
}
