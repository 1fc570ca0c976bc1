package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/vic/goabsal/pkg/inet"
	"github.com/vic/goabsal/pkg/lambda"
)

const (
	historyFile = ".absal_history"
	promptMain  = "λ> "
)

const replHelp = `Enter a term to reduce it. Other inputs:
  $name term      define name for the following inputs
  :defs           list definitions
  :strategy NAME  switch to lazy, fifo or lifo
  :budget N       set the rewrite budget (0 means no limit)
  :quit           leave
`

// session holds the REPL state between lines.
type session struct {
	cfg    config
	defs   []string
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func runREPL(cfg config, stdout, stderr io.Writer, log *slog.Logger) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{cfg: cfg, stdout: stdout, stderr: stderr, log: log}
	fmt.Fprintf(stdout, "absal %s, :help for help\n", version)
	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(stdout)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if s.handle(line) {
			return nil
		}
	}
}

// handle processes one input line and reports whether the session ends.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}
	if strings.HasPrefix(line, "$") {
		// a definition without a body; check it parses with a trivial one
		if _, err := lambda.Parse(line + " λx.x"); err != nil {
			fmt.Fprintf(s.stderr, "error: %v\n", err)
			return false
		}
		s.defs = append(s.defs, line)
		return false
	}

	src := strings.Join(append(append([]string{}, s.defs...), line), "\n")
	if err := evaluate(src, s.cfg, s.stdout, s.stderr, s.log); err != nil {
		fmt.Fprintf(s.stderr, "error: %v\n", err)
	}
	return false
}

func (s *session) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(s.stdout, replHelp)
	case ":defs":
		for _, d := range s.defs {
			fmt.Fprintln(s.stdout, d)
		}
	case ":strategy":
		if len(fields) != 2 {
			fmt.Fprintf(s.stdout, "strategy: %s\n", s.cfg.strategy)
			break
		}
		st, err := inet.ParseStrategy(fields[1])
		if err != nil {
			fmt.Fprintf(s.stderr, "error: %v\n", err)
			break
		}
		s.cfg.strategy = st
	case ":budget":
		var n uint64
		if len(fields) != 2 {
			fmt.Fprintf(s.stdout, "budget: %d\n", s.cfg.budget)
			break
		}
		if _, err := fmt.Sscan(fields[1], &n); err != nil {
			fmt.Fprintf(s.stderr, "error: bad budget %q\n", fields[1])
			break
		}
		s.cfg.budget = n
	default:
		fmt.Fprintf(s.stderr, "unknown command %s, :help for help\n", fields[0])
	}
	return false
}
