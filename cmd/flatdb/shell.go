package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/zakazai/flatdb/internal/engine"
)

const shellPrompt = "flatdb> "

func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start the interactive shell. Each line is one statement. Lines starting
with a dot are shell commands; type .help to list them.

When stdin is not a terminal, statements are read from it line by line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
	}
}

func (a *app) runShell(cmd *cobra.Command) error {
	if !isTerminal(cmd.InOrStdin()) {
		return a.runPiped(cmd)
	}

	var e *engine.Engine
	tableNames := func(string) []string {
		if e == nil {
			return nil
		}
		return e.Tables()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newCompleter(tableNames),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	e, err = a.openEngine(readlineConfirm(rl))
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(out, "FlatDB %s (data: %s, %d tables)\n", Version, a.cfg.DataDir, len(e.Tables()))
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(e, line, out, errOut); quit {
				break
			}
			continue
		}

		renderOutcome(out, errOut, e.Execute(line))
	}

	_, _ = fmt.Fprintln(out, "Goodbye!")
	return nil
}

// runPiped runs statements read from a non-interactive stdin. Confirmations
// are refused unless assume_yes is set, since stdin carries the statements.
func (a *app) runPiped(cmd *cobra.Command) error {
	statements, err := parseScript(cmd.InOrStdin())
	if err != nil {
		return err
	}

	e, err := a.openEngine(nil)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if failed := runStatements(e, statements, cmd.OutOrStdout(), cmd.ErrOrStderr(), false); failed > 0 {
		return fmt.Errorf("%d of %d statement(s) failed", failed, len(statements))
	}
	return nil
}

func handleDotCommand(e *engine.Engine, line string, out, errOut io.Writer) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(out)

	case ".tables":
		renderTableList(out, e)

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .schema <table>")
			return false
		}
		desc, err := e.Describe(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(out, desc)

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List all tables
  .schema <name>  Show the columns of a table
  .quit / .exit   Exit the shell

Statements (keywords are upper case, one statement per line):
  CREATE TABLE <name> (<col>, ...)
  INSERT INTO <name> VALUES (<v>, ...)[, (<v>, ...)]
  UPDATE <name> SET <col> = '<v>'[, ...] [WHERE <col> = '<v>' [AND ...]]
  DELETE FROM <name> [WHERE ...]
  SELECT <cols|*> FROM <name>[, <name>...] [WHERE ...] [GROUP BY <cols>]
`
	_, _ = fmt.Fprintln(w, help)
}

// readlineConfirm prompts through the running shell. The engine only calls
// it from inside Execute, while the shell loop is waiting.
func readlineConfirm(rl *readline.Instance) engine.ConfirmFunc {
	return func(prompt string) bool {
		rl.SetPrompt(prompt + " [y/N] ")
		defer rl.SetPrompt(shellPrompt)

		answer, err := rl.Readline()
		if err != nil {
			return false
		}
		return isYes(answer)
	}
}

// newCompleter completes statement keywords, dot commands and the table
// names currently returned by tables.
func newCompleter(tables readline.DynamicCompleteFunc) *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT", readline.PcItem("INTO", readline.PcItemDynamic(tables))),
		readline.PcItem("UPDATE", readline.PcItemDynamic(tables)),
		readline.PcItem("DELETE", readline.PcItem("FROM", readline.PcItemDynamic(tables))),
		readline.PcItem("CREATE", readline.PcItem("TABLE")),
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", readline.PcItemDynamic(tables)),
		readline.PcItem(".quit"),
	)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flatdb_history")
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func (a *app) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with their columns and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.openEngine(nil)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			renderTableList(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func renderTableList(w io.Writer, e *engine.Engine) {
	names := e.Tables()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		t, _ := e.Table(name)
		rows = append(rows, []string{name, strings.Join(t.Columns, ", "), strconv.Itoa(len(t.Rows))})
	}
	renderTable(w, []string{"table", "columns", "rows"}, rows)
}
