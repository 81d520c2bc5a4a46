package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zakazai/flatdb/internal/engine"
)

func (a *app) newExecCmd() *cobra.Command {
	var scriptFile string
	var stopOnError bool

	cmd := &cobra.Command{
		Use:   "exec [statement...]",
		Short: "Run statements given as arguments or read from a script",
		Long: `Run statements one after the other. Each argument is one statement.
With --file, the script holds one statement per line; blank lines and lines
starting with -- are skipped. Use --file - to read the script from stdin.`,
		Example: `  flatdb exec "CREATE TABLE stud (name, surname, age)" "INSERT INTO stud VALUES (Louis, Jeanneau, 22)"
  flatdb exec --file seed.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			statements := args
			if scriptFile != "" {
				script, err := readScript(cmd, scriptFile)
				if err != nil {
					return err
				}
				statements = append(statements, script...)
			}
			if len(statements) == 0 {
				return fmt.Errorf("no statements to run")
			}

			e, err := a.openEngine(lineConfirm(cmd.InOrStdin(), cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			failed := runStatements(e, statements, cmd.OutOrStdout(), cmd.ErrOrStderr(), stopOnError)
			if failed > 0 {
				return fmt.Errorf("%d of %d statement(s) failed", failed, len(statements))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptFile, "file", "f", "", "script file, one statement per line")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first failing statement")
	return cmd
}

func readScript(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	return parseScript(r)
}

// parseScript returns the statements of a script, one per non-blank,
// non-comment line.
func parseScript(r io.Reader) ([]string, error) {
	var statements []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		statements = append(statements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return statements, nil
}

// runStatements executes each statement and renders its outcome. It returns
// the number of statements that failed.
func runStatements(e *engine.Engine, statements []string, out, errOut io.Writer, stopOnError bool) int {
	failed := 0
	for _, stmt := range statements {
		o := e.Execute(stmt)
		renderOutcome(out, errOut, o)
		if o.Failed() {
			failed++
			if stopOnError {
				break
			}
		}
	}
	return failed
}

// lineConfirm asks on errOut and reads the answer as one line from in.
// Anything but y or yes is a refusal, including end of input.
func lineConfirm(in io.Reader, errOut io.Writer) engine.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		_, _ = fmt.Fprintf(errOut, "%s [y/N] ", prompt)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		return isYes(answer)
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
