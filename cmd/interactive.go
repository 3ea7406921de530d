package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/bisegni/ixscan/pkg/engine"
)

func RunInteractive(ctx context.Context) error {
	fmt.Println("Interactive mode enabled. Type 'exit' or 'quit' to leave.")
	fmt.Println(`Enter SCAN statements; prefix with "explain" to see the plan.`)
	fmt.Println(`\indexes lists indexes, \params v1 'text v2' N=v3 ... binds $0, $1, ... or $N`)

	executor, err := app.executor()
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ixscan> ",
		HistoryFile:     "", // In-memory history for this session
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var params []string
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit"):
			return nil
		case trimmed == `\indexes`:
			printIndexes(os.Stdout, app.catalog)
			continue
		case strings.HasPrefix(trimmed, `\params`):
			values, err := engine.SplitParams(strings.TrimPrefix(trimmed, `\params`))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			params = values
			fmt.Printf("%d parameter(s) bound\n", len(params))
			continue
		}

		if err := executeInteractive(ctx, executor, trimmed, params); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return nil
}

func executeInteractive(ctx context.Context, executor *engine.Executor, statement string, params []string) error {
	if rest, ok := cutPrefixFold(statement, "explain "); ok {
		out, err := executor.Explain(rest)
		if err != nil {
			return err
		}
		fmt.Println("Execution Plan:")
		fmt.Print(out)
		return nil
	}
	b, err := engine.ParseParams(params)
	if err != nil {
		return err
	}
	_, err = executor.Execute(ctx, statement, b, os.Stdout)
	return err
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}
