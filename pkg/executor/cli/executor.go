// Package cli provides an interactive terminal front end for the browsing
// tools.
//
// Each input line is one command:
//
//	search <query>          run a web search
//	open [id|url] [loc]     follow a link, open a URL or scroll the current page
//	scroll <loc>            show the current page from line loc
//	source                  show the source of the current page
//	find <text>             find text on the current page
//	regex <expr>            find a regular expression on the current page
//	help                    list the commands
//	exit                    leave
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/entrhq/pagewise/pkg/logging"
	"github.com/entrhq/pagewise/pkg/toolerr"
	"github.com/entrhq/pagewise/pkg/tools"
)

// ToolSource looks up tools by name.
type ToolSource interface {
	Lookup(name string) (tools.Tool, bool)
}

// Executor reads commands from a terminal and runs them against the browsing
// tools.
type Executor struct {
	tools  ToolSource
	reader *bufio.Reader
	writer io.Writer
	logger *logging.Logger
	prompt string
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithReader sets a custom input reader (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// WithLogger sets the logger for executed commands.
func WithLogger(l *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates a new CLI executor over the given tools.
func NewExecutor(source ToolSource, opts ...ExecutorOption) *Executor {
	e := &Executor{
		tools:  source,
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
		logger: logging.Discard(),
		prompt: "> ",
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run reads and executes commands until exit, end of input or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	fmt.Fprintln(e.writer, "pagewise")
	fmt.Fprintln(e.writer, "Type 'help' for commands, 'exit' or 'quit' to leave.")
	fmt.Fprintln(e.writer)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(e.writer, e.prompt)
		input, err := e.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		input = strings.TrimSpace(input)
		switch input {
		case "exit", "quit":
			return nil
		case "":
		case "help":
			e.printHelp()
		default:
			e.execute(ctx, input)
		}

		if eof {
			fmt.Fprintln(e.writer)
			return nil
		}
	}
}

func (e *Executor) execute(ctx context.Context, input string) {
	name, args, err := ParseCommand(input)
	if err != nil {
		fmt.Fprintf(e.writer, "❌ %v\n", err)
		return
	}

	tool, ok := e.tools.Lookup(name)
	if !ok {
		fmt.Fprintf(e.writer, "❌ Tool %s is not available\n", name)
		return
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		fmt.Fprintf(e.writer, "❌ %v\n", err)
		return
	}

	e.logger.Debugf("executing %s %s", name, argsJSON)
	output, _, err := tool.Execute(ctx, argsJSON)
	if err != nil {
		e.logger.Warnf("%s failed: %v", name, err)
		fmt.Fprintf(e.writer, "❌ Error: %s\n", toolerr.Display(err))
		return
	}
	fmt.Fprintln(e.writer, output)
}

func (e *Executor) printHelp() {
	fmt.Fprintln(e.writer, `Commands:
  search <query>        run a web search
  open [id|url] [loc]   follow a link, open a URL or reload the current page
  scroll <loc>          show the current page from line loc
  source                show the source of the current page
  find <text>           find text on the current page
  regex <expr>          find a regular expression, e.g. /go(lang)?/i
  exit                  leave`)
}

// ParseCommand turns one input line into a tool name and its arguments.
func ParseCommand(input string) (string, map[string]interface{}, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	rest = strings.TrimSpace(rest)
	args := make(map[string]interface{})

	switch strings.ToLower(verb) {
	case "search":
		if rest == "" {
			return "", nil, fmt.Errorf("usage: search <query>")
		}
		args["query"] = rest
		return "browser_search", args, nil

	case "open":
		fields := strings.Fields(rest)
		if len(fields) > 2 {
			return "", nil, fmt.Errorf("usage: open [id|url] [loc]")
		}
		if len(fields) > 0 {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				args["id"] = n
			} else {
				args["id"] = fields[0]
			}
		}
		if len(fields) == 2 {
			loc, err := strconv.Atoi(fields[1])
			if err != nil {
				return "", nil, fmt.Errorf("usage: open [id|url] [loc]: loc must be a number")
			}
			args["loc"] = loc
		}
		return "browser_open", args, nil

	case "scroll":
		loc, err := strconv.Atoi(rest)
		if err != nil {
			return "", nil, fmt.Errorf("usage: scroll <loc>")
		}
		args["loc"] = loc
		return "browser_open", args, nil

	case "source":
		args["view_source"] = true
		return "browser_open", args, nil

	case "find":
		if rest == "" {
			return "", nil, fmt.Errorf("usage: find <text>")
		}
		args["pattern"] = rest
		return "browser_find", args, nil

	case "regex":
		if rest == "" {
			return "", nil, fmt.Errorf("usage: regex <expr>")
		}
		args["regex"] = rest
		return "browser_find", args, nil

	default:
		return "", nil, fmt.Errorf("unknown command %q, type 'help' for commands", verb)
	}
}
