package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/session"
)

// editCommand creates the edit command.
func (c *CLI) editCommand() *cobra.Command {
	var (
		script []string
		write  bool
	)

	cmd := &cobra.Command{
		Use:   "edit [workflow.toml]",
		Short: "Edit a workflow interactively",
		Long: `Edit a workflow interactively.

Without --exec a terminal editor lists every node with its place on the
canvas. Nodes can be added, deleted, duplicated, connected and detached;
every edit can be undone.

With --exec the given operations are applied in order and the result is
printed (or written back with -w). Operations:

  add OPCODE [WORKFLOW]          add a node as a new orphan root
  delete ID                      delete a node, splicing its chain
  duplicate ID                   copy a node into a new orphan root
  connect FROM TO                make TO the successor of FROM
  branch FROM LABEL TO           make TO the head of FROM's branch LABEL
  disconnect ID                  detach ID into its own orphan chain
  input ID KEY VALUE             set an input; $name is a variable
  attach ORPHAN TARGET KEY       turn an orphan into a reporter input
  workflow add|delete NAME       add or delete a workflow
  workflow rename FROM TO        rename a workflow
  undo | redo                    step through history`,
		Example: `  flowcanvas edit loop.toml
  flowcanvas edit loop.toml -w --exec "add print" --exec "connect start n1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSource(args[0])
			if err != nil {
				return err
			}
			if len(script) > 0 {
				return c.runScript(cmd.Context(), args[0], text, script, write)
			}
			return c.runEditor(args[0], text)
		},
	}

	cmd.Flags().StringArrayVarP(&script, "exec", "e", nil, "apply an operation instead of opening the editor (repeatable)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "with --exec, write the result back to the file")

	return cmd
}

// newSession creates a session configured from the config file.
func (c *CLI) newSession(logger *log.Logger, opts ...session.Option) *session.Session {
	all := append(c.cfg.SessionOptions(), session.WithLogger(logger))
	return session.New(codec, append(all, opts...)...)
}

func (c *CLI) runEditor(path, text string) error {
	// Log lines would tear the alternate screen.
	s := c.newSession(log.New(io.Discard))
	if err := s.Load(text); err != nil {
		return err
	}

	p := tea.NewProgram(NewEditorModel(s, path), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if m, ok := final.(EditorModel); ok && m.Dirty() {
		printWarning("Unsaved changes to %s discarded", path)
	}
	return nil
}

func (c *CLI) runScript(ctx context.Context, path, text string, script []string, write bool) error {
	logger := loggerFromContext(ctx)
	s := c.newSession(logger)
	if err := s.Load(text); err != nil {
		return err
	}
	for i, line := range script {
		out, err := execOp(s, line)
		if err != nil {
			return fmt.Errorf("op %d %q: %w", i+1, line, err)
		}
		logger.Debug("applied", "op", line, "result", out)
	}
	s.Flush()
	result := s.Source()

	if !write || path == "-" {
		fmt.Print(result)
		return nil
	}
	if err := os.WriteFile(path, []byte(result), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Applied %s", plural(len(script), "operation"))
	printFile(path)
	if t := s.Current(); t != nil {
		printStats(statsOf(t), false)
	}
	return nil
}

// execOp applies one script operation and returns a short description of
// its result.
func execOp(s *session.Session, line string) (string, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return "", fmt.Errorf("empty operation")
	}
	e := s.Engine()
	want := func(n int) error {
		if len(f) != n {
			return fmt.Errorf("%s takes %d arguments", f[0], n-1)
		}
		return nil
	}

	switch f[0] {
	case "add":
		if len(f) != 2 && len(f) != 3 {
			return "", fmt.Errorf("add takes OPCODE [WORKFLOW]")
		}
		wf := s.ActiveWorkflow()
		if len(f) == 3 {
			wf = f[2]
		}
		return e.AddNode(f[1], wf)
	case "delete":
		if err := want(2); err != nil {
			return "", err
		}
		return f[1], e.DeleteNode(f[1])
	case "duplicate":
		if err := want(2); err != nil {
			return "", err
		}
		return e.DuplicateNode(f[1])
	case "connect":
		if err := want(3); err != nil {
			return "", err
		}
		return f[1] + " -> " + f[2], e.ConnectNodes(f[1], f[2])
	case "branch":
		if err := want(4); err != nil {
			return "", err
		}
		return f[1] + "." + f[2] + " -> " + f[3], e.ConnectBranch(f[1], f[3], f[2])
	case "disconnect":
		if err := want(2); err != nil {
			return "", err
		}
		return f[1], e.DisconnectNode(f[1])
	case "input":
		if len(f) < 3 {
			return "", fmt.Errorf("input takes ID KEY VALUE")
		}
		return f[1] + "." + f[2], e.UpdateNodeInput(f[1], f[2], fieldsAfter(line, 3))
	case "attach":
		if err := want(4); err != nil {
			return "", err
		}
		return f[1] + " -> " + f[2] + "." + f[3], e.ConvertOrphanToReporter(f[1], f[2], f[3])
	case "workflow":
		if len(f) < 3 {
			return "", fmt.Errorf("workflow takes add|delete NAME or rename FROM TO")
		}
		switch f[1] {
		case "add":
			return f[2], e.AddWorkflow(f[2])
		case "delete":
			return f[2], e.DeleteWorkflow(f[2])
		case "rename":
			if err := want(4); err != nil {
				return "", err
			}
			return f[3], e.RenameWorkflow(f[2], f[3])
		}
		return "", fmt.Errorf("unknown workflow operation %q", f[1])
	case "undo":
		if !s.Undo() {
			return "", fmt.Errorf("nothing to undo")
		}
		return "undo", nil
	case "redo":
		if !s.Redo() {
			return "", fmt.Errorf("nothing to redo")
		}
		return "redo", nil
	}
	return "", fmt.Errorf("unknown operation %q", f[0])
}

// fieldsAfter returns line with its first n fields removed, keeping the
// spacing of the rest.
func fieldsAfter(line string, n int) string {
	s := line
	for range n {
		s = strings.TrimLeft(s, " \t")
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			return ""
		}
		s = s[i:]
	}
	return strings.TrimSpace(s)
}
