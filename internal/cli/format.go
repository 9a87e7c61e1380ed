package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/opcodes"
)

// errNotCanonical is returned by fmt --check.
var errNotCanonical = errors.New("source is not in canonical form")

// fmtCommand creates the fmt command for canonicalizing sources.
func (c *CLI) fmtCommand() *cobra.Command {
	var write, check bool

	cmd := &cobra.Command{
		Use:   "fmt [workflow.toml]",
		Short: "Rewrite a workflow source in canonical form",
		Long: `Rewrite a workflow source in canonical form.

The source is parsed and serialized again, which orders workflows, nodes and
inputs the way the editor writes them. Sources that format to the same text
share layout cache entries.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSource(args[0])
			if err != nil {
				return err
			}
			t, err := codec.Parse(text)
			if err != nil {
				return err
			}
			canonical, err := codec.Serialize(t)
			if err != nil {
				return err
			}
			changed := canonical != text
			switch {
			case check:
				if changed {
					printWarning("%s is not formatted", args[0])
					return errNotCanonical
				}
				printSuccess("%s is formatted", args[0])
			case write && args[0] != "-":
				if !changed {
					printInfo("%s unchanged", args[0])
					return nil
				}
				if err := os.WriteFile(args[0], []byte(canonical), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", args[0], err)
				}
				printSuccess("Formatted %s", args[0])
			default:
				fmt.Print(canonical)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result to the source file")
	cmd.Flags().BoolVar(&check, "check", false, "fail if the source is not formatted")

	return cmd
}

// opcodesCommand creates the opcodes command listing the catalog.
func (c *CLI) opcodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "opcodes",
		Short: "List the opcode catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(renderCatalog(opcodes.Builtin()))
			return nil
		},
	}
}

func renderCatalog(cat *opcodes.Catalog) string {
	var rows [][]string
	for _, name := range cat.Opcodes() {
		spec, _ := cat.Lookup(name)
		params := make([]string, len(spec.Params))
		for i, p := range spec.Params {
			params[i] = p.Name
			if p.Type != "" {
				params[i] += ":" + p.Type
			}
		}
		rows = append(rows, []string{
			spec.Opcode,
			string(spec.Type),
			dash(strings.Join(params, ", ")),
			dash(spec.Returns),
			dash(strings.Join(spec.Branches, ", ")),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Opcode", "Type", "Inputs", "Returns", "Branches").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col == 4:
				return StyleBranch
			}
			return listDimStyle
		})
	return t.Render()
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
