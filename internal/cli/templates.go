package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postcraft/pkg/config"
	"github.com/matzehuels/postcraft/pkg/templates"
)

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

type templateFilter struct {
	contentType string
	business    string
}

func (f *templateFilter) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contentType, "content-type", "", "only templates for this content type")
	cmd.Flags().StringVar(&f.business, "business", "", "include templates restricted to this business id")
}

func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "List, inspect and pick template artwork",
	}
	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesShowCommand())
	cmd.AddCommand(c.templatesPickCommand())
	return cmd
}

// catalog loads the builtin templates merged with the configured catalogs.
func (c *CLI) catalog() (*templates.Registry, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return loadCatalog(cfg)
}

func loadCatalog(cfg config.Config) (*templates.Registry, error) {
	reg := templates.Default()
	for _, path := range cfg.Catalogs {
		defs, err := templates.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if reg, err = reg.Merge(defs...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (c *CLI) templatesListCommand() *cobra.Command {
	var f templateFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List eligible templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.catalog()
			if err != nil {
				return err
			}
			defs := reg.List(f.contentType, f.business)
			if len(defs) == 0 {
				printInfo("No templates match")
				return nil
			}
			fmt.Fprintln(os.Stdout, templateTable(defs, -1))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (c *CLI) templatesShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Show one template definition",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTemplates,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.catalog()
			if err != nil {
				return err
			}
			def, err := reg.Lookup(templates.ID(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(def)
			}
			printTemplate(def)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *CLI) templatesPickCommand() *cobra.Command {
	var (
		f           templateFilter
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a template at random, or interactively with -i",
		Long: `Pick a template at random. Templates restricted to --business are
preferred over general ones when any are eligible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.catalog()
			if err != nil {
				return err
			}

			var id templates.ID
			if interactive {
				defs := reg.List(f.contentType, f.business)
				if len(defs) == 0 {
					printInfo("No templates match")
					return nil
				}
				m, err := tea.NewProgram(NewTemplatePickerModel(defs), tea.WithContext(cmd.Context()), tea.WithOutput(os.Stderr)).Run()
				if err != nil {
					return err
				}
				sel := m.(TemplatePickerModel).Selected
				if sel == nil {
					return nil
				}
				id = sel.ID
			} else if id, err = reg.PickRandom(f.contentType, f.business, nil); err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, id)
			printNextStep("Render with", fmt.Sprintf("%s render post.json -t %s", appName, id))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose from a list")
	return cmd
}

func printTemplate(d templates.Definition) {
	fmt.Fprintln(out, StyleTitle.Render(d.Name))
	printKeyValue("id", string(d.ID))
	printKeyValue("source", d.Source)
	printKeyValue("category", string(d.Category))
	if d.Pattern != "" {
		printKeyValue("pattern", string(d.Pattern))
	}
	sa := d.SafeArea
	printKeyValue("safe area", fmt.Sprintf("%.0f,%.0f → %.0f,%.0f", sa.Left, sa.Top, sa.Right, sa.Bottom))
	if d.Logo != nil {
		printKeyValue("logo", fmt.Sprintf("%s, boost %.2f", d.Logo.Alignment, d.Logo.Boost()))
	}
	if len(d.ContentTypes) > 0 {
		printKeyValue("content", strings.Join(d.ContentTypes, ", "))
	}
	printKeyValue("scope", scopeLabel(d))
}

func scopeLabel(d templates.Definition) string {
	if d.BusinessSpecific() {
		return string(d.Scope) + ": " + strings.Join(d.Businesses, ", ")
	}
	return string(d.Scope)
}

// templateTable renders defs as a table. The row at cursor is
// highlighted; pass -1 for none.
func templateTable(defs []templates.Definition, cursor int) string {
	rows := make([][]string, len(defs))
	for i, d := range defs {
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		content := "any"
		if len(d.ContentTypes) > 0 {
			content = strings.Join(d.ContentTypes, ", ")
		}
		rows[i] = []string{marker, string(d.ID), d.Name, string(d.Category), string(d.Pattern), content, scopeLabel(d)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Kind", "Pattern", "Content", "Scope").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return headerStyle
			case row == cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		}).
		Render()
}

// completeTemplates completes builtin template ids.
func completeTemplates(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var ids []string
	for _, d := range templates.Default().All() {
		if strings.HasPrefix(string(d.ID), toComplete) {
			ids = append(ids, string(d.ID)+"\t"+d.Name)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
