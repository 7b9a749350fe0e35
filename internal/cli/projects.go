package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/collage/pkg/project"
)

// projectsCommand lists the projects of a document.
func (c *CLI) projectsCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "projects [projects.json]",
		Short: "List the projects of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := project.ParseCategory(category)
			if err != nil {
				return err
			}
			var input string
			if len(args) == 1 {
				input = args[0]
			}

			source, closeSource, err := c.newSource(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("open projects: %w", err)
			}
			defer closeSource()

			doc, err := source.Load(cmd.Context())
			if err != nil {
				return err
			}
			projects := doc.Filter(filter)
			if len(projects) == 0 {
				printInfo("No projects")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), projectTable(projects, -1))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list projects of this category: photo, video, graphic")
	return cmd
}

// projectTable renders projects as a bordered table. The row at cursor is
// highlighted; pass -1 for none.
func projectTable(projects []project.Project, cursor int) string {
	rows := make([][]string, 0, len(projects))
	for i, p := range projects {
		mark := " "
		if i == cursor {
			mark = "›"
		}
		rows = append(rows, []string{mark, p.ID, p.Title, string(p.Category), strconv.Itoa(len(p.Images))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Title", "Category", "Images").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 3 || col == 4 {
				base = base.Foreground(colorGray)
			}
			if row == cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})
	return t.Render()
}
