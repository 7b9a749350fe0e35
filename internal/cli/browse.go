package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/pipeline"
	"github.com/matzehuels/collage/pkg/project"
	"github.com/matzehuels/collage/pkg/render"
)

// Browse styles
var (
	browseTabStyle       = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	browseActiveTabStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Padding(0, 1).Underline(true)
	browsePanelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// browseCommand opens the interactive project browser.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "browse [projects.json]",
		Short: "Browse projects and regenerate the collage interactively",
		Long: `Browse projects and regenerate the collage interactively.

Keys:
  ↑/↓ (k/j)   move through the list; past either end returns to the collage
  p/v/g       toggle the photo, video or graphic filter
  a           show all projects
  r           reshuffle the collage
  enter       open the highlighted project
  esc         close the project, or quit from the list
  q           quit

Every filter change starts a new layout. A layout still running when the
next one starts is cancelled and its result discarded. With --output the
newest collage is written there as SVG.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := c.pipelineDefaults()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			var input string
			if len(args) == 1 {
				input = args[0]
			}

			source, closeSource, err := c.newSource(ctx, input)
			if err != nil {
				return fmt.Errorf("open projects: %w", err)
			}
			defer closeSource()
			doc, err := source.Load(ctx)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			// The TUI owns the terminal; keep pipeline logs out of it.
			quiet := newLogger(c.logFileOrDiscard(), c.Logger.GetLevel())
			runner.Logger = quiet
			opts.Logger = quiet

			m := newBrowseModel(ctx, doc, runner, opts, output)
			if opts.Category != project.CategoryAll {
				m.nav.SetFilter(opts.Category)
			}
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the newest collage to this SVG file")
	flags.register(cmd)

	return cmd
}

// =============================================================================
// browseModel - project list with a live collage
// =============================================================================

// collageMsg delivers a finished layout run.
type collageMsg struct {
	gen int
	res collage.Result
	id  string
	err error
}

// browseModel is the bubbletea model behind the browse command. Layout runs
// share one slot, so only the newest run can publish a collage.
type browseModel struct {
	ctx    context.Context
	doc    *project.Document
	nav    *project.Navigator
	runner *pipeline.Runner
	opts   pipeline.Options
	slot   *collage.Slot
	output string

	gen     int
	running bool
	layout  *collage.Result
	id      string
	status  string
	err     error
}

func newBrowseModel(ctx context.Context, doc *project.Document, runner *pipeline.Runner, opts pipeline.Options, output string) browseModel {
	return browseModel{
		ctx:     ctx,
		doc:     doc,
		nav:     project.NewNavigator(doc),
		runner:  runner,
		opts:    opts,
		slot:    &collage.Slot{},
		output:  output,
		gen:     1,
		running: true,
	}
}

// Init starts the first layout; the model already counts it as running.
func (m browseModel) Init() tea.Cmd {
	return m.layoutCmd()
}

// regenerate starts a layout for the current filter. Each call bumps the
// generation so stale results are ignored even if they slip through.
func (m *browseModel) regenerate() tea.Cmd {
	m.gen++
	m.running = true
	return m.layoutCmd()
}

func (m browseModel) layoutCmd() tea.Cmd {
	gen := m.gen
	opts := m.opts
	opts.Category = m.nav.Filter()
	opts.Slot = m.slot
	items := m.doc.ImageRefs(opts.Category)
	ctx, runner := m.ctx, m.runner

	return func() tea.Msg {
		res, id, _, err := runner.GenerateLayoutWithCacheInfo(ctx, items, opts)
		return collageMsg{gen: gen, res: res, id: id, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case collageMsg:
		return m.applyCollage(msg), nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if !m.nav.Escape() {
			return m, tea.Quit
		}
	case "up", "k":
		m.nav.Up()
	case "down", "j":
		m.nav.Down()
	case "enter":
		m.nav.Enter()
	case "p":
		return m.filter(project.CategoryPhoto)
	case "v":
		return m.filter(project.CategoryVideo)
	case "g":
		return m.filter(project.CategoryGraphic)
	case "a":
		if m.nav.ClearFilter() {
			cmd := m.regenerate()
			return m, cmd
		}
	case "r":
		if !m.nav.Detail() {
			cmd := m.regenerate()
			return m, cmd
		}
	}
	return m, nil
}

func (m browseModel) filter(c project.Category) (tea.Model, tea.Cmd) {
	if m.nav.SetFilter(c) {
		cmd := m.regenerate()
		return m, cmd
	}
	return m, nil
}

// applyCollage publishes a finished run unless a newer one superseded it.
func (m browseModel) applyCollage(msg collageMsg) browseModel {
	if msg.gen != m.gen || errs.Is(msg.err, errs.ErrCodeSuperseded) {
		return m
	}
	m.running = false
	if msg.err != nil {
		m.err = msg.err
		return m
	}
	m.err = nil
	res := msg.res
	m.layout, m.id = &res, msg.id
	m.status = ""

	if m.output != "" {
		if err := m.writeSVG(res, msg.id); err != nil {
			m.err = err
		} else {
			m.status = "wrote " + m.output
		}
	}
	return m
}

func (m browseModel) writeSVG(res collage.Result, id string) error {
	opts := m.opts
	opts.Formats = []string{render.FormatSVG}
	opts.Animate = true
	artifacts, err := pipeline.Render(m.ctx, res, id, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(m.output, artifacts[render.FormatSVG], 0o644)
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("collage"))
	b.WriteString("  ")
	b.WriteString(m.tabs())
	b.WriteString("\n\n")

	visible := m.nav.Visible()
	if len(visible) == 0 {
		b.WriteString(StyleDim.Render("  no projects in this category"))
	} else {
		b.WriteString(projectTable(visible, m.nav.Index()))
	}
	b.WriteString("\n")

	switch {
	case m.nav.Detail():
		b.WriteString(m.detailView())
	case m.nav.ShowCollage():
		b.WriteString(m.collageView())
	default:
		if p, ok := m.nav.Current(); ok {
			b.WriteString(browsePanelStyle.Render(StyleHighlight.Render(p.Title) + "\n" + StyleDim.Render("enter to open")))
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ move · p/v/g filter · a all · r reshuffle · enter open · esc back · q quit"))
	return b.String()
}

func (m browseModel) tabs() string {
	tabs := []struct {
		label    string
		category project.Category
	}{
		{"all", project.CategoryAll},
		{"photo", project.CategoryPhoto},
		{"video", project.CategoryVideo},
		{"graphic", project.CategoryGraphic},
	}
	var parts []string
	for _, t := range tabs {
		style := browseTabStyle
		if t.category == m.nav.Filter() {
			style = browseActiveTabStyle
		}
		parts = append(parts, style.Render(t.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m browseModel) collageView() string {
	var lines []string
	switch {
	case m.err != nil:
		lines = append(lines, styleIconError.Render(iconError)+" "+errs.UserMessage(m.err))
	case m.running && m.layout == nil:
		lines = append(lines, StyleDim.Render("laying out..."))
	case m.layout != nil:
		s := m.layout.Stats
		lines = append(lines,
			StyleHighlight.Render(fmt.Sprintf("%.0f×%.0f", m.layout.Canvas.Width, m.layout.Canvas.Height))+
				StyleDim.Render(fmt.Sprintf("  %d placed · %d fallback · %d dropped · %d clouds",
					s.Clustered+s.Fallback, s.Fallback, s.Failed+s.Pending, s.Clouds)),
			StyleDim.Render("layout ")+StyleHighlight.Render(shortID(m.id)))
		if s.TimedOut {
			lines = append(lines, StyleWarning.Render(fmt.Sprintf("discovery timed out, %d pending", s.Pending)))
		}
		if m.running {
			lines = append(lines, StyleDim.Render("updating..."))
		}
	}
	if m.status != "" {
		lines = append(lines, StyleSuccess.Render(m.status))
	}
	if len(lines) == 0 {
		return ""
	}
	return browsePanelStyle.Render(strings.Join(lines, "\n"))
}

func (m browseModel) detailView() string {
	p, ok := m.nav.Current()
	if !ok {
		return ""
	}
	lines := []string{
		StyleTitle.Render(p.Title),
		StyleDim.Render(string(p.Category) + " · " + p.ID),
	}
	if p.Description != "" {
		lines = append(lines, "", StyleValue.Render(p.Description))
	}
	lines = append(lines, "")
	for _, img := range p.Images {
		lines = append(lines, StyleDim.Render(iconArrow+" ")+StyleLink.Render(img))
	}
	return browsePanelStyle.Render(strings.Join(lines, "\n"))
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
