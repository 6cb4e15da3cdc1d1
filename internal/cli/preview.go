package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/brickwall/pkg/brick"
	"github.com/matzehuels/brickwall/pkg/gallery"
	"github.com/matzehuels/brickwall/pkg/pipeline"
)

func (c *CLI) previewCommand() *cobra.Command {
	var flags galleryFlags

	cmd := &cobra.Command{
		Use:   "preview [catalog]",
		Short: "Page through a gallery in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, args, &flags)
			if err != nil {
				return err
			}
			opts.Formats = []string{pipeline.FormatJSON}

			runner, err := c.newRunner(cmd, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			// Pipeline logs would tear the alternate screen.
			opts.Logger = newLogger(io.Discard, LogInfo)

			m := newPreviewModel(cmd.Context(), runner, opts)
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if pm, ok := final.(previewModel); ok && pm.err != nil {
				return pm.err
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// =============================================================================
// previewModel - Interactive wall pager
// =============================================================================

var (
	previewCellStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	previewCellAltStyle = previewCellStyle.BorderForeground(colorCyan)
	previewCaptionStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

type wallMsg struct{ res *pipeline.Result }

type errMsg struct{ err error }

type previewModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	opts   pipeline.Options

	res     *pipeline.Result
	err     error
	loading bool

	width  int
	height int
	scroll int // first visible row
}

func newPreviewModel(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) previewModel {
	return previewModel{ctx: ctx, runner: runner, opts: opts, loading: true, width: 80, height: 24}
}

// load runs the pipeline for page n.
func (m previewModel) load(n int) tea.Cmd {
	opts := m.opts
	opts.Page = n
	return func() tea.Msg {
		res, err := m.runner.Execute(m.ctx, opts)
		if err != nil {
			return errMsg{err}
		}
		return wallMsg{res}
	}
}

func (m previewModel) Init() tea.Cmd {
	return m.load(m.opts.Page)
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wallMsg:
		m.res, m.loading, m.scroll = msg.res, false, 0
	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.res == nil || m.loading {
			return m, nil
		}
		page := m.res.Page
		switch msg.String() {
		case "right", "l", "n", "pgdown":
			if !page.IsEnd() {
				m.loading = true
				return m, m.load(page.Next().Number())
			}
		case "left", "h", "p", "pgup":
			if !page.IsBeginning() {
				m.loading = true
				return m, m.load(page.Prev().Number())
			}
		case "home", "g":
			if !page.IsBeginning() {
				m.loading = true
				return m, m.load(0)
			}
		case "down", "j":
			if m.scroll < len(m.res.Layout.Rows)-1 {
				m.scroll++
			}
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		}
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder

	if m.res == nil {
		b.WriteString(StyleDim.Render("Loading..."))
		return b.String()
	}

	res := m.res
	title := m.opts.Title
	if title == "" {
		title = res.Catalog.Title
	}
	if title == "" {
		title = "Gallery"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("page %d of %d · %d images · %d rows",
		res.Page.Number()+1, max(res.Page.Count(), 1), len(res.Items), len(res.Layout.Rows))))
	if m.opts.Tag != "" {
		b.WriteString(StyleDim.Render(" · #" + m.opts.Tag))
	}
	if m.loading {
		b.WriteString(StyleDim.Render(" · loading"))
	}
	b.WriteString("\n\n")

	budget := m.height - 4
	for _, row := range wallRows(res.Layout, res.Items, m.width)[m.scroll:] {
		h := lipgloss.Height(row)
		if budget < h {
			break
		}
		b.WriteString(row)
		b.WriteString("\n")
		budget -= h
	}

	b.WriteString(StyleDim.Render("←/→ page  ↑/↓ scroll  g first  q quit"))
	return b.String()
}

// wallRows draws each laid row as a line of bordered boxes whose widths
// follow the layout, scaled to cols terminal columns.
func wallRows(l brick.Layout, items []gallery.Item, cols int) []string {
	if l.Width <= 0 || cols <= 0 {
		return nil
	}
	scale := float64(cols) / l.Width
	col := func(x float64) int { return int(math.Round(x * scale)) }

	out := make([]string, 0, len(l.Rows))
	for _, row := range l.Rows {
		// Terminal cells are roughly twice as tall as they are wide.
		lines := min(max(int(math.Round(row.Height*scale/2))-2, 1), 6)

		var boxes []string
		end := 0
		for i, cell := range row.Cells {
			x0, x1 := col(cell.X), col(cell.Right())
			if gap := x0 - end; gap > 0 {
				boxes = append(boxes, strings.Repeat(" ", gap))
			}
			inner := max(x1-x0-2, 1)
			style := previewCellStyle
			if i%2 == 1 {
				style = previewCellAltStyle
			}

			var text string
			if cell.Index < len(items) {
				it := items[cell.Index]
				text = previewCaptionStyle.Render(truncate(it.Caption(), inner))
				if it.Date != "" && lines > 1 {
					text += "\n" + StyleDim.Render(truncate(it.Date, inner))
				}
			}
			boxes = append(boxes, style.Width(inner).Height(lines).Render(text))
			end = x0 + inner + 2
		}
		out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return out
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
