package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcdev12/arena/go/internal/models"
)

const clearScreen = "\033[H\033[2J"

var (
	colorTitle  = lipgloss.Color("#7aa2f7")
	colorAgentA = lipgloss.Color("#9ece6a")
	colorAgentB = lipgloss.Color("#bb9af7")
	colorError  = lipgloss.Color("#f7768e")
	colorBorder = lipgloss.Color("#3b4261")
	colorDim    = lipgloss.Color("#565f89")
	colorActive = lipgloss.Color("#e0af68")
)

const panelWidth = 38

// Renderer draws the match to a terminal. In plain mode it prints one line per
// snapshot and ignores timer ticks, which suits log files and CI.
type Renderer struct {
	mu    sync.Mutex
	out   io.Writer
	plain bool
	view  *models.View
}

func New(out io.Writer, plain bool) *Renderer {
	return &Renderer{out: out, plain: plain}
}

func (r *Renderer) Render(view models.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.view = &view
	if r.plain {
		fmt.Fprintln(r.out, Line(view))
		return
	}
	r.redrawLocked()
}

func (r *Renderer) RenderTimer(agent models.Agent, readout string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view == nil {
		return
	}
	if p := r.view.Panel(agent); p != nil {
		p.Timer = readout
	}
	if !r.plain {
		r.redrawLocked()
	}
}

func (r *Renderer) redrawLocked() {
	fmt.Fprint(r.out, clearScreen+Frame(*r.view)+"\n")
}

// Line is the single-line summary used in plain mode.
func Line(v models.View) string {
	return fmt.Sprintf("[%d] %s game %d/%d | %s | %s | %s",
		v.Seq, v.RunState, v.Game, v.TotalGames, v.Status, panelLine(v.A), panelLine(v.B))
}

func panelLine(p models.AgentPanel) string {
	return fmt.Sprintf("%s (%s) W%d L%d D%d last %s in %s",
		p.Name, p.Mark, p.Stats.Wins, p.Stats.Losses, p.Stats.Draws, p.LastMove, p.LastTime)
}

// Frame lays out the full screen: header, board, both agent panels and the history table.
func Frame(v models.View) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).Foreground(colorTitle).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2).
		Width(panelWidth*2 + 2).
		Align(lipgloss.Center)

	statusStyle := lipgloss.NewStyle().Bold(true)
	if v.RunState == models.RunStateHalted && !v.Complete {
		statusStyle = statusStyle.Foreground(colorError)
	}

	header := titleStyle.Render(fmt.Sprintf("Tic-Tac-Toe Arena  │  Game %d of %d", v.Game, v.TotalGames))
	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel(v.A, colorAgentA),
		renderPanel(v.B, colorAgentB),
	)

	sections := []string{
		header,
		statusStyle.Render(v.Status),
		renderBoard(v.Board),
		panels,
	}
	if len(v.History) > 0 {
		sections = append(sections, renderHistory(v))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderBoard(b models.Board) string {
	cell := lipgloss.NewStyle().Width(3).Align(lipgloss.Center)
	dim := cell.Foreground(colorDim)

	var sb strings.Builder
	sb.WriteString("   " + dim.Render("A") + " " + dim.Render("B") + " " + dim.Render("C") + "\n")
	for row := 0; row < 3; row++ {
		sb.WriteString(dim.Render(fmt.Sprint(row + 1)))
		for col := 0; col < 3; col++ {
			mark := b.At(models.Coords[row*3+col])
			text := string(mark)
			if mark == models.MarkEmpty {
				text = "·"
			}
			sb.WriteString(" " + cell.Render(text))
		}
		if row < 2 {
			sb.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(sb.String())
}

func renderPanel(p models.AgentPanel, accent lipgloss.Color) string {
	border := colorBorder
	if p.Thinking {
		border = colorActive
	}
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(panelWidth)

	name := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(fmt.Sprintf("%s (%s)", p.Name, p.Mark))
	timer := "⏱ " + p.Timer
	if p.Thinking {
		timer += lipgloss.NewStyle().Foreground(colorActive).Render("  thinking...")
	}

	lines := []string{
		name,
		fmt.Sprintf("W %d  L %d  D %d", p.Stats.Wins, p.Stats.Losses, p.Stats.Draws),
		timer,
		fmt.Sprintf("Last move: %s (%s)  Total: %s", p.LastMove, p.LastTime, p.TotalTime),
		lipgloss.NewStyle().Foreground(colorDim).Render(p.Reasoning),
	}
	return style.Render(strings.Join(lines, "\n"))
}

func renderHistory(v models.View) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Underline(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-5s %-10s %-26s %8s %8s", "Game", "Time", "Winner", "A", "B")))
	for _, row := range v.History {
		winner := lipgloss.NewStyle()
		switch row.Side {
		case models.AgentA:
			winner = winner.Foreground(colorAgentA)
		case models.AgentB:
			winner = winner.Foreground(colorAgentB)
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%-5d %-10s %s %7.1fs %7.1fs",
			row.Game, row.Time, winner.Render(fmt.Sprintf("%-26s", row.Winner)), row.TimeA, row.TimeB))
	}
	return sb.String()
}
