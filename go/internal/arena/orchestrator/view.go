package orchestrator

import (
	"context"
	"errors"
	"strconv"

	"github.com/mcdev12/arena/go/clients/arena_client"
	"github.com/mcdev12/arena/go/internal/models"
)

const (
	StatusAllComplete = "🏆 All games complete!"
	StatusDraw        = "🤝 It's a draw!"
	StatusAPIError    = "API Error - check console"
	StatusStopped     = "Match stopped"
)

// applySnapshot merges a snapshot into the view the way the display expects: every
// authoritative field is replaced, while reasoning text is only overwritten when the
// snapshot carries some. Callers hold o.mu.
func (o *Orchestrator) applySnapshot(s *models.MatchState) {
	v := &o.view
	v.Game = s.CurrentGame
	v.TotalGames = s.TotalGames
	v.Board = s.Board.Clone()
	v.GameOver = s.GameOver
	v.Complete = s.AllGamesComplete

	applyPanel(&v.A, s.MarkA, s.StatsA, s.LastTimeA, s.TotalTimeA, s.ReasoningA)
	applyPanel(&v.B, s.MarkB, s.StatsB, s.LastTimeB, s.TotalTimeB, s.ReasoningB)

	v.History = historyRows(s.History, v.A.Name, v.B.Name)
	o.state = s.Clone()
}

func applyPanel(p *models.AgentPanel, mark models.Mark, stats models.Stats, last, total float64, reasoning string) {
	p.Mark = mark
	p.Stats = stats
	p.LastTime = formatSeconds(last)
	p.TotalTime = formatSeconds(total)
	if reasoning != "" {
		p.Reasoning = reasoning
	}
}

// resetGameFields puts the per-game reasoning and last-move fields back to placeholders.
func (o *Orchestrator) resetGameFields() {
	for _, p := range []*models.AgentPanel{&o.view.A, &o.view.B} {
		p.Reasoning = models.ReasoningPlaceholder
		p.LastMove = models.LastMovePlaceholder
	}
}

func (o *Orchestrator) setThinking(agent models.Agent) {
	o.view.A.Thinking = agent == models.AgentA
	o.view.B.Thinking = agent == models.AgentB
}

// historyRows resolves each row's winning side. The server labels rows with its own
// agent names; configured display names are only a fallback.
func historyRows(entries []models.HistoryEntry, nameA, nameB string) []models.HistoryRow {
	rows := make([]models.HistoryRow, 0, len(entries))
	for _, e := range entries {
		side := arena_client.AgentFromWinnerLabel(e.Winner)
		if side == models.AgentNone {
			switch e.Winner {
			case nameA:
				side = models.AgentA
			case nameB:
				side = models.AgentB
			}
		}
		rows = append(rows, models.HistoryRow{HistoryEntry: e, Side: side})
	}
	return rows
}

// formatSeconds prints server-reported seconds as-is with an "s" suffix.
func formatSeconds(secs float64) string {
	return strconv.FormatFloat(secs, 'f', -1, 64) + "s"
}

func turnStatus(name string) string {
	return name + "'s turn..."
}

// outcomeLabel names the winner of a finished game. Any winner other than agent A's
// mark is credited to agent B.
func outcomeLabel(s *models.MatchState, nameA, nameB string) string {
	if s.Winner == models.WinnerDraw {
		return StatusDraw
	}
	if s.WinningAgent() == models.AgentA {
		return "🎉 " + nameA + " wins!"
	}
	return "🎉 " + nameB + " wins!"
}

// failureStatus turns a loop failure into the status line shown to the operator.
func failureStatus(err error) string {
	var apiErr *arena_client.APIError
	switch {
	case errors.As(err, &apiErr):
		return "Error: " + apiErr.Message
	case errors.Is(err, ErrNoCurrentAgent), errors.Is(err, ErrEmptySnapshot):
		return "Error: " + err.Error()
	case errors.Is(err, context.Canceled):
		return StatusStopped
	default:
		return StatusAPIError
	}
}
