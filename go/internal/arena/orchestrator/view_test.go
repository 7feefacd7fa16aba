package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/arena/go/clients/arena_client"
	"github.com/mcdev12/arena/go/internal/models"
)

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		name   string
		winner models.Winner
		want   string
	}{
		{"draw", models.WinnerDraw, StatusDraw},
		{"agent A mark", models.Winner(models.MarkO), "🎉 Alpha wins!"},
		{"agent B mark", models.Winner(models.MarkX), "🎉 Beta wins!"},
		{"unmatched mark credits agent B", "Z", "🎉 Beta wins!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &models.MatchState{MarkA: models.MarkO, MarkB: models.MarkX, GameOver: true, Winner: tt.winner}
			assert.Equal(t, tt.want, outcomeLabel(s, "Alpha", "Beta"))
		})
	}
}

func TestHistoryRows(t *testing.T) {
	rows := historyRows([]models.HistoryEntry{
		{Game: 1, Winner: arena_client.WinnerLabelGPT},
		{Game: 2, Winner: arena_client.WinnerLabelClaude},
		{Game: 3, Winner: arena_client.WinnerLabelDraw},
		{Game: 4, Winner: "Beta"},
	}, "Alpha", "Beta")

	sides := make([]models.Agent, 0, len(rows))
	for _, r := range rows {
		sides = append(sides, r.Side)
	}
	assert.Equal(t, []models.Agent{models.AgentA, models.AgentB, models.AgentNone, models.AgentB}, sides)
}
