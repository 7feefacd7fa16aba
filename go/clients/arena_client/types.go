package arena_client

import (
	"github.com/mcdev12/arena/go/internal/models"
)

type StatsPayload struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

type HistoryPayload struct {
	Game       int     `json:"game"`
	Time       string  `json:"time"`
	Winner     string  `json:"winner"`
	GPTTime    float64 `json:"gpt_time"`
	ClaudeTime float64 `json:"claude_time"`
}

// GameStatePayload is the MatchState wire shape. gpt_* fields belong to agent A and
// claude_* fields to agent B.
type GameStatePayload struct {
	CurrentGame      int               `json:"current_game"`
	TotalGames       int               `json:"total_games"`
	Board            map[string]string `json:"board"`
	GPTMark          string            `json:"gpt_mark"`
	ClaudeMark       string            `json:"claude_mark"`
	GPTStats         StatsPayload      `json:"gpt_stats"`
	ClaudeStats      StatsPayload      `json:"claude_stats"`
	GPTLastTime      float64           `json:"gpt_last_time"`
	GPTTotalTime     float64           `json:"gpt_total_time"`
	ClaudeLastTime   float64           `json:"claude_last_time"`
	ClaudeTotalTime  float64           `json:"claude_total_time"`
	GPTReasoning     string            `json:"gpt_reasoning,omitempty"`
	ClaudeReasoning  string            `json:"claude_reasoning,omitempty"`
	CurrentModel     string            `json:"current_model,omitempty"`
	CurrentTurn      string            `json:"current_turn,omitempty"`
	GameOver         bool              `json:"game_over"`
	Winner           string            `json:"winner,omitempty"`
	AllGamesComplete bool              `json:"all_games_complete"`
	GameHistory      []HistoryPayload  `json:"game_history"`
}

type StartGamesRequest struct {
	NumGames int `json:"num_games"`
}

type StateResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	GameState *GameStatePayload `json:"game_state,omitempty"`
}

type NextMoveResponse struct {
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	Model       string            `json:"model"`
	Move        string            `json:"move"`
	ElapsedTime float64           `json:"elapsed_time"`
	GameState   *GameStatePayload `json:"game_state,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AgentFromModel maps the wire model name to an agent.
func AgentFromModel(model string) models.Agent {
	switch model {
	case ModelGPT:
		return models.AgentA
	case ModelClaude:
		return models.AgentB
	default:
		return models.AgentNone
	}
}

// AgentFromWinnerLabel maps a history winner label to the agent it names.
// Draws and unknown labels map to AgentNone.
func AgentFromWinnerLabel(label string) models.Agent {
	switch label {
	case WinnerLabelGPT:
		return models.AgentA
	case WinnerLabelClaude:
		return models.AgentB
	default:
		return models.AgentNone
	}
}

// ToModel converts the wire payload into a snapshot.
func (p *GameStatePayload) ToModel() *models.MatchState {
	board := make(models.Board, len(p.Board))
	for coord, mark := range p.Board {
		board[models.Coord(coord)] = models.Mark(mark)
	}

	history := make([]models.HistoryEntry, 0, len(p.GameHistory))
	for _, h := range p.GameHistory {
		history = append(history, models.HistoryEntry{
			Game:   h.Game,
			Time:   h.Time,
			Winner: h.Winner,
			TimeA:  h.GPTTime,
			TimeB:  h.ClaudeTime,
		})
	}

	return &models.MatchState{
		CurrentGame:      p.CurrentGame,
		TotalGames:       p.TotalGames,
		Board:            board,
		MarkA:            models.Mark(p.GPTMark),
		MarkB:            models.Mark(p.ClaudeMark),
		StatsA:           models.Stats(p.GPTStats),
		StatsB:           models.Stats(p.ClaudeStats),
		LastTimeA:        p.GPTLastTime,
		TotalTimeA:       p.GPTTotalTime,
		LastTimeB:        p.ClaudeLastTime,
		TotalTimeB:       p.ClaudeTotalTime,
		ReasoningA:       p.GPTReasoning,
		ReasoningB:       p.ClaudeReasoning,
		CurrentAgent:     AgentFromModel(p.CurrentModel),
		CurrentTurn:      models.Mark(p.CurrentTurn),
		GameOver:         p.GameOver,
		Winner:           models.Winner(p.Winner),
		AllGamesComplete: p.AllGamesComplete,
		History:          history,
	}
}
