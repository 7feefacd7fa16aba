package models

// Agent identifies one of the two automated players.
type Agent string

const (
	AgentNone Agent = ""
	AgentA    Agent = "A"
	AgentB    Agent = "B"
)

// Other returns the opposing agent.
func (a Agent) Other() Agent {
	switch a {
	case AgentA:
		return AgentB
	case AgentB:
		return AgentA
	default:
		return AgentNone
	}
}

// Mark is the content of a board cell.
type Mark string

const (
	MarkEmpty Mark = "."
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Winner is the outcome of a finished game: a mark value, a draw, or none yet.
type Winner string

const (
	WinnerNone Winner = ""
	WinnerDraw Winner = "draw"
)

// Coord addresses a board cell, column letter then row number ("B2").
type Coord string

// Coords lists the board cells in row-major display order.
var Coords = []Coord{
	"A1", "B1", "C1",
	"A2", "B2", "C2",
	"A3", "B3", "C3",
}

// Board maps each coordinate to its mark.
type Board map[Coord]Mark

// At returns the mark at c, treating missing cells as empty.
func (b Board) At(c Coord) Mark {
	if m, ok := b[c]; ok && m != "" {
		return m
	}
	return MarkEmpty
}

// Clone returns an independent copy of the board.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Stats holds an agent's running record across the series.
type Stats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// HistoryEntry is one finished game in the series. Entries are append-only.
type HistoryEntry struct {
	Game   int     `json:"game"`
	Time   string  `json:"time"`
	Winner string  `json:"winner"`
	TimeA  float64 `json:"time_a"`
	TimeB  float64 `json:"time_b"`
}

// MatchState is an authoritative snapshot returned by the match API. It is replaced
// wholesale on every response and never patched field by field.
type MatchState struct {
	CurrentGame int
	TotalGames  int
	Board       Board

	MarkA Mark
	MarkB Mark

	StatsA Stats
	StatsB Stats

	LastTimeA  float64
	TotalTimeA float64
	LastTimeB  float64
	TotalTimeB float64

	// Reasoning is only present for the agent that just moved.
	ReasoningA string
	ReasoningB string

	CurrentAgent Agent
	CurrentTurn  Mark

	GameOver         bool
	Winner           Winner
	AllGamesComplete bool

	History []HistoryEntry
}

// Clone returns a deep copy of the snapshot.
func (s *MatchState) Clone() *MatchState {
	if s == nil {
		return nil
	}
	out := *s
	out.Board = s.Board.Clone()
	if s.History != nil {
		out.History = make([]HistoryEntry, len(s.History))
		copy(out.History, s.History)
	}
	return &out
}

// MarkOf returns the mark assigned to agent in this game.
func (s *MatchState) MarkOf(agent Agent) Mark {
	switch agent {
	case AgentA:
		return s.MarkA
	case AgentB:
		return s.MarkB
	default:
		return ""
	}
}

// WinningAgent resolves Winner against the agents' marks. It returns AgentNone for
// draws and unfinished games.
func (s *MatchState) WinningAgent() Agent {
	switch {
	case s.Winner == WinnerNone || s.Winner == WinnerDraw:
		return AgentNone
	case Mark(s.Winner) == s.MarkA:
		return AgentA
	case Mark(s.Winner) == s.MarkB:
		return AgentB
	default:
		return AgentNone
	}
}

// MoveResult is the outcome of a successful advance-turn request.
type MoveResult struct {
	Agent Agent
	Move  string
	// ElapsedTime is the server-measured thinking time in seconds.
	ElapsedTime float64
	State       *MatchState
}
