package models

import "time"

// RunState is the lifecycle state of the match orchestrator.
type RunState string

const (
	RunStateIdle    RunState = "IDLE"
	RunStateRunning RunState = "RUNNING"
	RunStateHalted  RunState = "HALTED"
)

// Display placeholders shown before an agent has produced anything in the current game.
const (
	ReasoningPlaceholder = "Waiting for move..."
	LastMovePlaceholder  = "—"
	TimerZero            = "0.0s"
)

// AgentPanel is everything a renderer shows for one agent.
type AgentPanel struct {
	Agent     Agent  `json:"agent"`
	Name      string `json:"name"`
	Mark      Mark   `json:"mark"`
	Stats     Stats  `json:"stats"`
	Reasoning string `json:"reasoning"`
	LastMove  string `json:"last_move"`
	LastTime  string `json:"last_time"`
	TotalTime string `json:"total_time"`
	// Timer is the live readout driven by the timer session; it keeps its final
	// value until the next turn for this agent starts.
	Timer    string `json:"timer"`
	Thinking bool   `json:"thinking"`
}

// HistoryRow is a finished game as displayed, with the winning side resolved from its label.
type HistoryRow struct {
	HistoryEntry
	// Side is AgentNone for draws.
	Side Agent `json:"side"`
}

// View is the read-only projection handed to renderers. Seq increases by one for every
// snapshot the orchestrator emits.
type View struct {
	Seq        uint64       `json:"seq"`
	RunState   RunState     `json:"run_state"`
	Status     string       `json:"status"`
	Game       int          `json:"game"`
	TotalGames int          `json:"total_games"`
	Board      Board        `json:"board"`
	A          AgentPanel   `json:"agent_a"`
	B          AgentPanel   `json:"agent_b"`
	GameOver   bool         `json:"game_over"`
	Complete   bool         `json:"all_games_complete"`
	History    []HistoryRow `json:"history"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewView returns an empty view with placeholder panels.
func NewView(nameA, nameB string) View {
	return View{
		RunState: RunStateIdle,
		Board:    Board{},
		A:        newPanel(AgentA, nameA),
		B:        newPanel(AgentB, nameB),
	}
}

func newPanel(agent Agent, name string) AgentPanel {
	return AgentPanel{
		Agent:     agent,
		Name:      name,
		Reasoning: ReasoningPlaceholder,
		LastMove:  LastMovePlaceholder,
		LastTime:  "0s",
		TotalTime: "0s",
		Timer:     TimerZero,
	}
}

// Panel returns a pointer to the panel for agent, or nil for AgentNone.
func (v *View) Panel(agent Agent) *AgentPanel {
	switch agent {
	case AgentA:
		return &v.A
	case AgentB:
		return &v.B
	default:
		return nil
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (v View) Clone() View {
	out := v
	out.Board = v.Board.Clone()
	if v.History != nil {
		out.History = make([]HistoryRow, len(v.History))
		copy(out.History, v.History)
	}
	return out
}
