package orchestrator

import (
	"errors"
	"fmt"

	"github.com/mcdev12/arena/go/internal/models"
)

var (
	// ErrEmptySnapshot is reported when a poll succeeds without a snapshot.
	ErrEmptySnapshot = errors.New("server returned no match state")
	// ErrNoCurrentAgent is reported when a move is pending but the snapshot names no agent.
	ErrNoCurrentAgent = errors.New("match state has no current agent")
)

// DecisionKind enumerates what the loop does next.
type DecisionKind int

const (
	DecisionAwaitingMove DecisionKind = iota + 1
	DecisionGameOver
	DecisionAllComplete
	DecisionFailed
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionAwaitingMove:
		return "awaiting_move"
	case DecisionGameOver:
		return "game_over"
	case DecisionAllComplete:
		return "all_complete"
	case DecisionFailed:
		return "failed"
	default:
		return fmt.Sprintf("decision(%d)", int(k))
	}
}

// Decision is a tagged variant: Agent is set for DecisionAwaitingMove, Winner for
// DecisionGameOver and Reason for DecisionFailed.
type Decision struct {
	Kind   DecisionKind
	Agent  models.Agent
	Winner models.Winner
	Reason error
}

// Decide derives the next step from the outcome of a poll. AllGamesComplete takes
// priority over GameOver, so a finished series never rolls over.
func Decide(state *models.MatchState, pollErr error) Decision {
	switch {
	case pollErr != nil:
		return Decision{Kind: DecisionFailed, Reason: pollErr}
	case state == nil:
		return Decision{Kind: DecisionFailed, Reason: ErrEmptySnapshot}
	case state.AllGamesComplete:
		return Decision{Kind: DecisionAllComplete, Winner: state.Winner}
	case state.GameOver:
		return Decision{Kind: DecisionGameOver, Winner: state.Winner}
	case state.CurrentAgent == models.AgentA || state.CurrentAgent == models.AgentB:
		return Decision{Kind: DecisionAwaitingMove, Agent: state.CurrentAgent}
	default:
		return Decision{Kind: DecisionFailed, Reason: ErrNoCurrentAgent}
	}
}
