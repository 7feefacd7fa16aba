package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/arena/go/clients/arena_client"
	"github.com/mcdev12/arena/go/internal/models"
)

// Pacing between automated steps.
const (
	GameOverDwell = 2000 * time.Millisecond
	NextGameDwell = 1000 * time.Millisecond
	MoveDwell     = 1500 * time.Millisecond
)

// Default display names of the two agents.
const (
	DefaultAgentAName = arena_client.WinnerLabelGPT
	DefaultAgentBName = arena_client.WinnerLabelClaude
)

var ErrInvalidGameCount = errors.New("requested game count must be positive")

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	NewTimer(d time.Duration) clockwork.Timer
	NewTicker(d time.Duration) clockwork.Ticker
}

// MatchClient is what the orchestrator needs from the match API.
type MatchClient interface {
	StartMatches(ctx context.Context, count int) (*models.MatchState, error)
	PollState(ctx context.Context) (*models.MatchState, error)
	AdvanceTurn(ctx context.Context) (*models.MoveResult, error)
	RollOverToNextGame(ctx context.Context) (*models.MatchState, error)
}

type Option func(*Orchestrator)

func WithClock(clock Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithAgentNames(nameA, nameB string) Option {
	return func(o *Orchestrator) {
		if nameA != "" {
			o.nameA = nameA
		}
		if nameB != "" {
			o.nameB = nameB
		}
	}
}

// Orchestrator drives a series of games from start to completion with a single loop
// goroutine. It owns the latest snapshot, the view derived from it and the one timer
// session; renderers only ever see copies.
type Orchestrator struct {
	client     MatchClient
	renderer   Renderer
	clock      Clock
	timer      *TimerSession
	instanceID string // short ID for logging
	nameA      string
	nameB      string

	mu       sync.Mutex
	runState models.RunState
	starting bool
	state    *models.MatchState
	view     models.View
	done     chan struct{}
}

func New(client MatchClient, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:     client,
		renderer:   renderer,
		clock:      clockwork.NewRealClock(),
		instanceID: uuid.New().String()[:8],
		nameA:      DefaultAgentAName,
		nameB:      DefaultAgentBName,
		runState:   models.RunStateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.timer = NewTimerSession(o.clock)
	o.view = models.NewView(o.nameA, o.nameB)
	return o
}

// Start requests a fresh series of count games and, on success, launches the loop.
// The loop lives until the series completes, an operation fails, or ctx is cancelled.
// Calling Start while a loop is running (or while another Start is in flight) is a
// no-op. After a halt, Start begins a new series.
func (o *Orchestrator) Start(ctx context.Context, count int) error {
	if count < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidGameCount, count)
	}

	o.mu.Lock()
	if o.runState == models.RunStateRunning || o.starting {
		o.mu.Unlock()
		log.Debug().Str("instance", o.instanceID).Msg("start ignored, match already running")
		return nil
	}
	o.starting = true
	prev := o.done
	o.mu.Unlock()

	// a halted loop may still be delivering its final render
	if prev != nil {
		<-prev
	}

	state, err := o.client.StartMatches(ctx, count)

	o.mu.Lock()
	o.starting = false
	if err != nil {
		o.mu.Unlock()
		log.Error().Err(err).Str("instance", o.instanceID).Int("games", count).Msg("failed to start matches")
		return fmt.Errorf("start matches: %w", err)
	}

	seq := o.view.Seq
	o.view = models.NewView(o.nameA, o.nameB)
	o.view.Seq = seq
	o.runState = models.RunStateRunning
	o.applySnapshot(state)
	o.view.Status = fmt.Sprintf("Game %d of %d", state.CurrentGame, state.TotalGames)
	done := make(chan struct{})
	o.done = done
	view := o.emitLocked()
	o.mu.Unlock()

	log.Info().
		Str("instance", o.instanceID).
		Int("games", state.TotalGames).
		Str("agent_a_mark", string(state.MarkA)).
		Str("agent_b_mark", string(state.MarkB)).
		Msg("match series started")

	o.renderer.Render(view)
	go o.runLoop(ctx, done)
	return nil
}

// RunState returns the current lifecycle state.
func (o *Orchestrator) RunState() models.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runState
}

// Done is closed when the most recently started loop exits.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return o.done
}

// View returns a copy of the latest view.
func (o *Orchestrator) View() models.View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view.Clone()
}

// State returns a copy of the latest adopted snapshot, or nil before the first start.
func (o *Orchestrator) State() *models.MatchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// runLoop repeats poll → decide → act until the series completes or something fails.
// Exactly one request is outstanding at any time.
func (o *Orchestrator) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	log.Info().Str("instance", o.instanceID).Msg("match loop started")

	for {
		state, err := o.client.PollState(ctx)
		decision := Decide(state, err)

		log.Debug().
			Str("instance", o.instanceID).
			Str("decision", decision.Kind.String()).
			Str("agent", string(decision.Agent)).
			Msg("polled match state")

		switch decision.Kind {
		case DecisionAllComplete:
			o.complete(state)
			return

		case DecisionGameOver:
			if !o.rollOver(ctx) {
				return
			}

		case DecisionAwaitingMove:
			if !o.playTurn(ctx, decision.Agent) {
				return
			}
			if !o.dwell(ctx, MoveDwell) {
				return
			}

		default:
			o.fail(decision.Reason)
			return
		}
	}
}

// playTurn lets agent move. The timer session started here is stopped on every path
// before the function returns.
func (o *Orchestrator) playTurn(ctx context.Context, agent models.Agent) bool {
	o.mu.Lock()
	o.setThinking(agent)
	o.view.Status = turnStatus(o.nameOf(agent))
	view := o.emitLocked()
	o.mu.Unlock()
	o.renderer.Render(view)

	o.timer.Start(o.slotFor(agent))
	result, err := o.client.AdvanceTurn(ctx)
	o.timer.Stop()

	if err != nil {
		o.fail(err)
		return false
	}
	if result.State == nil {
		o.fail(ErrEmptySnapshot)
		return false
	}

	mover := result.Agent
	if mover == models.AgentNone {
		mover = agent
	}

	o.mu.Lock()
	o.setThinking(models.AgentNone)
	o.applySnapshot(result.State)
	if p := o.view.Panel(mover); p != nil {
		p.LastMove = result.Move
	}
	if result.State.GameOver {
		o.view.Status = outcomeLabel(result.State, o.nameA, o.nameB)
	}
	view = o.emitLocked()
	o.mu.Unlock()
	o.renderer.Render(view)

	log.Info().
		Str("instance", o.instanceID).
		Str("agent", string(mover)).
		Str("move", result.Move).
		Float64("elapsed_sec", result.ElapsedTime).
		Bool("game_over", result.State.GameOver).
		Msg("move applied")
	return true
}

// rollOver keeps the finished board visible, then asks for the next game.
func (o *Orchestrator) rollOver(ctx context.Context) bool {
	if !o.dwell(ctx, GameOverDwell) {
		return false
	}

	next, err := o.client.RollOverToNextGame(ctx)
	if err != nil {
		o.fail(err)
		return false
	}

	o.mu.Lock()
	o.applySnapshot(next)
	o.resetGameFields()
	o.view.Status = fmt.Sprintf("Game %d of %d", next.CurrentGame, next.TotalGames)
	view := o.emitLocked()
	o.mu.Unlock()
	o.renderer.Render(view)

	log.Info().
		Str("instance", o.instanceID).
		Int("game", next.CurrentGame).
		Int("total_games", next.TotalGames).
		Msg("rolled over to next game")

	return o.dwell(ctx, NextGameDwell)
}

// dwell pauses for d. Only teardown of ctx cuts it short, which halts the loop.
func (o *Orchestrator) dwell(ctx context.Context, d time.Duration) bool {
	timer := o.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		o.fail(ctx.Err())
		return false
	}
}

func (o *Orchestrator) complete(state *models.MatchState) {
	o.timer.Stop()

	o.mu.Lock()
	o.applySnapshot(state)
	o.setThinking(models.AgentNone)
	o.view.Status = StatusAllComplete
	o.runState = models.RunStateHalted
	view := o.emitLocked()
	o.mu.Unlock()
	o.renderer.Render(view)

	log.Info().
		Str("instance", o.instanceID).
		Int("games", state.TotalGames).
		Int("agent_a_wins", state.StatsA.Wins).
		Int("agent_b_wins", state.StatsB.Wins).
		Int("draws", state.StatsA.Draws).
		Msg("all games complete")
}

// fail halts the loop: stop the timer, clear thinking indicators and surface the error.
// Nothing is retried; a new Start is required.
func (o *Orchestrator) fail(err error) {
	o.timer.Stop()

	status := failureStatus(err)

	o.mu.Lock()
	o.setThinking(models.AgentNone)
	o.view.Status = status
	o.runState = models.RunStateHalted
	view := o.emitLocked()
	o.mu.Unlock()
	o.renderer.Render(view)

	if errors.Is(err, context.Canceled) {
		log.Info().Str("instance", o.instanceID).Msg("match loop stopped")
		return
	}
	log.Error().Err(err).Str("instance", o.instanceID).Str("status", status).Msg("match loop halted")
}

// emitLocked stamps the view with a new sequence number and returns a copy for the
// renderer. Callers hold o.mu.
func (o *Orchestrator) emitLocked() models.View {
	o.view.Seq++
	o.view.RunState = o.runState
	o.view.UpdatedAt = o.clock.Now()
	return o.view.Clone()
}

func (o *Orchestrator) nameOf(agent models.Agent) string {
	if agent == models.AgentB {
		return o.nameB
	}
	return o.nameA
}

// slotFor returns the display slot of agent's live timer.
func (o *Orchestrator) slotFor(agent models.Agent) TimerSlot {
	return TimerSlotFunc(func(text string) {
		o.mu.Lock()
		if p := o.view.Panel(agent); p != nil {
			p.Timer = text
		}
		o.mu.Unlock()
		o.renderer.RenderTimer(agent, text)
	})
}
