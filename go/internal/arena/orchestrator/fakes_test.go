package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/arena/go/internal/models"
)

type clientCall struct {
	op string
	at time.Time
}

// scriptedClient answers each operation from a per-test function and records the
// order and fake-clock time of every call.
type scriptedClient struct {
	clock clockwork.Clock

	inFlight   atomic.Int32
	violations atomic.Int32

	mu     sync.Mutex
	calls  []clientCall
	counts map[string]int

	start   func(count int) (*models.MatchState, error)
	poll    func(n int) (*models.MatchState, error)
	advance func(ctx context.Context, n int) (*models.MoveResult, error)
	roll    func(n int) (*models.MatchState, error)
}

func newScriptedClient(clock clockwork.Clock) *scriptedClient {
	return &scriptedClient{
		clock:  clock,
		counts: make(map[string]int),
		start: func(count int) (*models.MatchState, error) {
			return newState(1, count), nil
		},
	}
}

func (c *scriptedClient) enter(op string) int {
	if c.inFlight.Add(1) > 1 {
		c.violations.Add(1)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, clientCall{op: op, at: c.clock.Now()})
	n := c.counts[op]
	c.counts[op]++
	return n
}

func (c *scriptedClient) exit() { c.inFlight.Add(-1) }

func (c *scriptedClient) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[op]
}

func (c *scriptedClient) history() []clientCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]clientCall, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *scriptedClient) StartMatches(ctx context.Context, count int) (*models.MatchState, error) {
	c.enter("start")
	defer c.exit()
	return c.start(count)
}

func (c *scriptedClient) PollState(ctx context.Context) (*models.MatchState, error) {
	n := c.enter("poll")
	defer c.exit()
	return c.poll(n)
}

func (c *scriptedClient) AdvanceTurn(ctx context.Context) (*models.MoveResult, error) {
	n := c.enter("advance")
	defer c.exit()
	return c.advance(ctx, n)
}

func (c *scriptedClient) RollOverToNextGame(ctx context.Context) (*models.MatchState, error) {
	n := c.enter("roll")
	defer c.exit()
	return c.roll(n)
}

// recordingRenderer keeps every view and timer readout it receives.
type recordingRenderer struct {
	mu     sync.Mutex
	views  []models.View
	timers map[models.Agent][]string
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{timers: make(map[models.Agent][]string)}
}

func (r *recordingRenderer) Render(view models.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
}

func (r *recordingRenderer) RenderTimer(agent models.Agent, readout string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers[agent] = append(r.timers[agent], readout)
}

func (r *recordingRenderer) snapshot() []models.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.View, len(r.views))
	copy(out, r.views)
	return out
}

func (r *recordingRenderer) last() models.View {
	views := r.snapshot()
	return views[len(views)-1]
}

func newState(game, total int) *models.MatchState {
	board := make(models.Board)
	for _, c := range models.Coords {
		board[c] = models.MarkEmpty
	}
	return &models.MatchState{
		CurrentGame:  game,
		TotalGames:   total,
		Board:        board,
		MarkA:        models.MarkX,
		MarkB:        models.MarkO,
		CurrentAgent: models.AgentA,
		CurrentTurn:  models.MarkX,
		History:      []models.HistoryEntry{},
	}
}

// drive advances the fake clock until the current loop exits.
func drive(t *testing.T, clock *clockwork.FakeClock, o *Orchestrator) {
	t.Helper()
	done := o.Done()
	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case <-done:
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("match loop did not finish")
		}
		clock.Advance(250 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
}

// simClient is a tiny in-memory match server: each advance fills the next free cell,
// a game ends after movesPerGame moves as a draw, and the series completes after the
// last game ends.
type simClient struct {
	movesPerGame int

	inFlight   atomic.Int32
	violations atomic.Int32

	mu       sync.Mutex
	state    *models.MatchState
	moves    int
	advances int
	rolls    int
}

func (s *simClient) enter() {
	if s.inFlight.Add(1) > 1 {
		s.violations.Add(1)
	}
}

func (s *simClient) exit() { s.inFlight.Add(-1) }

func (s *simClient) StartMatches(ctx context.Context, count int) (*models.MatchState, error) {
	s.enter()
	defer s.exit()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = newState(1, count)
	s.moves = 0
	return s.state.Clone(), nil
}

func (s *simClient) PollState(ctx context.Context) (*models.MatchState, error) {
	s.enter()
	defer s.exit()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

func (s *simClient) AdvanceTurn(ctx context.Context) (*models.MoveResult, error) {
	s.enter()
	defer s.exit()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advances++

	st := s.state
	mover := st.CurrentAgent
	cell := models.Coords[s.moves]
	st.Board[cell] = st.MarkOf(mover)
	s.moves++
	st.ReasoningA, st.ReasoningB = "", ""
	if mover == models.AgentA {
		st.ReasoningA = "A thinks " + string(cell)
		st.LastTimeA = 0.5
		st.TotalTimeA += 0.5
	} else {
		st.ReasoningB = "B thinks " + string(cell)
		st.LastTimeB = 0.25
		st.TotalTimeB += 0.25
	}

	if s.moves >= s.movesPerGame {
		st.GameOver = true
		st.Winner = models.WinnerDraw
		st.CurrentAgent = models.AgentNone
		st.StatsA.Draws++
		st.StatsB.Draws++
		st.History = append(st.History, models.HistoryEntry{Game: st.CurrentGame, Time: "12:00:00", Winner: "Draw", TimeA: st.TotalTimeA, TimeB: st.TotalTimeB})
		st.AllGamesComplete = st.CurrentGame >= st.TotalGames
	} else {
		st.CurrentAgent = mover.Other()
	}
	return &models.MoveResult{Agent: mover, Move: string(cell), State: st.Clone()}, nil
}

func (s *simClient) RollOverToNextGame(ctx context.Context) (*models.MatchState, error) {
	s.enter()
	defer s.exit()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolls++

	next := newState(s.state.CurrentGame+1, s.state.TotalGames)
	next.StatsA, next.StatsB = s.state.StatsA, s.state.StatsB
	next.History = s.state.History
	s.state = next
	s.moves = 0
	return next.Clone(), nil
}
