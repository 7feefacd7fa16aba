package orchestrator

import "github.com/mcdev12/arena/go/internal/models"

// Renderer projects orchestrator state for display. It never feeds back into the loop.
// Render receives a deep copy the renderer may keep. RenderTimer is called from the
// timer goroutine, concurrently with Render, so implementations must be safe for
// concurrent use.
type Renderer interface {
	Render(view models.View)
	RenderTimer(agent models.Agent, readout string)
}

// MultiRenderer fans every call out to each renderer in order.
type MultiRenderer []Renderer

func (m MultiRenderer) Render(view models.View) {
	for _, r := range m {
		r.Render(view.Clone())
	}
}

func (m MultiRenderer) RenderTimer(agent models.Agent, readout string) {
	for _, r := range m {
		r.RenderTimer(agent, readout)
	}
}
