package arena_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/arena/go/clients"
	"github.com/mcdev12/arena/go/internal/models"
)

const (
	OpStartGames = "start games"
	OpGameState  = "get game state"
	OpNextMove   = "next move"
	OpNextGame   = "next game"
)

// StartMatches begins a new series of count games and returns the initial snapshot.
func (c *Client) StartMatches(ctx context.Context, count int) (*models.MatchState, error) {
	if count < 1 {
		return nil, fmt.Errorf("%s: game count must be positive, got %d", OpStartGames, count)
	}

	payload, err := json.Marshal(StartGamesRequest{NumGames: count})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal start request: %w", err)
	}

	body, err := c.Post(ctx, StartGamesEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apiError(OpStartGames, err)
	}

	var response StateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return stateFromResponse(OpStartGames, response)
}

// PollState fetches the current authoritative snapshot.
func (c *Client) PollState(ctx context.Context) (*models.MatchState, error) {
	body, err := c.Get(ctx, GameStateEndpoint)
	if err != nil {
		return nil, apiError(OpGameState, err)
	}

	var payload GameStatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return payload.ToModel(), nil
}

// AdvanceTurn asks the server to let the current agent move. The call blocks for as
// long as the agent thinks.
func (c *Client) AdvanceTurn(ctx context.Context) (*models.MoveResult, error) {
	body, err := c.Post(ctx, NextMoveEndpoint, nil)
	if err != nil {
		return nil, apiError(OpNextMove, err)
	}

	var response NextMoveResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	if !response.Success {
		return nil, &APIError{Op: OpNextMove, Message: messageOr(response.Error, "move was not accepted")}
	}
	if response.GameState == nil {
		return nil, &APIError{Op: OpNextMove, Message: "response is missing game_state"}
	}

	return &models.MoveResult{
		Agent:       AgentFromModel(response.Model),
		Move:        response.Move,
		ElapsedTime: response.ElapsedTime,
		State:       response.GameState.ToModel(),
	}, nil
}

// RollOverToNextGame ends the finished game and starts the next one in the series.
func (c *Client) RollOverToNextGame(ctx context.Context) (*models.MatchState, error) {
	body, err := c.Post(ctx, NextGameEndpoint, nil)
	if err != nil {
		return nil, apiError(OpNextGame, err)
	}

	var response StateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return stateFromResponse(OpNextGame, response)
}

// apiError turns a failed request into *APIError when the server answered with an
// error payload. Anything else is returned as a transport error.
func apiError(op string, err error) error {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		var payload errorResponse
		if jsonErr := json.Unmarshal(statusErr.Body, &payload); jsonErr == nil && payload.Error != "" {
			return &APIError{Op: op, StatusCode: statusErr.StatusCode, Message: payload.Error}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func stateFromResponse(op string, response StateResponse) (*models.MatchState, error) {
	if !response.Success {
		return nil, &APIError{Op: op, Message: messageOr(response.Error, "request was not successful")}
	}
	if response.GameState == nil {
		return nil, &APIError{Op: op, Message: "response is missing game_state"}
	}
	return response.GameState.ToModel(), nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
