package arena_client

const (
	// Default base URL of the match server
	DefaultBaseURL = "http://localhost:5001"

	// API Endpoints
	StartGamesEndpoint = "/api/start-games"
	GameStateEndpoint  = "/api/game-state"
	NextMoveEndpoint   = "/api/next-move"
	NextGameEndpoint   = "/api/next-game"

	// Wire identifiers for the two agents
	ModelGPT    = "gpt"
	ModelClaude = "claude"

	// Winner labels the server writes into game history. They double as the
	// default display names.
	WinnerLabelGPT    = "GPT 5.2 High"
	WinnerLabelClaude = "Claude Opus 4.5 Thinking"
	WinnerLabelDraw   = "Draw"
)
