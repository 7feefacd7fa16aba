package arena_client

import (
	"time"

	"github.com/mcdev12/arena/go/clients"
)

// Client is the typed façade over the match API. It holds no state beyond the
// transport and its session cookie.
type Client struct {
	*clients.BaseClient
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.SetHeader("Accept", "application/json")

	return client
}
