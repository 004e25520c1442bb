package rsvp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-admission/internal/auth"
	"ms-admission/internal/models"
)

const cacheKeyPrefix = "rsvp_confirmed:"

// Client asks the RSVP collaborator whether a guest confirmed attendance.
// Confirmation is owned by that service; this client only reads it, with a
// short-lived Redis cache in front so a burst of scans at the gate does not
// hammer the collaborator.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Redis      *redis.Client
	CacheTTL   time.Duration
	M2M        models.M2MConfig
	TokenCache *auth.RedisTokenCache
}

func NewClient(baseURL string, httpClient *http.Client, redisClient *redis.Client, cacheTTL time.Duration, m2m models.M2MConfig) *Client {
	var tokenCache *auth.RedisTokenCache
	if redisClient != nil {
		tokenCache = auth.NewRedisTokenCache(redisClient)
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		Redis:      redisClient,
		CacheTTL:   cacheTTL,
		M2M:        m2m,
		TokenCache: tokenCache,
	}
}

type confirmationResponse struct {
	GuestID   string `json:"guest_id"`
	Confirmed bool   `json:"confirmed"`
}

// IsConfirmed returns the guest's current confirmation flag. Cached values
// are TTL-bounded; a stale cache can only delay a newly confirmed guest,
// never admit an unconfirmed one past the validator's re-check.
func (c *Client) IsConfirmed(ctx context.Context, guestID string) (bool, error) {
	key := cacheKeyPrefix + guestID

	if c.Redis != nil {
		if val, err := c.Redis.Get(ctx, key).Result(); err == nil {
			return val == "1", nil
		}
	}

	confirmed, err := c.fetchConfirmation(ctx, guestID)
	if err != nil {
		return false, err
	}

	if c.Redis != nil {
		val := "0"
		if confirmed {
			val = "1"
		}
		_ = c.Redis.Set(ctx, key, val, c.CacheTTL).Err()
	}

	return confirmed, nil
}

func (c *Client) fetchConfirmation(ctx context.Context, guestID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/internal/v1/guests/%s/confirmation", c.BaseURL, guestID)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	if c.M2M.KeycloakURL != "" {
		token, err := auth.GetM2MToken(ctx, c.M2M, c.HTTPClient, c.TokenCache)
		if err != nil {
			return false, fmt.Errorf("failed to get M2M token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("rsvp service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("rsvp confirmation lookup failed with status: %d", resp.StatusCode)
	}

	var body confirmationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode confirmation response: %w", err)
	}

	return body.Confirmed, nil
}
