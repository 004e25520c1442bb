package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-admission/internal/models"
)

// GetM2MToken retrieves a machine-to-machine token for calls to the RSVP
// collaborator, consulting the Redis cache first when one is provided.
func GetM2MToken(ctx context.Context, cfg models.M2MConfig, client *http.Client, cache *RedisTokenCache) (string, error) {
	if cache != nil {
		if cached, err := cache.GetToken(ctx); err == nil && cached.IsValid() {
			return cached.Token, nil
		}
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", cfg.KeycloakURL, cfg.KeycloakRealm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to get token, status %s: %s", resp.Status, string(bodyBytes))
	}

	var tokenResp models.M2MTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	if cache != nil && tokenResp.ExpiresIn > 0 {
		_ = cache.SetToken(ctx, tokenResp.AccessToken, tokenResp.ExpiresIn)
	}

	return tokenResp.AccessToken, nil
}
