// Package clients holds thin HTTP clients for the external collaborators
// this service decorates its responses with. They never gate engine
// invariants; callers treat every failure as "no decoration available".
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

type Profile struct {
	UserID      uint   `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// ProfileClient looks up display data for a user from the user service.
type ProfileClient interface {
	GetProfile(ctx context.Context, userID uint) (*Profile, error)
}

type httpProfileClient struct {
	baseURL string
	client  *http.Client
}

func NewProfileClient() ProfileClient {
	return &httpProfileClient{
		baseURL: os.Getenv("USER_SERVICE_URL"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *httpProfileClient) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("user service not configured")
	}

	url := fmt.Sprintf("%s/api/users/%d/profile", p.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %v", err)
	}

	return &profile, nil
}
