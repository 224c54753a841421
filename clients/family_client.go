package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Relationship describes how two users relate inside the family graph, as
// computed by the family service.
type Relationship struct {
	SameFamily        bool   `json:"sameFamily"`
	RelationshipLabel string `json:"relationshipLabel"`
	GenerationGap     int    `json:"generationGap"`
}

// FamilyClient answers same-family and relationship queries against the
// family service's graph.
type FamilyClient interface {
	GetRelationship(ctx context.Context, userID, otherUserID uint) (*Relationship, error)
}

type httpFamilyClient struct {
	baseURL string
	client  *http.Client
}

func NewFamilyClient() FamilyClient {
	return &httpFamilyClient{
		baseURL: os.Getenv("FAMILY_SERVICE_URL"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *httpFamilyClient) GetRelationship(ctx context.Context, userID, otherUserID uint) (*Relationship, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("family service not configured")
	}

	url := fmt.Sprintf("%s/api/relationships?userId=%d&otherUserId=%d", f.baseURL, userID, otherUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relationship: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("family service returned %d", resp.StatusCode)
	}

	var relationship Relationship
	if err := json.NewDecoder(resp.Body).Decode(&relationship); err != nil {
		return nil, fmt.Errorf("failed to decode relationship: %v", err)
	}

	return &relationship, nil
}
