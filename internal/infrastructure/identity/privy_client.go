package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kaiapay.backend/internal/domain/entities"
	domainerrors "kaiapay.backend/internal/domain/errors"
)

const DefaultAPIURL = "https://auth.privy.io"

// linked account types carried in the user payload
const (
	accountSmartWallet = "smart_wallet"
	accountEmail       = "email"
)

type linkedAccount struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

type userPayload struct {
	ID             string          `json:"id"`
	LinkedAccounts []linkedAccount `json:"linked_accounts"`
}

// PrivyClient reads users from the identity provider REST API
type PrivyClient struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
}

// NewPrivyClient creates a client authenticated with the app credentials
func NewPrivyClient(baseURL, appID, appSecret string, timeout time.Duration) *PrivyClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PrivyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      appID,
		appSecret:  appSecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetUser fetches one user; unknown ids return ErrNotFound
func (c *PrivyClient) GetUser(ctx context.Context, userID string) (*entities.IdentityUser, error) {
	endpoint := c.baseURL + "/api/v1/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.appID, c.appSecret)
	req.Header.Set("privy-app-id", c.appID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("identity user %s: %w", userID, domainerrors.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("identity api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode identity user: %w", err)
	}
	return payload.toEntity(), nil
}

func (p *userPayload) toEntity() *entities.IdentityUser {
	user := &entities.IdentityUser{ID: p.ID}
	for _, acc := range p.LinkedAccounts {
		switch acc.Type {
		case accountSmartWallet:
			if user.SmartWalletAddress == "" {
				user.SmartWalletAddress = acc.Address
			}
		case accountEmail:
			if user.Email == "" {
				user.Email = acc.Address
			}
		}
	}
	return user
}
