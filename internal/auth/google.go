package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var ErrEmailNotVerified = errors.New("email not verified")

// GoogleUserInfo is the subset of Google's tokeninfo response we use.
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,string"`
	Picture       string `json:"picture"`
	Name          string `json:"name"`
	Audience      string `json:"aud"`
}

// GoogleVerifier validates ID tokens against the tokeninfo endpoint. Only
// tokens issued to clientID are accepted.
type GoogleVerifier struct {
	endpoint string
	clientID string
	client   *http.Client
}

func NewGoogleVerifier(endpoint, clientID string, client *http.Client) *GoogleVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{endpoint: endpoint, clientID: clientID, client: client}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	u, err := url.Parse(v.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo url: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var user GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if user.Sub == "" || user.Email == "" {
		return nil, ErrInvalidToken
	}
	if v.clientID == "" || user.Audience != v.clientID {
		return nil, fmt.Errorf("%w: audience %q", ErrInvalidToken, user.Audience)
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	return &user, nil
}
