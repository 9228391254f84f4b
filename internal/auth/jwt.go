package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	jwt "github.com/golang-jwt/jwt/v5"
)

// Identity is what the hosted identity provider vouches for.
type Identity struct {
	Subject  string
	Email    string
	FullName string
}

type Claims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens. Local HS256 verification is preferred;
// the provider's /user endpoint is the fallback when no secret is set.
type Verifier struct {
	secret  []byte
	authURL string
	anonKey string
	client  *http.Client
}

func NewVerifier(secret, authURL, anonKey string) *Verifier {
	return &Verifier{
		secret:  []byte(secret),
		authURL: strings.TrimRight(authURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if len(v.secret) > 0 {
		return v.verifyLocal(token)
	}
	if v.authURL != "" {
		return v.verifyRemote(ctx, token)
	}
	return nil, errors.New("no token verification method configured")
}

func (v *Verifier) verifyLocal(token string) (*Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if claims.Role != "" && claims.Role != "authenticated" {
		return nil, fmt.Errorf("unexpected token role %q", claims.Role)
	}
	return &Identity{
		Subject:  claims.Subject,
		Email:    strings.ToLower(claims.Email),
		FullName: metadataString(claims.UserMetadata, "full_name"),
	}, nil
}

func (v *Verifier) verifyRemote(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.authURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.anonKey != "" {
		req.Header.Set("apikey", v.anonKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("verify token: status %d", resp.StatusCode)
	}

	var user struct {
		ID           string                 `json:"id"`
		Email        string                 `json:"email"`
		UserMetadata map[string]interface{} `json:"user_metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return nil, errors.New("verify token: empty user id")
	}
	return &Identity{
		Subject:  user.ID,
		Email:    strings.ToLower(user.Email),
		FullName: metadataString(user.UserMetadata, "full_name"),
	}, nil
}

func metadataString(md map[string]interface{}, key string) string {
	if md == nil {
		return ""
	}
	s, _ := md[key].(string)
	return s
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}
