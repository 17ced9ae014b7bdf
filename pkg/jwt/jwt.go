package jwt

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrUnknownKey   = errors.New("no verification key for token")
)

// DefaultIssuer is the issuer of identity-provider access tokens
const DefaultIssuer = "privy.io"

// Claims are the claims of an identity-provider access token
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// UserID is the identity-provider user id (the subject)
func (c *Claims) UserID() string {
	return c.Subject
}

// KeySource resolves the ES256 public key for a token key id
type KeySource interface {
	Key(ctx context.Context, kid string) (*ecdsa.PublicKey, error)
}

// Verifier validates ES256 access tokens for one application
type Verifier struct {
	appID  string
	issuer string
	keys   KeySource
}

// NewVerifier creates a verifier; the audience must equal appID
func NewVerifier(appID, issuer string, keys KeySource) *Verifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Verifier{appID: appID, issuer: issuer, keys: keys}
}

// ValidateToken validates a token and returns its claims
func (v *Verifier) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, ErrInvalidToken
		}
		kid, _ := token.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.appID),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// StaticKey serves one PEM encoded verification key for every kid
type StaticKey struct {
	key *ecdsa.PublicKey
}

// NewStaticKey parses a PEM (SPKI) ES256 public key
func NewStaticKey(pem string) (*StaticKey, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(strings.ReplaceAll(pem, `\n`, "\n")))
	if err != nil {
		return nil, fmt.Errorf("parse verification key: %w", err)
	}
	return &StaticKey{key: key}, nil
}

// Key returns the static key
func (s *StaticKey) Key(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	return s.key, nil
}

var fetchJWKS = func(ctx context.Context, client *http.Client, url string) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}
	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}
	return &set, nil
}

// JWKS resolves keys from a JSON Web Key Set url, refreshed at most once per ttl
type JWKS struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.RWMutex
	set       *jose.JSONWebKeySet
	fetchedAt time.Time
}

// NewJWKS creates a caching JWKS key source
func NewJWKS(url string, ttl time.Duration, client *http.Client) *JWKS {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &JWKS{url: url, ttl: ttl, client: client}
}

// Key returns the EC key with the given kid, refetching the set on a miss
func (j *JWKS) Key(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	j.mu.RLock()
	set, fresh := j.set, time.Since(j.fetchedAt) < j.ttl
	j.mu.RUnlock()

	if set != nil && fresh {
		if key, ok := pickECKey(set, kid); ok {
			return key, nil
		}
	}

	set, err := fetchJWKS(ctx, j.client, j.url)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	j.set = set
	j.fetchedAt = time.Now()
	j.mu.Unlock()

	if key, ok := pickECKey(set, kid); ok {
		return key, nil
	}
	return nil, ErrUnknownKey
}

func pickECKey(set *jose.JSONWebKeySet, kid string) (*ecdsa.PublicKey, bool) {
	candidates := set.Keys
	if kid != "" {
		candidates = set.Key(kid)
	}
	for _, k := range candidates {
		if pub, ok := k.Key.(*ecdsa.PublicKey); ok {
			return pub, true
		}
	}
	return nil, false
}
