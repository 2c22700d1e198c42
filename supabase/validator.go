package supabase

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed or its signature fails
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token's exp claim is not in the future
	ErrTokenExpired = errors.New("token expired")

	// ErrUnexpectedAlgorithm is returned when the token is signed with an
	// algorithm other than the one the trust material expects
	ErrUnexpectedAlgorithm = errors.New("unexpected signing algorithm")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// Config holds configuration for the Validator. JWKSURL selects rotating-key
// verification (RS256) and takes precedence; otherwise JWTSecret selects
// shared-secret verification (HS256, the Supabase default).
type Config struct {
	Issuer      string
	Audience    string
	JWTSecret   string
	JWKSURL     string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// keySource resolves the verification key for a token. Implementations are
// responsible for rejecting unexpected signing algorithms so that a token
// cannot pick its own verification scheme.
type keySource interface {
	key(ctx context.Context, token *jwt.Token) (interface{}, error)
}

// Validator validates Supabase JWTs against configured trust material.
// Validation is pure: it never touches durable storage.
type Validator struct {
	issuer   string
	audience string
	keys     keySource
}

// NewValidator creates a new Validator from the given config
func NewValidator(config Config) *Validator {
	if config.CacheTTL == 0 {
		config.CacheTTL = 1 * time.Hour
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 10 * time.Second
	}

	var keys keySource
	if config.JWKSURL != "" {
		keys = &jwksKeySource{
			jwksURL:      config.JWKSURL,
			jwksCacheTTL: config.CacheTTL,
			httpClient: &http.Client{
				Timeout: config.HTTPTimeout,
			},
			keyCache: make(map[string]*rsa.PublicKey),
		}
	} else {
		keys = &secretKeySource{secret: []byte(config.JWTSecret)}
	}

	return &Validator{
		issuer:   config.Issuer,
		audience: config.Audience,
		keys:     keys,
	}
}

// ValidateToken validates a JWT and returns its claims. Checks run in order:
// signature, signing algorithm, issuer, audience, expiry. Each failure maps
// to a distinct sentinel error.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.keys.key(ctx, token)
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrUnexpectedAlgorithm):
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgorithm, err)
		case errors.Is(err, ErrJWKSFetchFailed):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidIssuer, v.issuer, claims.Issuer)
	}

	if len(claims.Audience) == 0 || !claims.hasAudience(v.audience) {
		return nil, ErrInvalidAudience
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	// A token that references a server-tracked session must carry an expiry;
	// otherwise the session record it would create is dead on arrival.
	if claims.SessionID != "" && claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: session-bearing token missing exp claim", ErrInvalidToken)
	}

	return claims, nil
}

// secretKeySource verifies tokens against a shared HMAC secret
type secretKeySource struct {
	secret []byte
}

func (s *secretKeySource) key(ctx context.Context, token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgorithm, token.Header["alg"])
	}
	return s.secret, nil
}

// jwksKeySource verifies tokens against a rotating RSA key set fetched from a
// JWKS endpoint. The key set is cached with a TTL so a slow or unavailable
// endpoint cannot stall every request, and parsed public keys are cached by
// kid.
type jwksKeySource struct {
	jwksURL    string
	httpClient *http.Client

	jwksCache    *JWKS
	jwksCacheExp time.Time
	jwksCacheTTL time.Duration
	cacheMu      sync.RWMutex

	keyCache   map[string]*rsa.PublicKey
	keyCacheMu sync.RWMutex
}

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (s *jwksKeySource) key(ctx context.Context, token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgorithm, token.Header["alg"])
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, errors.New("kid header not found")
	}

	publicKey, err := s.getPublicKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	return publicKey, nil
}

// fetchJWKS returns the cached key set, refetching when the TTL has lapsed
func (s *jwksKeySource) fetchJWKS(ctx context.Context) (*JWKS, error) {
	s.cacheMu.RLock()
	if s.jwksCache != nil && time.Now().Before(s.jwksCacheExp) {
		defer s.cacheMu.RUnlock()
		return s.jwksCache, nil
	}
	s.cacheMu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	s.cacheMu.Lock()
	s.jwksCache = &jwks
	s.jwksCacheExp = time.Now().Add(s.jwksCacheTTL)
	s.cacheMu.Unlock()

	return &jwks, nil
}

// getPublicKey retrieves the public key for a given kid
func (s *jwksKeySource) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.keyCacheMu.RLock()
	if key, exists := s.keyCache[kid]; exists {
		s.keyCacheMu.RUnlock()
		return key, nil
	}
	s.keyCacheMu.RUnlock()

	jwks, err := s.fetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	var jwk *JWK
	for i := range jwks.Keys {
		if jwks.Keys[i].Kid == kid {
			jwk = &jwks.Keys[i]
			break
		}
	}

	if jwk == nil {
		return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
	}

	publicKey, err := jwkToRSAPublicKey(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}

	s.keyCacheMu.Lock()
	s.keyCache[kid] = publicKey
	s.keyCacheMu.Unlock()

	return publicKey, nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}

// invalidate drops cached key material, forcing a refetch on the next
// validation. Useful for tests and forced rotation.
func (s *jwksKeySource) invalidate() {
	s.cacheMu.Lock()
	s.jwksCache = nil
	s.jwksCacheExp = time.Time{}
	s.cacheMu.Unlock()

	s.keyCacheMu.Lock()
	s.keyCache = make(map[string]*rsa.PublicKey)
	s.keyCacheMu.Unlock()
}

// InvalidateKeyCache drops any cached JWKS material. It is a no-op in
// shared-secret mode.
func (v *Validator) InvalidateKeyCache() {
	if s, ok := v.keys.(*jwksKeySource); ok {
		s.invalidate()
	}
}
