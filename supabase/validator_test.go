package supabase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://test-project.supabase.co/auth/v1"
	testAudience = "authenticated"
	testSecret   = "super-secret-jwt-signing-key"
)

// Test helper to generate an RSA key pair
func generateTestKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey, &privateKey.PublicKey
}

// Test helper to create a mock JWKS server, counting fetches
func createMockJWKSServer(t *testing.T, publicKey *rsa.PublicKey, kid string, fetches *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			fetches.Add(1)
		}

		nBytes := publicKey.N.Bytes()
		eBytes := big.NewInt(int64(publicKey.E)).Bytes()

		jwks := JWKS{
			Keys: []JWK{
				{
					Kid: kid,
					Kty: "RSA",
					Alg: "RS256",
					Use: "sig",
					N:   base64.RawURLEncoding.EncodeToString(nBytes),
					E:   base64.RawURLEncoding.EncodeToString(eBytes),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	}))
}

func baseClaims(expiresAt time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "user-sub-123",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:     "user@example.com",
		Role:      "authenticated",
		SessionID: "session-abc",
		AAL:       "aal1",
	}
}

// Test helper to create an HS256 token signed with the shared secret
func createHSToken(t *testing.T, secret string, claims *Claims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

// Test helper to create an RS256 token with a kid header
func createRSToken(t *testing.T, privateKey *rsa.PrivateKey, kid string, claims *Claims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	tokenString, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return tokenString
}

func newSecretValidator() *Validator {
	return NewValidator(Config{
		Issuer:    testIssuer,
		Audience:  testAudience,
		JWTSecret: testSecret,
	})
}

func TestValidateToken_SharedSecret(t *testing.T) {
	validator := newSecretValidator()
	tokenString := createHSToken(t, testSecret, baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	require.NoError(t, err)
	assert.Equal(t, "user-sub-123", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
	assert.Equal(t, "session-abc", claims.SessionID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	validator := newSecretValidator()
	tokenString := createHSToken(t, "a-different-secret", baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	validator := newSecretValidator()
	tokenString := createHSToken(t, testSecret, baseClaims(time.Now().Add(-time.Minute)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	validator := newSecretValidator()
	claims := baseClaims(time.Now().Add(time.Hour))
	claims.Issuer = "https://other-project.supabase.co/auth/v1"
	tokenString := createHSToken(t, testSecret, claims)

	result, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestValidateToken_WrongAudience(t *testing.T) {
	validator := newSecretValidator()
	claims := baseClaims(time.Now().Add(time.Hour))
	claims.Audience = jwt.ClaimStrings{"anon"}
	tokenString := createHSToken(t, testSecret, claims)

	result, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidAudience)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	validator := newSecretValidator()
	claims := baseClaims(time.Now().Add(time.Hour))
	claims.Subject = ""
	tokenString := createHSToken(t, testSecret, claims)

	result, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_SessionTokenWithoutExpiry(t *testing.T) {
	validator := newSecretValidator()
	claims := baseClaims(time.Time{})
	claims.ExpiresAt = nil
	tokenString := createHSToken(t, testSecret, claims)

	result, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_NoSessionNoExpiryAccepted(t *testing.T) {
	validator := newSecretValidator()
	claims := baseClaims(time.Time{})
	claims.ExpiresAt = nil
	claims.SessionID = ""
	tokenString := createHSToken(t, testSecret, claims)

	result, err := validator.ValidateToken(context.Background(), tokenString)

	require.NoError(t, err)
	assert.Equal(t, "user-sub-123", result.Subject)
	_, ok := result.Expiry()
	assert.False(t, ok)
}

func TestValidateToken_Malformed(t *testing.T) {
	validator := newSecretValidator()

	claims, err := validator.ValidateToken(context.Background(), "not-a-jwt")

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_SecretModeRejectsRS256(t *testing.T) {
	privateKey, _ := generateTestKeyPair(t)
	validator := newSecretValidator()
	tokenString := createRSToken(t, privateKey, "kid-1", baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrUnexpectedAlgorithm)
}

func TestValidateToken_JWKS(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	kid := "test-kid-123"
	server := createMockJWKSServer(t, publicKey, kid, nil)
	defer server.Close()

	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
	})
	tokenString := createRSToken(t, privateKey, kid, baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	require.NoError(t, err)
	assert.Equal(t, "user-sub-123", claims.Subject)
	assert.Equal(t, "session-abc", claims.SessionID)
}

func TestValidateToken_JWKSModeRejectsHS256(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	server := createMockJWKSServer(t, publicKey, "kid-1", nil)
	defer server.Close()

	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
	})

	// An HS256 token must never be verified against key material meant for
	// RS256, even if it is otherwise well formed.
	tokenString := createHSToken(t, testSecret, baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrUnexpectedAlgorithm)
}

func TestValidateToken_JWKSUnavailable(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	kid := "test-kid-123"
	server := createMockJWKSServer(t, publicKey, kid, nil)
	server.Close()

	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
	})
	tokenString := createRSToken(t, privateKey, kid, baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrJWKSFetchFailed)
}

func TestValidateToken_JWKSServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	privateKey, _ := generateTestKeyPair(t)
	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
	})
	tokenString := createRSToken(t, privateKey, "kid-1", baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrJWKSFetchFailed)
}

func TestValidateToken_JWKSUnknownKid(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server := createMockJWKSServer(t, publicKey, "known-kid", nil)
	defer server.Close()

	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
	})
	tokenString := createRSToken(t, privateKey, "unknown-kid", baseClaims(time.Now().Add(time.Hour)))

	claims, err := validator.ValidateToken(context.Background(), tokenString)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_JWKSCachesKeys(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	kid := "test-kid-123"

	var fetches atomic.Int64
	server := createMockJWKSServer(t, publicKey, kid, &fetches)
	defer server.Close()

	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
		CacheTTL: time.Hour,
	})

	for i := 0; i < 3; i++ {
		tokenString := createRSToken(t, privateKey, kid, baseClaims(time.Now().Add(time.Hour)))
		_, err := validator.ValidateToken(context.Background(), tokenString)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), fetches.Load())
}

func TestInvalidateKeyCache(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	kid := "test-kid-123"

	var fetches atomic.Int64
	server := createMockJWKSServer(t, publicKey, kid, &fetches)
	defer server.Close()

	validator := NewValidator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
		JWKSURL:  server.URL,
		CacheTTL: time.Hour,
	})

	tokenString := createRSToken(t, privateKey, kid, baseClaims(time.Now().Add(time.Hour)))
	_, err := validator.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)
	require.Equal(t, int64(1), fetches.Load())

	validator.InvalidateKeyCache()

	_, err = validator.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestInvalidateKeyCache_SecretModeNoop(t *testing.T) {
	validator := newSecretValidator()
	validator.InvalidateKeyCache()

	tokenString := createHSToken(t, testSecret, baseClaims(time.Now().Add(time.Hour)))
	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.NoError(t, err)
}
