package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/content-gateway/internal/domain"
	"github.com/spec-kit/content-gateway/internal/policy"
)

const testSecret = "unit-test-secret"

func testAccount() *domain.Account {
	return &domain.Account{
		ID:    42,
		Email: "viewer@example.com",
		Tier:  policy.TierPremium,
	}
}

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, exp, err := tm.Issue(testAccount())
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(token, ".")+1, "token must have three segments")
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.ID)
	require.Equal(t, "viewer@example.com", claims.Email)
	require.Equal(t, policy.TierPremium, claims.Tier)
}

func TestVerify_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	// Sign an already-expired token with the same secret.
	now := time.Now()
	claims := &Claims{
		ID:    42,
		Email: "viewer@example.com",
		Tier:  policy.TierPremium,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("other-secret", time.Hour)
	verifier := NewTokenManager(testSecret, time.Hour)

	token, _, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_TamperedPayload(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, _, err := tm.Issue(testAccount())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Every altered payload byte must break verification.
	payload := []byte(parts[1])
	for i := range payload {
		mutated := make([]byte, len(payload))
		copy(mutated, payload)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		forged := parts[0] + "." + string(mutated) + "." + parts[2]
		_, err := tm.Verify(forged)
		require.Error(t, err, "payload byte %d altered but token verified", i)
	}
}

func TestVerify_Malformed(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	for _, token := range []string{"", "a", "a.b", "a.b.c.d", "not a token at all"} {
		_, err := tm.Verify(token)
		require.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
	}
}

func TestVerify_MissingClaims(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	now := time.Now()

	sign := func(claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	t.Run("missing id", func(t *testing.T) {
		token := sign(&Claims{
			Tier: policy.TierFree,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		_, err := tm.Verify(token)
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("missing tier", func(t *testing.T) {
		token := sign(&Claims{
			ID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		_, err := tm.Verify(token)
		require.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestVerify_RejectsUnexpectedAlg(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	claims := jwt.MapClaims{
		"id":   42,
		"tier": "premium",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
}
