package application

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/square/go-jose/v3"
	"github.com/square/go-jose/v3/jwt"
	"golang.org/x/crypto/hkdf"
)

const (
	tokenIssuer  = "meetup-scheduler"
	tokenKeyInfo = "meetup-scheduler session signing key"

	minSecretLength = 16
)

// TokenManager issues and verifies bearer tokens for members.
type TokenManager interface {
	Issue(userID int64) (string, time.Time, error)
	Verify(token string) (int64, error)
}

// TokenIssuer signs HS256 JWTs with a key derived from the configured secret.
type TokenIssuer struct {
	key    []byte
	signer jose.Signer
	ttl    time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	UserID int64 `json:"userId"`
}

// NewTokenIssuer derives the signing key from secret. Tokens expire after ttl.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	if now == nil {
		now = time.Now
	}

	key, err := deriveSigningKey(secret)
	if err != nil {
		return nil, err
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("create token signer: %w", err)
	}

	return &TokenIssuer{key: key, signer: signer, ttl: ttl, now: now}, nil
}

func deriveSigningKey(secret string) ([]byte, error) {
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(tokenKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	return key, nil
}

// Issue returns a signed token for userID and its expiry.
func (t *TokenIssuer) Issue(userID int64) (string, time.Time, error) {
	issuedAt := t.now().UTC()
	expiresAt := issuedAt.Add(t.ttl)

	std := jwt.Claims{
		Issuer:   tokenIssuer,
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: jwt.NewNumericDate(issuedAt),
		Expiry:   jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.Signed(t.signer).Claims(std).Claims(sessionClaims{UserID: userID}).CompactSerialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token and returns the user it was
// issued to.
func (t *TokenIssuer) Verify(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, NewError(KindInvalidToken, "access token is required", nil)
	}

	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return 0, NewError(KindInvalidToken, "invalid token", err)
	}

	var (
		std    jwt.Claims
		custom sessionClaims
	)
	if err := parsed.Claims(t.key, &std, &custom); err != nil {
		return 0, NewError(KindInvalidToken, "invalid token", err)
	}

	if err := std.ValidateWithLeeway(jwt.Expected{Issuer: tokenIssuer, Time: t.now()}, 0); err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return 0, NewError(KindTokenExpired, "token has expired", err)
		}
		return 0, NewError(KindInvalidToken, "invalid token", err)
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil || userID <= 0 || userID != custom.UserID {
		return 0, NewError(KindInvalidToken, "invalid token", fmt.Errorf("subject %q does not identify a user", std.Subject))
	}
	return userID, nil
}
