package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// TokenParam is the query parameter carrying an HMAC capability token.
const TokenParam = "token"

const tokenKeyInfo = "blobgate blob token v1"

var (
	// ErrTokenInvalid is returned for tokens that fail verification.
	ErrTokenInvalid = errors.New("storage: invalid access token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("storage: access token expired")
)

type blobClaims struct {
	Permissions string `json:"perm"`
	jwt.RegisteredClaims
}

// HMACSigner issues and checks HS256 JWT capability tokens for backends
// that blobgate serves itself. The signing key is derived per container
// from the account key with HKDF-SHA256, so a token never verifies against
// another container.
type HMACSigner struct{}

var _ URLSigner = HMACSigner{}

// SignToken implements URLSigner. The result is "token=<jwt>".
func (HMACSigner) SignToken(cred *Credential, req TokenRequest) (string, error) {
	key, err := deriveTokenKey(cred, req.Container)
	if err != nil {
		return "", err
	}
	claims := blobClaims{
		Permissions: req.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cred.AccountName(),
			Subject:   req.Key,
			Audience:  jwt.ClaimStrings{req.Container},
			IssuedAt:  jwt.NewNumericDate(req.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(req.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("storage: sign token: %w", err)
	}
	return url.Values{TokenParam: {signed}}.Encode(), nil
}

// Verify checks that token grants read access to key in container at now.
// It returns ErrTokenExpired or ErrTokenInvalid.
func (HMACSigner) Verify(cred *Credential, container, key, token string, now time.Time) error {
	tokenKey, err := deriveTokenKey(cred, container)
	if err != nil {
		return err
	}

	var claims blobClaims
	_, err = jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return tokenKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithAudience(container),
		jwt.WithSubject(key),
		jwt.WithIssuer(cred.AccountName()),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case err != nil:
		return ErrTokenInvalid
	}
	if !strings.Contains(claims.Permissions, "r") {
		return ErrTokenInvalid
	}
	return nil
}

func deriveTokenKey(cred *Credential, container string) ([]byte, error) {
	if cred == nil {
		return nil, errors.New("storage: credential is required to sign tokens")
	}
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, []byte(cred.AccountKey()), []byte(container), []byte(tokenKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("storage: derive token key: %w", err)
	}
	return key, nil
}
