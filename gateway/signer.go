package gateway

import (
	"errors"
	"strings"
	"time"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/storage"
	"github.com/kbukum/blobgate/validation"
)

// PermissionRead is the only permission a signed link can carry.
const PermissionRead = "r"

// Credential is the account identity signed links are derived from.
type Credential = storage.Credential

// NewCredential validates and builds a Credential.
func NewCredential(accountName, accountKey string) (*Credential, error) {
	return storage.NewCredential(accountName, accountKey)
}

// SignedAccessToken is a time-limited read capability for one object.
type SignedAccessToken struct {
	// Token is the query string to append to the object URL.
	Token       string    `json:"token"`
	Permissions string    `json:"permissions"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`

	key string
}

// Signer issues SignedAccessTokens. It is the only holder of the
// credential and performs no I/O.
type Signer struct {
	cred    *Credential
	backend storage.Storage
	ttl     time.Duration
}

// NewSigner builds a Signer. A missing credential is a configuration error.
func NewSigner(cred *Credential, backend storage.Storage, ttl time.Duration) (*Signer, error) {
	if cred == nil {
		return nil, errors.New("gateway: signer requires a credential")
	}
	if backend == nil {
		return nil, errors.New("gateway: signer requires a storage backend")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{cred: cred, backend: backend, ttl: ttl}, nil
}

// Sign grants perms on key in container from issuedAt until issuedAt plus
// the configured lifetime. The result depends only on its arguments.
func (s *Signer) Sign(key, container, perms string, issuedAt time.Time) (SignedAccessToken, error) {
	err := validation.New().
		Required("key", key).
		Required("container", container).
		Required("permissions", perms).
		OneOf("permissions", perms, []string{PermissionRead}).
		Validate()
	if err != nil {
		return SignedAccessToken{}, err
	}

	expiresAt := issuedAt.Add(s.ttl)
	token, err := s.backend.SignToken(s.cred, storage.TokenRequest{
		Key:         key,
		Container:   container,
		Permissions: perms,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return SignedAccessToken{}, apperrors.Internal(err)
	}
	return SignedAccessToken{
		Token:       token,
		Permissions: perms,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
		key:         key,
	}, nil
}

// URL joins the object address and the token query string.
func (s *Signer) URL(t SignedAccessToken) string {
	u := s.backend.URL(t.key)
	if t.Token == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + t.Token
}
