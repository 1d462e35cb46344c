package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/blobgate/util"
)

const redacted = "[REDACTED]"

// Credential is the account identity used to sign access tokens. It is
// immutable, and every printable form hides the key.
type Credential struct {
	accountName string
	accountKey  string
}

// NewCredential validates and builds a Credential.
func NewCredential(accountName, accountKey string) (*Credential, error) {
	if accountName == "" {
		return nil, errors.New("storage: account name is required")
	}
	if accountKey == "" {
		return nil, errors.New("storage: account key is required")
	}
	return &Credential{accountName: accountName, accountKey: accountKey}, nil
}

// AccountName returns the public half of the credential.
func (c *Credential) AccountName() string { return c.accountName }

// AccountKey returns the secret. Only URLSigner and TokenVerifier
// implementations call it.
func (c *Credential) AccountKey() string { return c.accountKey }

// String implements fmt.Stringer.
func (c *Credential) String() string {
	if c == nil {
		return "Credential(nil)"
	}
	return fmt.Sprintf("Credential(account=%s, key=%s)", util.MaskSecret(c.accountName, 4), redacted)
}

// GoString covers %#v.
func (c *Credential) GoString() string { return c.String() }

// Format covers every other verb, including %v on a dereferenced value.
func (c Credential) Format(f fmt.State, _ rune) {
	_, _ = fmt.Fprint(f, (&c).String())
}

// MarshalJSON keeps the key out of structured logs.
func (c Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"accountName": util.MaskSecret(c.accountName, 4),
		"accountKey":  redacted,
	})
}
