package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/kbukum/blobgate/storage"
)

const (
	unsignedPayload = "UNSIGNED-PAYLOAD"
	// maxPresignTTL is the SigV4 limit on X-Amz-Expires.
	maxPresignTTL = 7 * 24 * time.Hour
)

// SignToken implements storage.URLSigner with a SigV4 query presignature
// for GET. The account name and key act as access key ID and secret. The
// result depends only on its inputs because the signing time is
// req.IssuedAt.
func (s *Storage) SignToken(cred *storage.Credential, req storage.TokenRequest) (string, error) {
	if cred == nil {
		return "", errors.New("s3: credential is required to sign tokens")
	}
	if req.Container != s.bucket {
		return "", fmt.Errorf("s3: token requested for bucket %q, backend serves %q", req.Container, s.bucket)
	}
	if !strings.Contains(req.Permissions, "r") {
		return "", fmt.Errorf("s3: presigned URLs grant read only, got permissions %q", req.Permissions)
	}
	ttl := req.ExpiresAt.Sub(req.IssuedAt)
	if ttl < time.Second || ttl > maxPresignTTL {
		return "", fmt.Errorf("s3: token lifetime %s outside [1s, %s]", ttl, maxPresignTTL)
	}

	u, err := url.Parse(s.URL(req.Key))
	if err != nil {
		return "", fmt.Errorf("s3: object url: %w", err)
	}
	q := u.Query()
	q.Set("X-Amz-Expires", strconv.FormatInt(int64(ttl/time.Second), 10))
	u.RawQuery = q.Encode()

	r, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("s3: build presign request: %w", err)
	}
	creds := aws.Credentials{AccessKeyID: cred.AccountName(), SecretAccessKey: cred.AccountKey()}
	signed, _, err := s.signer.PresignHTTP(context.Background(), creds, r, unsignedPayload, "s3", s.region, req.IssuedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	su, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("s3: parse presigned url: %w", err)
	}
	return su.RawQuery, nil
}
