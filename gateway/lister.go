package gateway

import (
	"context"
	"iter"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/storage"
	"github.com/kbukum/blobgate/validation"
)

// ObjectMetadata describes one file directly inside a folder.
type ObjectMetadata struct {
	// Name is the key relative to the folder.
	Name string `json:"name"`
	// FullKey is the complete object key, sent as fullName.
	FullKey string `json:"fullName"`
	// URL is a signed read link valid for the token lifetime.
	URL string `json:"url"`
	// MimeType is empty for s3 listings unless head_on_list is set.
	MimeType string `json:"mimeType,omitempty"`
	// CreationTime is the backend's last-modified time. Objects are never
	// overwritten, so it is when the upload completed.
	CreationTime *time.Time `json:"creationTime,omitempty"`
}

// List returns the files directly inside folder, each with a signed read
// link. Nested folders are not descended into. A folder with no files
// yields an empty, non-nil slice.
func (g *Gateway) List(ctx context.Context, folder string) (_ []ObjectMetadata, err error) {
	ctx, op := observability.StartOperation(ctx, OpList, g.metrics,
		attribute.String(observability.AttrFolder, folder))
	defer func() { op.End(ctx, err) }()

	if err := validateFolder(folder); err != nil {
		return nil, err
	}
	prefix := folderPrefix(folder)
	container := g.store.Container()
	issuedAt := g.now()

	files := []ObjectMetadata{}
	for info, lerr := range g.objects(ctx, prefix) {
		if lerr != nil {
			return nil, g.fail(OpList, lerr, logger.Fields(logger.FieldFolder, folder))
		}
		tok, serr := g.signer.Sign(info.Key, container, PermissionRead, issuedAt)
		if serr != nil {
			return nil, g.fail(OpList, serr, logger.Fields(logger.FieldFolder, folder, logger.FieldKey, info.Key))
		}
		md := ObjectMetadata{
			Name:     info.Key[len(prefix):],
			FullKey:  info.Key,
			URL:      g.signer.URL(tok),
			MimeType: info.ContentType,
		}
		if !info.LastModified.IsZero() {
			t := info.LastModified.UTC()
			md.CreationTime = &t
		}
		files = append(files, md)
	}

	op.SetAttributes(attribute.Int(observability.AttrCount, len(files)))
	g.log.Debug("folder listed", logger.Fields(logger.FieldFolder, folder, logger.FieldCount, len(files)))
	return files, nil
}

// Count returns the number of files directly inside folder. On a quiescent
// backend it equals len(List(folder)).
func (g *Gateway) Count(ctx context.Context, folder string) (_ int, err error) {
	ctx, op := observability.StartOperation(ctx, OpCount, g.metrics,
		attribute.String(observability.AttrFolder, folder))
	defer func() { op.End(ctx, err) }()

	if err := validateFolder(folder); err != nil {
		return 0, err
	}
	n := 0
	for _, lerr := range g.objects(ctx, folderPrefix(folder)) {
		if lerr != nil {
			return 0, g.fail(OpCount, lerr, logger.Fields(logger.FieldFolder, folder))
		}
		n++
	}
	op.SetAttributes(attribute.Int(observability.AttrCount, n))
	return n, nil
}

// objects yields the objects one level below prefix. Folded prefixes are
// skipped, and so is any object whose name still contains "/" for
// backends that ignore the delimiter.
func (g *Gateway) objects(ctx context.Context, prefix string) iter.Seq2[storage.ObjectInfo, error] {
	return func(yield func(storage.ObjectInfo, error) bool) {
		for e, err := range g.store.List(ctx, prefix, "/") {
			if err != nil {
				yield(storage.ObjectInfo{}, err)
				return
			}
			if e.Kind != storage.EntryObject || !strings.HasPrefix(e.Key, prefix) {
				continue
			}
			name := e.Key[len(prefix):]
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			if !yield(e.ObjectInfo, nil) {
				return
			}
		}
	}
}

// maxFolderLen leaves room for the generated name under the 1024-byte
// object key limit S3 and Azure share.
const maxFolderLen = 512

func validateFolder(folder string) error {
	return validation.New().
		Folder("folder", folder).
		MaxLength("folder", folder, maxFolderLen).
		Validate()
}
