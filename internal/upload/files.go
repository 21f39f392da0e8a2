package upload

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/redmonkez12/car-api/internal/logging"
)

// SaveAll stores every part and returns the references in input order.
// If any part fails, the files already written are released before returning.
func SaveAll(ctx context.Context, store Store, parts []*multipart.FileHeader, logger *logging.Logger) ([]string, error) {
	refs := make([]string, 0, len(parts))

	for _, part := range parts {
		ref, err := saveOne(ctx, store, part)
		if err != nil {
			Release(ctx, store, refs, logger)
			return nil, fmt.Errorf("failed to store %q: %w", part.Filename, err)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

func saveOne(ctx context.Context, store Store, part *multipart.FileHeader) (string, error) {
	f, err := part.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return store.Save(ctx, part.Filename, f)
}

// Release deletes the referenced files best effort: a failure is logged and the
// remaining files are still deleted. It runs detached from ctx cancellation so a
// timed out request still cleans up after itself.
func Release(ctx context.Context, store Store, refs []string, logger *logging.Logger) {
	if len(refs) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if err := store.Delete(ctx, ref); err != nil {
			logger.Warn("failed to delete file", "ref", ref, "error", err)
		}
	}
}
