// Package upload persists uploaded image files and resolves the references
// stored on car records.
//
// A reference has the form "<prefix>/<name>" where name is produced by FileName.
// The same reference is the public URL path the file is served under.
package upload

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrInvalidReference = errors.New("invalid file reference")
	ErrTooManyFiles     = errors.New("too many files")
	ErrTooLarge         = errors.New("upload too large")
	ErrMalformed        = errors.New("malformed multipart body")
)

// Store is a blob store for uploaded files
type Store interface {
	// Save writes the content under a new collision-resistant name and returns its reference
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)
	// Open returns the content for a reference, or ErrNotFound
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete removes the content. Deleting a missing file is not an error.
	Delete(ctx context.Context, ref string) error
}

func makeRef(prefix, name string) string {
	return prefix + "/" + name
}

// nameFromRef returns the stored name for a reference under prefix
func nameFromRef(prefix, ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, prefix+"/")
	if !ok || !validName(name) {
		return "", ErrInvalidReference
	}
	return name, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
