package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

// maxMemory is the part of a multipart body kept in memory, the rest spills to temp files
const maxMemory = 8 << 20

// ParseFiles parses a multipart request body (capped at maxBytes) and returns up to
// maxFiles file parts sent under field, in the order they were sent.
// Form values are available through r.FormValue afterwards. On success the caller
// must RemoveForm(r) once the parts are no longer needed.
func ParseFiles(w http.ResponseWriter, r *http.Request, field string, maxFiles int, maxBytes int64) ([]*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		RemoveForm(r)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	files := r.MultipartForm.File[field]
	if len(files) > maxFiles {
		RemoveForm(r)
		return nil, fmt.Errorf("%w: got %d, at most %d allowed", ErrTooManyFiles, len(files), maxFiles)
	}

	return files, nil
}

// RemoveForm deletes the temp files of a parsed multipart form. The server only cleans
// up the form of the request it created, not of copies made by middleware.
func RemoveForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
