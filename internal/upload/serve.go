package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/redmonkez12/car-api/internal/httputil"
	"github.com/redmonkez12/car-api/internal/logging"
)

// Handler serves stored files. Mount it with http.StripPrefix so the request path
// is the bare stored name.
func Handler(store Store, prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")

		rc, err := store.Open(r.Context(), makeRef(prefix, name))
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidReference) {
				httputil.RespondErrorWithCode(w, "File not found", httputil.CodeFileNotFound, http.StatusNotFound)
				return
			}
			logging.GetLoggerFromContext(r.Context()).Error("failed to open file", "name", name, "error", err)
			httputil.RespondErrorWithCode(w, "Error reading file", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")

		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, name, time.Time{}, rs)
			return
		}
		_, _ = io.Copy(w, rc)
	})
}
