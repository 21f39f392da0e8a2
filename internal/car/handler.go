package car

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/car-api/internal/auth"
	"github.com/redmonkez12/car-api/internal/httputil"
	"github.com/redmonkez12/car-api/internal/logging"
	"github.com/redmonkez12/car-api/internal/upload"
)

// ImagesField is the multipart field carrying the listing images
const ImagesField = "images"

type contextKey string

const carContextKey contextKey = "car"

// Handler contains HTTP handlers for car listing endpoints
type Handler struct {
	service        *Service
	maxFiles       int
	maxUploadBytes int64
	isProduction   bool
}

func NewHandler(service *Service, maxFiles int, maxUploadBytes int64, isProduction bool) *Handler {
	return &Handler{
		service:        service,
		maxFiles:       maxFiles,
		maxUploadBytes: maxUploadBytes,
		isProduction:   isProduction,
	}
}

// CarResponse wraps a single listing
type CarResponse struct {
	Message string `json:"message,omitempty"`
	Car     *Car   `json:"car"`
}

// CarsResponse wraps the caller's listings
type CarsResponse struct {
	Cars []Car `json:"cars"`
}

// form is the text part of a create or update request
type form struct {
	title       string
	description string
	tags        string
}

// Create handles POST /api/cars
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Access denied. No token provided.", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	f, files, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer upload.RemoveForm(r)

	c, err := h.service.Create(r.Context(), userID, CreateInput{
		Title:       f.title,
		Description: f.description,
		Tags:        f.tags,
	}, files)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			logger.Warn("car creation failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Title and description are required", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("car creation failed", "error", err.Error())
		httputil.RespondInternalError(w, "Error creating car", err, !h.isProduction)
		return
	}

	httputil.RespondJSON(w, CarResponse{Message: "Car created successfully", Car: c}, http.StatusCreated)
}

// List handles GET /api/cars
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Access denied. No token provided.", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	cars, err := h.service.List(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list cars", "error", err.Error())
		httputil.RespondInternalError(w, "Error fetching cars", err, !h.isProduction)
		return
	}

	httputil.RespondJSON(w, CarsResponse{Cars: cars}, http.StatusOK)
}

// Get handles GET /api/cars/{carId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	c, err := h.service.Get(r.Context(), chi.URLParam(r, "carId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "Car not found", httputil.CodeCarNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get car", "error", err.Error())
		httputil.RespondInternalError(w, "Error fetching car", err, !h.isProduction)
		return
	}

	httputil.RespondJSON(w, CarResponse{Car: c}, http.StatusOK)
}

// Update handles PUT /api/cars/{carId}. Runs behind RequireOwner.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	existing, ok := CarFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Car not found", httputil.CodeCarNotFound, http.StatusNotFound)
		return
	}

	f, files, ok := h.readForm(w, r)
	if !ok {
		return
	}
	defer upload.RemoveForm(r)

	updated, err := h.service.Update(r.Context(), existing, f.updateFields(), files)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "Car not found", httputil.CodeCarNotFound, http.StatusNotFound)
			return
		}
		logger.Error("car update failed", "car_id", existing.ID, "error", err.Error())
		httputil.RespondInternalError(w, "Error updating car", err, !h.isProduction)
		return
	}

	httputil.RespondJSON(w, CarResponse{Message: "Car updated successfully", Car: updated}, http.StatusOK)
}

// Delete handles DELETE /api/cars/{carId}. Runs behind RequireOwner.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	existing, ok := CarFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Car not found", httputil.CodeCarNotFound, http.StatusNotFound)
		return
	}

	if err := h.service.Delete(r.Context(), existing.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "Car not found", httputil.CodeCarNotFound, http.StatusNotFound)
			return
		}
		logger.Error("car deletion failed", "car_id", existing.ID, "error", err.Error())
		httputil.RespondInternalError(w, "Error deleting car", err, !h.isProduction)
		return
	}

	httputil.RespondMessage(w, "Car deleted successfully", http.StatusOK)
}

// RequireOwner loads the {carId} listing and lets the request through only when the
// authenticated user owns it. The listing is available to the next handler via CarFromContext.
func (h *Handler) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			httputil.RespondErrorWithCode(w, "Access denied. No token provided.", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		carID := chi.URLParam(r, "carId")
		c, err := h.service.Authorize(r.Context(), userID, carID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				httputil.RespondErrorWithCode(w, "Car not found", httputil.CodeCarNotFound, http.StatusNotFound)
			case errors.Is(err, ErrForbidden):
				logger.Warn("car access denied", "car_id", carID, "user_id", userID)
				httputil.RespondErrorWithCode(w, "You are not allowed to modify this car", httputil.CodeNotCarOwner, http.StatusForbidden)
			default:
				logger.Error("failed to authorize car access", "car_id", carID, "error", err.Error())
				httputil.RespondInternalError(w, "Error fetching car", err, !h.isProduction)
			}
			return
		}

		ctx := context.WithValue(r.Context(), carContextKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CarFromContext returns the listing authorized by RequireOwner
func CarFromContext(ctx context.Context) (*Car, bool) {
	c, ok := ctx.Value(carContextKey).(*Car)
	return c, ok
}

// readForm reads the text fields and image files of a multipart or urlencoded body.
// It writes the error response itself and reports whether the request may proceed.
func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (form, []*multipart.FileHeader, bool) {
	logger := logging.GetLoggerFromContext(r.Context())

	var files []*multipart.FileHeader
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		var err error
		files, err = upload.ParseFiles(w, r, ImagesField, h.maxFiles, h.maxUploadBytes)
		if err != nil {
			logger.Warn("invalid upload", "error", err.Error())
			switch {
			case errors.Is(err, upload.ErrTooManyFiles):
				httputil.RespondErrorWithCode(w, "Too many files", httputil.CodeTooManyFiles, http.StatusBadRequest)
			case errors.Is(err, upload.ErrTooLarge):
				httputil.RespondErrorWithCode(w, "Upload too large", httputil.CodeInvalidUpload, http.StatusRequestEntityTooLarge)
			default:
				httputil.RespondErrorWithCode(w, "Invalid upload", httputil.CodeInvalidUpload, http.StatusBadRequest)
			}
			return form{}, nil, false
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseForm(); err != nil {
			logger.Warn("invalid request body", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return form{}, nil, false
		}
	}

	return form{
		title:       r.FormValue("title"),
		description: r.FormValue("description"),
		tags:        r.FormValue("tags"),
	}, files, true
}

// updateFields keeps only the non-empty values, an empty field means "unchanged"
func (f form) updateFields() UpdateFields {
	var fields UpdateFields
	if f.title != "" {
		fields.Title = &f.title
	}
	if f.description != "" {
		fields.Description = &f.description
	}
	if f.tags != "" {
		tags := SplitTags(f.tags)
		fields.Tags = &tags
	}
	return fields
}
