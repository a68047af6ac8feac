package handlers

import (
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/storage"
	"chatapp-servers/internal/store"
	"chatapp-servers/internal/validator"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

const maxUploadSize = 16 << 20

func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.FormValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	err := r.ParseMultipartForm(maxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "Couldn't parse form", http.StatusBadRequest)
		return false
	}
	return true
}

// formUpload returns nil when the field has no file.
func formUpload(r *http.Request, field string) (*storage.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	upload, err := storage.FromForm(r, field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return upload, err
}

// validateRequest writes the field errors as JSON with status 400 when v is invalid.
func validateRequest(w http.ResponseWriter, v any) bool {
	fieldErrors, err := validator.Struct(v)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return false
	}
	if fieldErrors == nil {
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	err = json.NewEncoder(w).Encode(fieldErrors)
	if err != nil {
		sugar.Error(err)
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
	}
}

var uploadErrors = []error{validator.ErrImageTooLarge, validator.ErrBadExtension, validator.ErrBadImage}

func handleError(w http.ResponseWriter, err error) {
	for _, uploadErr := range uploadErrors {
		if errors.Is(err, uploadErr) {
			sugar.Debug(err)
			http.Error(w, uploadErr.Error(), http.StatusBadRequest)
			return
		}
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		sugar.Debug(err)
		http.Error(w, "", http.StatusNotFound)
	case errors.Is(err, store.ErrForbidden):
		sugar.Warn(err)
		http.Error(w, "", http.StatusForbidden)
	case errors.Is(err, store.ErrAlreadyExists):
		sugar.Debug(err)
		http.Error(w, "", http.StatusConflict)
	default:
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
	}
}

// emit runs after the change is committed, so failing to notify is only logged.
func emit(messageType string, channelType string, payload any, id int64) {
	err := hub.Emit(messageType, channelType, payload, id)
	if err != nil {
		sugar.Error(err)
	}
}

func subscribe(r *http.Request, id int64, channelType string) {
	sessionID := sessionIDFrom(r)
	if sessionID == 0 {
		return
	}

	err := hub.Subscribe(id, channelType, sessionID)
	if err != nil {
		sugar.Error(err)
	}
}
