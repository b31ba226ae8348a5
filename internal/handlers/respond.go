package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"storefront/internal/models"
)

const maxFormBytes = 1 << 20

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// FormResponse describes a form for GET requests on form routes.
type FormResponse struct {
	Form    string   `json:"form"`
	Action  string   `json:"action"`
	Fields  []string `json:"fields"`
	Flashes []string `json:"flashes"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: errorCode, Message: message})
}

// respondWithValidation answers 400 with the per-field messages of err, or
// returns false when err is not a validation failure.
func respondWithValidation(w http.ResponseWriter, err error) bool {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "validation_failed",
		Message: "Please correct the highlighted fields.",
		Fields:  verr.Fields,
	})
	return true
}

// decodeForm fills dst from a JSON body. Form bodies are copied field by
// field into the targets of keys.
func decodeForm(w http.ResponseWriter, r *http.Request, dst interface{}, keys map[string]*string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return json.NewDecoder(r.Body).Decode(dst)
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return err
		}
	} else if err := r.ParseForm(); err != nil {
		return err
	}
	for key, field := range keys {
		*field = r.PostFormValue(key)
	}
	return nil
}
