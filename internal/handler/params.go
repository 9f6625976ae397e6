package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// pathID reads a positive integer path value.
func pathID(r *http.Request, name string) (int64, *AppError) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrResourceNotFound
	}
	return id, nil
}

func includeInactive(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	return err == nil && v
}

// decodeValid decodes the JSON body into dst and runs struct validation,
// writing the error response itself when either step fails.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return false
	}
	if fields := validateStruct(dst); len(fields) > 0 {
		RespondValidationError(w, fields)
		return false
	}
	return true
}
