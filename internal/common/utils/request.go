// internal/common/utils/request.go
// Request body decoding for JSON and HTML-form clients

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// ErrInvalidBody is returned when the request body cannot be decoded
var ErrInvalidBody = errors.New("invalid request body")

const maxFormMemory = 1 << 20

// DecodeRequest fills dst from a JSON body or from form values.
// Form fields are matched against dst's json tags, so one request struct serves both.
func DecodeRequest(r *http.Request, dst interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm(r, mediaType, dst)
	default:
		if r.Body == nil || r.Body == http.NoBody {
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		}
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return nil
	}
}

func decodeForm(r *http.Request, mediaType string, dst interface{}) error {
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	values := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		values[key] = r.PostForm.Get(key)
	}

	// round-trip through JSON so struct tags drive the mapping
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
