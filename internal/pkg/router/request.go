package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
}

// GetQuery returns the trimmed query value for key.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt returns the query value for key as int, or def when absent.
func (r *Request) GetQueryInt(key string, def int) (int, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}

	return value, nil
}

// GetHeader returns the trimmed header value for key.
func (r *Request) GetHeader(key string) string {
	return strings.TrimSpace(r.Header.Get(key))
}

// DecodeBody decodes a single JSON object from the body into dst. Unknown
// fields are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// ReadSingleFile returns the content of the first multipart part named name.
// Content larger than limit bytes is rejected with CodePayloadTooLarge; a
// non-positive limit disables the check.
func (r *Request) ReadSingleFile(name string, limit int64) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, goerror.NewInvalidFormat(name + " is required")
		}
		if err != nil {
			return nil, goerror.NewInvalidFormat()
		}

		if part.FormName() != name {
			_, errCopy := io.Copy(io.Discard, part)
			_ = part.Close()
			if errCopy != nil {
				return nil, goerror.NewInvalidFormat()
			}
			continue
		}

		return readPart(part, limit)
	}
}

func readPart(part io.ReadCloser, limit int64) ([]byte, error) {
	defer part.Close()

	src := io.Reader(part)
	if limit > 0 {
		src = io.LimitReader(part, limit+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, goerror.NewBusiness("uploaded file is too large", goerror.CodePayloadTooLarge)
	}

	return data, nil
}
