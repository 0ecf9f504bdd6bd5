package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/goliatone/go-errors"
)

// Request describes one API call. Fallback is the human-readable message
// used when the server error body carries none.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     Body
	Fallback string
}

// Body is a request payload. Implementations rebuild their reader on every
// call so a request can be retried after a token refresh.
type Body interface {
	build() (io.Reader, string, error)
}

type jsonBody struct {
	value any
}

// JSON wraps a value for encoding as an application/json request body.
func JSON(v any) Body {
	return jsonBody{value: v}
}

func (b jsonBody) build() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryBadInput, "failed to encode request body")
	}
	return bytes.NewReader(data), "application/json", nil
}

type formField struct {
	key   string
	value string
}

type formFile struct {
	key      string
	filename string
	content  []byte
}

// FormData is a multipart/form-data payload. It is sent as-is, field order
// preserved, and is never re-encoded as JSON. Uploads buffer their content
// so the payload can be rebuilt on retry.
type FormData struct {
	fields []formField
	files  []formFile
}

// NewFormData returns an empty multipart payload.
func NewFormData() *FormData {
	return &FormData{}
}

// Set appends a text field.
func (f *FormData) Set(key, value string) *FormData {
	f.fields = append(f.fields, formField{key: key, value: value})
	return f
}

// SetFile appends a file part.
func (f *FormData) SetFile(key, filename string, content []byte) *FormData {
	f.files = append(f.files, formFile{key: key, filename: filename, content: content})
	return f
}

// Len reports how many parts the payload carries.
func (f *FormData) Len() int {
	return len(f.fields) + len(f.files)
}

func (f *FormData) build() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.key, field.value); err != nil {
			return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to encode form field")
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.key, file.filename)
		if err != nil {
			return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to encode form file")
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to encode form file")
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to finalize form payload")
	}

	return &buf, w.FormDataContentType(), nil
}

// Ack is the generic acknowledgment many write operations resolve to.
// Handlers answer with either {"success": true} or {"status": "success"};
// both decode to a positive Ack.
type Ack struct {
	Success bool
	Message string
}

func (a *Ack) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success *bool  `json:"success"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Message = raw.Message
	if raw.Success != nil {
		a.Success = *raw.Success
		return nil
	}
	a.Success = strings.EqualFold(raw.Status, "success")
	return nil
}

func (a Ack) MarshalJSON() ([]byte, error) {
	raw := struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}{Success: a.Success, Message: a.Message}
	return json.Marshal(raw)
}
