package employee

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// ErrUnsupportedMediaType is returned for request bodies that are neither
// JSON nor form encoded.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

const multipartMemory = 8 << 20

type jsonPayload struct {
	Name       *string         `json:"name"`
	EmployeeID *string         `json:"employee_id"`
	Age        json.RawMessage `json:"age"`
	Photo      *string         `json:"photo"`
}

// ParseRequest decodes an employee write request. Field level problems
// (a non-numeric age, undecodable photo) are kept on the Input and reported
// by validation together with the rule violations.
func ParseRequest(r *http.Request) (Input, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType := "application/json"
	if contentType != "" {
		var err error
		mediaType, _, err = mime.ParseMediaType(contentType)
		if err != nil {
			return Input{}, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
		}
	}

	switch mediaType {
	case "application/json":
		return parseJSON(r.Body)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return Input{}, malformed(err)
		}
		return parseForm(r.MultipartForm.Value, r.MultipartForm.File)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return Input{}, malformed(err)
		}
		return parseForm(r.PostForm, nil)
	default:
		return Input{}, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
}

func parseJSON(body io.Reader) (Input, error) {
	var payload jsonPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return Input{}, nil
		}
		return Input{}, malformed(err)
	}

	in := Input{Name: payload.Name, EmployeeID: payload.EmployeeID}

	if len(payload.Age) > 0 && string(payload.Age) != "null" {
		age, ok := decodeJSONInt(payload.Age)
		if ok {
			in.Age = &age
		} else {
			in.SetFieldError("age", msgInteger)
		}
	}

	if payload.Photo != nil {
		data, err := decodeBase64Image(*payload.Photo)
		if err != nil {
			in.SetFieldError("photo", msgInvalidImage)
		} else {
			in.Photo = &Photo{Data: data}
		}
	}
	return in, nil
}

func parseForm(values map[string][]string, files map[string][]*multipart.FileHeader) (Input, error) {
	var in Input
	if v, ok := values["name"]; ok && len(v) > 0 {
		name := v[0]
		in.Name = &name
	}
	if v, ok := values["employee_id"]; ok && len(v) > 0 {
		employeeID := v[0]
		in.EmployeeID = &employeeID
	}
	if v, ok := values["age"]; ok && len(v) > 0 {
		raw := strings.TrimSpace(v[0])
		if raw == "" {
			in.SetFieldError("age", msgInteger)
		} else if age, err := strconv.Atoi(raw); err == nil {
			in.Age = &age
		} else {
			in.SetFieldError("age", msgInteger)
		}
	}
	if fhs := files["photo"]; len(fhs) > 0 {
		photo, err := readFile(fhs[0])
		if err != nil {
			return Input{}, err
		}
		in.Photo = photo
	}
	return in, nil
}

func readFile(fh *multipart.FileHeader) (*Photo, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return &Photo{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func decodeJSONInt(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// decodeBase64Image accepts raw base64 or a data URI.
func decodeBase64Image(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ";base64,")
		if idx < 0 {
			return nil, errors.New("data uri is not base64 encoded")
		}
		s = s[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

func malformed(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return fmt.Errorf("%w: malformed request body: %v", ErrInvalidInput, err)
}
