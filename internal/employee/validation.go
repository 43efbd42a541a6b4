package employee

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "golang.org/x/image/webp"
)

const (
	msgRequired     = "This field is required."
	msgBlank        = "This field may not be blank."
	msgInteger      = "A valid integer is required."
	msgNoFile       = "No file was submitted."
	msgEmptyFile    = "The submitted file is empty."
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Photo is an uploaded image before it is written to storage.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Input is a create or update request. Nil fields were not supplied.
type Input struct {
	Name       *string `json:"name" validate:"required,min=1,max=100"`
	EmployeeID *string `json:"employee_id" validate:"required,min=1,max=10"`
	Age        *int    `json:"age" validate:"required"`
	Photo      *Photo  `json:"photo" validate:"-"`

	// problems found while decoding, before rule validation
	decodeErrors map[string]string
}

// SetFieldError records a decoding problem for field.
func (in *Input) SetFieldError(field, msg string) {
	if in.decodeErrors == nil {
		in.decodeErrors = make(map[string]string)
	}
	in.decodeErrors[field] = msg
}

func (in *Input) HasFieldError(field string) bool {
	_, ok := in.decodeErrors[field]
	return ok
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput checks in against the field rules. With partial set only the
// supplied fields are checked; otherwise every field, photo included, is required.
func validateInput(v *validator.Validate, in *Input, partial bool) (*imageInfo, error) {
	fields := make(map[string]string)
	for field, msg := range in.decodeErrors {
		fields[field] = msg
	}

	var err error
	if partial {
		supplied := suppliedFields(in)
		if len(supplied) > 0 {
			err = v.StructPartial(in, supplied...)
		}
	} else {
		err = v.Struct(in)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, ok := fields[fe.Field()]; ok {
				continue
			}
			fields[fe.Field()] = fieldMessage(fe)
		}
	} else if err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}

	var info *imageInfo
	switch {
	case in.Photo != nil:
		if _, ok := fields["photo"]; !ok {
			info, err = inspectImage(in.Photo.Data)
			if err != nil {
				fields["photo"] = err.Error()
			}
		}
	case !partial:
		if _, ok := fields["photo"]; !ok {
			fields["photo"] = msgNoFile
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return info, nil
}

func suppliedFields(in *Input) []string {
	var fields []string
	if in.Name != nil {
		fields = append(fields, "Name")
	}
	if in.EmployeeID != nil {
		fields = append(fields, "EmployeeID")
	}
	if in.Age != nil {
		fields = append(fields, "Age")
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		return msgBlank
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}

type imageInfo struct {
	ext         string
	contentType string
}

func inspectImage(data []byte) (*imageInfo, error) {
	if len(data) == 0 {
		return nil, errors.New(msgEmptyFile)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(msgInvalidImage)
	}
	switch format {
	case "jpeg":
		return &imageInfo{ext: ".jpg", contentType: "image/jpeg"}, nil
	case "png", "gif", "webp":
		return &imageInfo{ext: "." + format, contentType: "image/" + format}, nil
	default:
		return nil, errors.New(msgInvalidImage)
	}
}
