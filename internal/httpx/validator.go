package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct runs the validate tags of s and reports failures per JSON field name.
func ValidateStruct(s interface{}) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "contains":
			if fe.Param() == "@" {
				message = "Please enter a valid email address"
			} else {
				message = fmt.Sprintf("%s must contain %s", field, fe.Param())
			}
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, ErrorDetail{Field: field, Message: message})
	}
	return details
}

// DecodeJSON reads a single JSON object from r's body into dst and validates it. On failure it
// writes the error response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return false
		}
		JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body", nil)
		return false
	}
	if details := ValidateStruct(dst); len(details) > 0 {
		JSONError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid input", details)
		return false
	}
	return true
}
