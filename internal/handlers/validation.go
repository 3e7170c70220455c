package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/storage"
	appErrors "github.com/charlesng35/hvacquote/pkg/errors"
	"github.com/charlesng35/hvacquote/pkg/response"
	appValidator "github.com/charlesng35/hvacquote/pkg/validator"
)

// bindJSON decodes the request body into dest. On failure a 400 is written and false returned.
func bindJSON[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	return true
}

// normalizer is implemented by payloads that canonicalise their fields before validation.
type normalizer interface {
	Normalize()
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if !bindJSON(c, dest) {
		return false
	}
	if n, ok := any(dest).(normalizer); ok {
		n.Normalize()
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

// writeError maps domain errors onto API errors.
func writeError(c *gin.Context, err error) {
	var ve appValidator.ValidationErrors
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.As(err, &ve):
		response.Error(c, appErrors.NewBadRequest(formatValidationError(ve)))
	default:
		response.Error(c, err)
	}
}

func formatValidationError(err error) string {
	if err == nil {
		return "invalid request payload"
	}

	var ve appValidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "amount":
			messages = append(messages, fmt.Sprintf("%s must be a finite, non-negative number", field))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, failure.Param))
		default:
			if failure.Param != "" {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
			} else {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
			}
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}
