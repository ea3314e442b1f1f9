package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns the echo.Validator used by every request body. Field
// names in messages are the JSON names the client sent.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &echoValidator{v: v}
}

func (ev *echoValidator) Validate(req any) error {
	err := ev.v.Struct(req)
	var ve validator.ValidationErrors
	if err == nil || !errors.As(err, &ve) {
		return err
	}
	problems := make([]string, len(ve))
	for i, fe := range ve {
		problems[i] = describe(fe)
	}
	return echo.NewHTTPError(http.StatusUnprocessableEntity, strings.Join(problems, "; "))
}

var tagMessages = map[string]string{
	"required": "%s is required",
	"max":      "%s must be at most %s characters",
}

func describe(fe validator.FieldError) string {
	format, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
	if strings.Count(format, "%s") == 2 {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf(format, fe.Field())
}
