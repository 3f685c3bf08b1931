package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// registerValidators adds custom tags to gin's validator engine:
//
//	maxbytes=N  string is at most N bytes (validator's max counts runes)
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("maxbytes", maxBytes)
		}
	})
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// fieldErrors maps binding failures to one message per form field.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["username"] = errInvalidForm
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return errInvalidEmail
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

// passwordMessage turns a usecase password validation error into form text.
func passwordMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrPasswordTooShort):
		return errPasswordTooShort
	case errors.Is(err, domain.ErrPasswordTooLong):
		return errPasswordTooLong
	default:
		return errPasswordRequired
	}
}
