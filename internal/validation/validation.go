// Package validation holds the input schemas shared by the services: username,
// email, password, one-time code and message content.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CodeLength is the width of the numeric one-time code.
const CodeLength = 6

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	codeRe     = regexp.MustCompile(`^[0-9]{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return codeRe.MatchString(fl.Field().String())
	})
	return v
}

type Registration struct {
	Username string `json:"username" validate:"required,min=2,max=20,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type usernameOnly struct {
	Username string `json:"username" validate:"required,min=2,max=20,username"`
}

type codeOnly struct {
	Code string `json:"code" validate:"required,otp"`
}

type contentOnly struct {
	Content string `json:"content" validate:"required,max=500"`
}

type promptOnly struct {
	Prompt string `json:"prompt" validate:"max=500"`
}

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

func ValidateRegistration(r Registration) error {
	if err := check(r); err != nil {
		return err
	}
	if len(r.Password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

func ValidateUsername(username string) error {
	return check(usernameOnly{Username: username})
}

func ValidateCode(code string) error {
	return check(codeOnly{Code: code})
}

// ValidateContent expects already trimmed text; length is counted in runes.
func ValidateContent(content string) error {
	return check(contentOnly{Content: content})
}

func ValidatePrompt(prompt string) error {
	return check(promptOnly{Prompt: prompt})
}

func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return "invalid email address"
	case "username":
		return "username may contain only letters, digits and underscores"
	case "otp":
		return fmt.Sprintf("verification code must be %d digits", CodeLength)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
