package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     = newValidator()
	messagesMu   sync.RWMutex
	ruleMessages = map[string]string{}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Имена полей в ошибках берутся из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError ошибка валидации конкретного поля
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RegisterRule добавляет строковое правило валидации с сообщением об ошибке.
func RegisterRule(tag, message string, fn func(value string) bool) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		return err
	}
	messagesMu.Lock()
	ruleMessages[tag] = message
	messagesMu.Unlock()
	return nil
}

// Decode декодирует JSON из io.ReadCloser в структуру типа T.
func Decode[T any](body io.ReadCloser) (T, error) {
	var payload T
	if body == nil {
		return payload, &FieldError{Message: "request body is required"}
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return payload, &FieldError{Message: "request body is required"}
		}
		return payload, &FieldError{Message: "malformed JSON body"}
	}
	return payload, nil
}

// IsValid валидирует структуру типа T. Возвращает *FieldError для первого нарушенного правила.
func IsValid[T any](payload T) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return toFieldError(verrs[0])
}

// HandleBody декодирует и валидирует тело запроса.
func HandleBody[T any](body io.ReadCloser) (*T, error) {
	payload, err := Decode[T](body)
	if err != nil {
		return nil, err
	}
	if err := IsValid(payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func toFieldError(fe validator.FieldError) *FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &FieldError{Field: field, Message: "missing required field: " + field}
	case "oneof":
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be one of: %s", field, fe.Param())}
	}

	messagesMu.RLock()
	msg, ok := ruleMessages[fe.Tag()]
	messagesMu.RUnlock()
	if !ok {
		msg = "invalid value"
	}
	return &FieldError{Field: field, Message: msg}
}
