// internal/app/system/inputval/inputval.go
//
// Package inputval validates decoded request bodies with struct tags.
//
// Fields carry a `validate` tag (go-playground/validator rules) and an
// optional `label` tag used in messages. Besides the built-in rules the
// package registers:
//
//	objectid    24-char hex Mongo ObjectID
//	ymd         calendar date in YYYY-MM-DD form
//	yearmonth   month in YYYY-MM form
//	attstatus   attendance status (case-insensitive)
//	paymenttype Cash, Card or Transfer
package inputval

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/eduledger/internal/domain/ledger"
	"github.com/dalemusser/eduledger/internal/domain/models"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string // json name of the field
	Message string
}

// Result collects the failures for one struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// FirstField returns the field of the first failure, or "".
func (r *Result) FirstField() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Field
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
			return IsValidDate(fl.Field().String())
		})
		_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
			return IsValidMonth(fl.Field().String())
		})
		_ = v.RegisterValidation("attstatus", func(fl validator.FieldLevel) bool {
			_, ok := ledger.NormalizeStatus(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("paymenttype", func(fl validator.FieldLevel) bool {
			return IsValidPaymentType(fl.Field().String())
		})
	})
	return v
}

// Validate runs the struct's rules. s must be a struct or pointer to struct.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range ves {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Message: message(fe, label(t, fe)),
		})
	}
	return res
}

// label resolves the `label` tag of the failing field, falling back to its
// json name. Nested fields (rows in a slice) keep the json name.
func label(t reflect.Type, fe validator.FieldError) string {
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
		}
	}
	return fe.Field()
}

func message(fe validator.FieldError, lbl string) string {
	switch fe.Tag() {
	case "required":
		return lbl + " is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", lbl, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", lbl, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s).", lbl, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", lbl, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", lbl, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", lbl, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "A valid email address is required."
	case "objectid":
		return lbl + " must be a valid ID."
	case "ymd":
		return lbl + " must be a date in YYYY-MM-DD format."
	case "yearmonth":
		return lbl + " must be a month in YYYY-MM format."
	case "attstatus":
		return lbl + " must be one of: present, absent, excused, late."
	case "paymenttype":
		return lbl + " must be one of: Cash, Card, Transfer."
	}
	return fmt.Sprintf("%s is invalid.", lbl)
}

// IsValidObjectID reports whether s (trimmed) is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsValidDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// IsValidMonth reports whether s is a month in YYYY-MM form.
func IsValidMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// IsValidPaymentType reports whether s names a payment type.
func IsValidPaymentType(s string) bool {
	switch s {
	case models.PaymentCash, models.PaymentCard, models.PaymentTransfer:
		return true
	}
	return false
}
