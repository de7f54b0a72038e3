// Package inputval validates request payloads with struct tags and turns
// validator failures into user-facing messages.
//
// Fields are labelled with a `label` tag; the JSON name of each field keys
// the per-field map returned by Result.Fields.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/councilhub/internal/app/system/apperr"
	"github.com/dalemusser/councilhub/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string // JSON name
	Tag     string
	Message string
}

// Result collects the failures from one Validate call.
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

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps JSON field names to their first message.
func (r *Result) Fields() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
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
		_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.ValidRole(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		})
		_ = v.RegisterValidation("memberstatus", func(fl validator.FieldLevel) bool {
			return models.ValidMemberStatus(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		})
		_ = v.RegisterValidation("eventstatus", func(fl validator.FieldLevel) bool {
			return models.ValidEventStatus(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		})
	})
	return v
}

// Validate runs the struct's validate tags and returns the failures in
// field order.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		label := fe.StructField()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if l := sf.Tag.Get("label"); l != "" {
				label = l
			}
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(label, fe),
		})
	}
	return res
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "httpurl":
		return label + " must be a valid http or https URL."
	case "objectid":
		return label + " must be a valid ID."
	case "role":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(models.Roles, ", "))
	case "memberstatus":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(models.MemberStatuses, ", "))
	case "eventstatus":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(models.EventStatuses, ", "))
	default:
		return label + " is invalid."
	}
}

// IsValidEmail accepts a bare addr-spec (no display name). Single-label
// domains such as "localhost" are allowed.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	return dotsOK(local) && dotsOK(domain)
}

func dotsOK(s string) bool {
	return s != "" &&
		!strings.HasPrefix(s, ".") &&
		!strings.HasSuffix(s, ".") &&
		!strings.Contains(s, "..")
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// Err returns the failures as a validation error carrying per-field
// messages, or nil when the input is valid.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return apperr.Validation(r.First(), r.Fields())
}
