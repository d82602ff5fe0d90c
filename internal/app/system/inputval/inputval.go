// Package inputval validates typed form inputs with waffle's validate
// package and turns failures into messages a visitor can act on.
//
//	type contactInput struct {
//	    Name    string `validate:"required,max=120" label:"Name"`
//	    Email   string `validate:"required,email,max=254" label:"Email"`
//	    Message string `validate:"required,max=5000" label:"Message"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    vm.SetError(res.First())
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result collects the failed fields in declaration order.
type Result struct {
	Errors []FieldError
}

// FieldError is one failed field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors reports whether any field failed.
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

var (
	validator     *validate.Validator
	validatorOnce sync.Once
)

func stringRule(fn func(string) bool) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && fn(s)
	}
}

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		validator = validate.New(validate.WithStopOnFirstError())
		validator.RegisterRuleFunc("httpurl", stringRule(IsValidHTTPURL), "httpurl")
		validator.RegisterRuleFunc("linkurl", stringRule(IsValidLinkURL), "linkurl")
		validator.RegisterRuleFunc("objectid", stringRule(IsValidObjectID), "objectid")
		validator.RegisterRuleFunc("slug", stringRule(IsValidSlug), "slug")
		validator.RegisterRuleFunc("mailaddr", stringRule(IsValidEmail), "mailaddr")
	})
	return validator
}

// Validate checks s against its `validate` tags. Messages use the `label`
// tag, falling back to the field name.
//
// Rules added here on top of waffle's built-ins:
//   - httpurl: an absolute http or https URL
//   - linkurl: empty, a root-relative path, or an http(s) URL
//   - objectid: a MongoDB ObjectID in hex
//   - slug: lowercase letters, digits and single hyphens
//   - mailaddr: a bare RFC 5322 address, stricter than "email"
func Validate(s any) *Result {
	res := &Result{}
	err := getValidator().Struct(s)
	if err == nil {
		return res
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: "The form could not be read."})
		return res
	}
	labels := fieldLabels(s)
	for _, e := range errs {
		label := labels[e.Field]
		if label == "" {
			label = e.Field
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   e.Field,
			Label:   label,
			Message: message(label, e.Rule, e.Param),
		})
	}
	return res
}

func fieldLabels(s any) map[string]string {
	labels := make(map[string]string)
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		label := f.Tag.Get("label")
		if label == "" {
			continue
		}
		labels[f.Name] = label
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			labels[name] = label
		}
	}
	return labels
}

func message(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email", "mailaddr":
		return "Please enter a valid email address."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "httpurl":
		return label + " must be a URL starting with http:// or https://."
	case "linkurl":
		return label + " must be a path starting with / or a URL starting with http:// or https://."
	case "objectid":
		return label + " is not a valid ID."
	case "slug":
		return label + " may contain only lowercase letters, numbers and hyphens."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail reports whether s is a bare email address with a dotted domain.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	_, domain, _ := strings.Cut(s, "@")
	return strings.Contains(strings.Trim(domain, "."), ".")
}

// IsValidHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidLinkURL accepts "", a root-relative path or an http(s) URL.
func IsValidLinkURL(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return true
	case strings.HasPrefix(s, "//"):
		return false
	case strings.HasPrefix(s, "/"):
		return true
	default:
		return IsValidHTTPURL(s)
	}
}

// IsValidObjectID reports whether s is an ObjectID in hex.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidSlug reports whether s is already in the form normalize.Slug produces.
func IsValidSlug(s string) bool {
	return s != "" && normalize.Slug(s) == s
}
