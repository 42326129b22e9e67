// package forms declares the submitted forms of the site and their validation rules.
//
// Rules are declared with go-playground/validator struct tags and translated into [Errors], keyed by the
// field names used in the HTML forms. Each form keeps the submitted values so it can be re-rendered.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/desertthunder/rango/internal/shared"
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for all forms.
var validate *validator.Validate

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("sluggable", func(fl validator.FieldLevel) bool {
		return shared.Slugify(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

// check runs the validator over form and translates failures into [Errors].
func check(form any) *Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return &Errors{NonField: []string{err.Error()}}
	}

	result := &Errors{}
	for _, fe := range invalid {
		result.Add(fe.Field(), message(fe))
	}
	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "url", "http_url":
		return "Enter a valid URL."
	case "email":
		return "Enter a valid email address."
	case "sluggable":
		return "Name must contain at least one letter or number."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

// normalizeURL prepends "http://" to a non-empty value that carries no scheme.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}

// CategoryForm is submitted to add a category.
type CategoryForm struct {
	Name string `form:"name" validate:"required,max=128,sluggable"`
}

// CategoryFormFromValues reads a [CategoryForm] from submitted form values.
func CategoryFormFromValues(v url.Values) CategoryForm {
	return CategoryForm{Name: v.Get("name")}
}

// Validate trims the name and checks it.
func (f *CategoryForm) Validate() *Errors {
	f.Name = strings.TrimSpace(f.Name)
	return check(f)
}

// PageForm is submitted to add a page to a category. The category comes from the URL, never from the form.
type PageForm struct {
	Title string `form:"title" validate:"required,max=128"`
	URL   string `form:"url" validate:"required,max=200,http_url"`
}

// PageFormFromValues reads a [PageForm] from submitted form values.
func PageFormFromValues(v url.Values) PageForm {
	return PageForm{Title: v.Get("title"), URL: v.Get("url")}
}

// Validate trims the fields, prepends a missing scheme to the url and checks both.
func (f *PageForm) Validate() *Errors {
	f.Title = strings.TrimSpace(f.Title)
	f.URL = normalizeURL(f.URL)
	return check(f)
}

// UserForm is the account half of registration.
type UserForm struct {
	Username string `form:"username" validate:"required,max=150,username"`
	Email    string `form:"email" validate:"omitempty,max=254,email"`
	Password string `form:"password" validate:"required,max=128"`
}

// UserFormFromValues reads a [UserForm] from submitted form values.
func UserFormFromValues(v url.Values) UserForm {
	return UserForm{Username: v.Get("username"), Email: v.Get("email"), Password: v.Get("password")}
}

// Validate trims username and email and checks the form. The password is taken as typed.
func (f *UserForm) Validate() *Errors {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

// ProfileForm is the optional profile half of registration.
type ProfileForm struct {
	Website string `form:"website" validate:"omitempty,max=200,http_url"`
	Picture string `form:"picture" validate:"omitempty,max=255"`
}

// ProfileFormFromValues reads a [ProfileForm] from submitted form values.
func ProfileFormFromValues(v url.Values) ProfileForm {
	return ProfileForm{Website: v.Get("website"), Picture: v.Get("picture")}
}

// Validate normalizes the website like [PageForm] does and checks the form.
func (f *ProfileForm) Validate() *Errors {
	f.Website = normalizeURL(f.Website)
	f.Picture = strings.TrimSpace(f.Picture)
	return check(f)
}
