package venue

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the "slug" rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsSlug reports whether s is a well-formed slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Validate checks r against the content schema.
func (r Record) Validate() error {
	if err := Validator().Struct(r); err != nil {
		return eris.Wrapf(err, "venue: invalid record %q", r.Slug)
	}
	return nil
}
