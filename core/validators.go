package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	roleTag  = "role"
	roleText = "must be one of: student, parent, teacher, admin"

	classSectionTag   = "classsection"
	classSectionText  = "must be of the form <class>-<section>, eg. 10-A"
	classSectionRegex = regexp.MustCompile(`^[0-9A-Za-z]+-[0-9A-Za-z]+$`)

	requiredTag  = "required"
	requiredText = "this field is required"
)

func init() {
	enLocale := en.New()
	Translator, _ = ut.New(enLocale, enLocale).GetTranslator("en")

	Validate = validator.New()
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(roleTag, roleValidation)
	RegisterCustomTranslation(Validate, Translator, roleTag, roleText)

	_ = Validate.RegisterValidation(classSectionTag, classSectionValidation)
	RegisterCustomTranslation(Validate, Translator, classSectionTag, classSectionText)

	RegisterCustomTranslation(Validate, Translator, requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// roleValidation only allows known account roles.
func roleValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "student", "parent", "teacher", "admin":
		return true
	}
	return false
}

// classSectionValidation allows "class-section" pairs such as "10-A".
func classSectionValidation(fl validator.FieldLevel) bool {
	return classSectionRegex.MatchString(fl.Field().String())
}
