package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/ar"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ar_translations "github.com/go-playground/validator/v10/translations/ar"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

const fallbackLocale = "fr"

var phonePattern = regexp.MustCompile(`^[\+]?[0-9\s\-\(\)]{8,}$`)

var (
	validate = newValidator()
	uni      = newTranslators(validate)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

var customMessages = map[string]map[string]string{
	"fr": {
		"phone":   "{0} doit être un numéro de téléphone valide",
		"iscolor": "{0} doit être une couleur valide",
	},
	"ar": {
		"phone":   "يجب أن يكون {0} رقم هاتف صالحًا",
		"iscolor": "يجب أن يكون {0} لونًا صالحًا",
	},
}

func newTranslators(v *validator.Validate) *ut.UniversalTranslator {
	u := ut.New(fr.New(), fr.New(), ar.New())

	frTrans, _ := u.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(v, frTrans); err != nil {
		panic(err)
	}
	arTrans, _ := u.GetTranslator("ar")
	if err := ar_translations.RegisterDefaultTranslations(v, arTrans); err != nil {
		panic(err)
	}

	for locale, messages := range customMessages {
		trans, _ := u.GetTranslator(locale)
		for tag, text := range messages {
			tag, text := tag, text
			register := func(t ut.Translator) error {
				return t.Add(tag, text, true)
			}
			translate := func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(fe.Tag(), fe.Field())
				if err != nil {
					return fe.Error()
				}
				return msg
			}
			if err := v.RegisterTranslation(tag, trans, register, translate); err != nil {
				panic(err)
			}
		}
	}
	return u
}

// Validator exposes the shared instance for packages that need Var checks.
func Validator() *validator.Validate {
	return validate
}

// Struct validates s and returns a VALIDATION_ERROR whose details map each
// failing field (json name) to the failed tag. The validator error stays in
// the chain so Messages can translate it.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return wrap("validation failed", err)
}

// Var validates a single value against tag, reporting it under field.
func Var(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
				WithDetails(map[string]string{field: verrs[0].Tag()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	return nil
}

func wrap(msg string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg).WithDetails(details)
}

// Messages renders the validator failures in err for the given locale,
// keyed by field. Errors without validator failures yield nil.
func Messages(err error, locale string) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	trans, found := uni.GetTranslator(locale)
	if !found {
		trans, _ = uni.GetTranslator(fallbackLocale)
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(trans)
	}
	return out
}

// Phone reports whether value looks like a phone number the school accepts.
func Phone(value string) bool {
	return phonePattern.MatchString(value)
}
