// Package validation checks daemon requests and renders validation failures
// as readable sentences.
package validation

import (
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// SafeCodeTag is the struct tag of the unsafe call screening rule.
const SafeCodeTag = "safecode"

// unsafePatterns are calls and tools a submitted program is not allowed to
// mention, whether or not it would ever reach them.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`system\(`),
	regexp.MustCompile(`exec\(`),
	regexp.MustCompile(`fork\(`),
	regexp.MustCompile(`popen\(`),
	regexp.MustCompile(`fopen\(`),
	regexp.MustCompile(`remove\(`),
	regexp.MustCompile(`unlink\(`),
	regexp.MustCompile(`rmdir\(`),
	regexp.MustCompile(`mkdir\(`),
	regexp.MustCompile(`chmod\(`),
	regexp.MustCompile(`chown\(`),
	regexp.MustCompile(`socket\(`),
	regexp.MustCompile(`connect\(`),
	regexp.MustCompile(`bind\(`),
	regexp.MustCompile(`listen\(`),
	regexp.MustCompile(`accept\(`),
	regexp.MustCompile(`inet_addr\(`),
	regexp.MustCompile(`gethostbyname\(`),
	regexp.MustCompile(`curl|wget|fetch`),
}

// IsSafeCode reports whether the source mentions none of the unsafe calls.
func IsSafeCode(code string) bool {
	for _, pattern := range unsafePatterns {
		if pattern.MatchString(code) {
			return false
		}
	}

	return true
}

// New returns a validator knowing the safecode rule, and the English
// translator its errors render with.
func New() (*validator.Validate, ut.Translator, error) {
	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()

	if err := validate.RegisterValidation(SafeCodeTag, func(fl validator.FieldLevel) bool {
		return IsSafeCode(fl.Field().String())
	}); err != nil {
		return nil, nil, errors.Wrap(err, "failed to register safecode validation")
	}

	// register the validator with the translator to get clean readable
	// messages from validation failures.
	if err := enTranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, nil, errors.Wrap(err, "failed to register validation translations")
	}

	err := validate.RegisterTranslation(SafeCodeTag, translator,
		func(trans ut.Translator) error {
			return trans.Add(SafeCodeTag, "{0} contains unsafe content", true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			message, _ := trans.T(SafeCodeTag, fe.Field())
			return message
		},
	)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register safecode translation")
	}

	return validate, translator, nil
}

func TranslateError(err error, trans ut.Translator) (errs []string) {
	if err == nil {
		return nil
	}

	validationErrors := validator.ValidationErrors{}

	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, e.Translate(trans))
		}
	}

	return errs
}
