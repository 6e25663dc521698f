package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/examtester/internal/response"
)

var (
	once  sync.Once
	v     *govalidator.Validate
	trans ut.Translator
)

// Setup builds the shared validator with English translations. It is safe to
// call more than once; Struct calls it lazily.
func Setup() {
	once.Do(func() {
		v = govalidator.New(govalidator.WithRequiredStructEnabled())
		v.SetTagName("binding")

		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// TranslateErrors takes a validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Struct validates dst. On failure it returns a validation *response.Error
// whose message is the first translated problem and whose Fields carry all
// of them.
func Struct(dst interface{}) error {
	Setup()

	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	fields := TranslateErrors(err)
	msg := "Validation failed"
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		msg = ve[0].Translate(trans)
	}
	return response.Validation(msg, fields)
}
