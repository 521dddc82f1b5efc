package app

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom validation tags
const (
	notBlankTag   = "notblank"
	hundredthsTag = "hundredths"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// в ошибках используем имена полей из json, как их видит клиент
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(hundredthsTag, hundredths)

	messages := map[string]string{
		notBlankTag:   "must not be blank",
		hundredthsTag: "at most two decimals",
	}
	for tag, msg := range messages {
		msg := msg
		_ = validate.RegisterTranslation(tag, translator,
			func(ut.Translator) error { return nil },
			func(ut.Translator, validator.FieldError) string { return msg })
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

// hundredths: вес хранится с точностью до сотых.
func hundredths(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return math.Abs(f*100-math.Round(f*100)) <= 1e-6
}

// checkStruct runs tag validation on v and appends every failed field to ve.
func checkStruct(ve *ValidationError, v any) {
	var errs validator.ValidationErrors
	if !errors.As(validate.Struct(v), &errs) {
		return
	}
	for _, fe := range errs {
		ve.add(fe.Field(), fe.Translate(translator))
	}
}
