package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// customValidations are registered next to the built-in tags, each with an English message.
var customValidations = []struct {
	tag     string
	fn      validator.Func
	message string
}{
	{
		tag:     "file",
		fn:      isReadableFile,
		message: "{0} must be an existing and readable file",
	},
	{
		tag:     "image",
		fn:      isImageAsset,
		message: "{0} must be a relative path to a " + strings.Join(imageExtensions, ", ") + " file",
	},
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	enLocale := en.New()
	trans, _ := ut.New(enLocale, enLocale).GetTranslator("en")

	validate := validator.New()
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}
	validate.RegisterTagNameFunc(mapstructureName)

	for _, custom := range customValidations {
		if err := validate.RegisterValidation(custom.tag, custom.fn); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s validation: %w", custom.tag, err)
		}
		tag, message := custom.tag, custom.message
		if err := validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, strings.TrimPrefix(fe.Namespace(), "Config."))
			return t
		}); err != nil {
			return nil, nil, fmt.Errorf("failed to register %s translation: %w", tag, err)
		}
	}

	return validate, trans, nil
}

// mapstructureName reports fields by their config key.
func mapstructureName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func isReadableFile(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	// owner read bit
	return info.Mode().Perm()&0o400 != 0
}

// isImageAsset accepts image file names that stay inside the images directory.
func isImageAsset(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return false
	}
	if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
		return false
	}
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path)))
}
