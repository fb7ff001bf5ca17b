package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/ianaindex"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("charset_label", validateCharsetLabel)
}

// validateCharsetLabel accepts WHATWG labels and IANA names known to x/text.
func validateCharsetLabel(fl validator.FieldLevel) bool {
	label := strings.TrimSpace(fl.Field().String())
	if label == "" {
		return false
	}
	if enc, _ := htmlcharset.Lookup(label); enc != nil {
		return true
	}
	enc, err := ianaindex.IANA.Encoding(label)
	return err == nil && enc != nil
}
