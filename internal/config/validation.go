package config

import (
	"github.com/filedepot/backend/pkg/apperr"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the loaded configuration with struct tags plus the rules
// that cannot be expressed in tags. A failure here is a CONFIGURATION_ERROR
// and aborts startup.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	for _, mimeType := range cfg.Storage.AllowedMimeTypes {
		if mimeType == "" {
			return apperr.New(apperr.CodeConfiguration, "storage: allowed mime types must not contain empty entries")
		}
	}

	return nil
}

func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return apperr.Newf(apperr.CodeConfiguration, "%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return apperr.Wrap(apperr.CodeConfiguration, "invalid configuration", err)
}
