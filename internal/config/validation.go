package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks required secrets and value ranges. The returned error
// names every failing field by its config key.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", configKey(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("missing or invalid settings: %s", strings.Join(fields, ", "))
}

// configKey turns "Config.groupme.bot_id" into "groupme.bot_id".
func configKey(namespace string) string {
	return strings.TrimPrefix(namespace, "Config.")
}
