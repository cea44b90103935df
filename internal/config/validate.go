package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"equity-feature-lab/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report yaml key names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	start, end := c.Run.StartDate(), c.Run.EndDate()
	if end.Before(start) {
		return &domain.DateRangeError{Start: start, End: end, Reason: "run.end before run.start"}
	}

	switch c.Source.Kind {
	case "csv":
		if c.Source.CSVDir == "" {
			return errors.New("source.csv_dir is required for the csv source")
		}
	case "store":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the store source")
		}
	case "eodhd":
		if c.Source.EODHD.APIKey == "" {
			return errors.New("source.eodhd.api_key is required for the eodhd source")
		}
	}
	return nil
}
