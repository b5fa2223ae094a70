package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LoadEnv overlays environment variables onto every configuration section.
// Fields opt in through their `env` struct tag.
func LoadEnv(config *AppConfig) error {
	log.Debug().Msg("Loading environment variables")

	sections := []interface{}{
		&config.App,
		&config.Database,
		&config.Server,
		&config.JWT,
		&config.Logging,
		&config.CORS,
		&config.PasswordHash,
		&config.Model,
		&config.RateLimit,
		&config.Admin,
	}

	for _, section := range sections {
		if err := processStructEnv(section); err != nil {
			return err
		}
	}

	log.Debug().
		Str("APP_ENV", os.Getenv("APP_ENV")).
		Str("DB_HOST", os.Getenv("DB_HOST")).
		Str("MODEL_ARTIFACT_PATH", os.Getenv("MODEL_ARTIFACT_PATH")).
		Msg("Environment variables loaded")

	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// processStructEnv sets the fields of the struct pointed to by s from the
// environment variables named in their `env` tags.
func processStructEnv(s interface{}) error {
	val := reflect.ValueOf(s).Elem()
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		envValue, exists := os.LookupEnv(envName)
		if !exists {
			continue
		}

		if err := setField(fieldVal, field.Type, envName, envValue); err != nil {
			return err
		}
	}

	return nil
}

func setField(fieldVal reflect.Value, fieldType reflect.Type, envName, envValue string) error {
	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(envValue)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fieldType == durationType {
			duration, err := time.ParseDuration(envValue)
			if err != nil {
				return fmt.Errorf("invalid duration for %s: %w", envName, err)
			}
			fieldVal.SetInt(int64(duration))
			return nil
		}
		intValue, err := strconv.ParseInt(envValue, 10, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %w", envName, err)
		}
		fieldVal.SetInt(intValue)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintValue, err := strconv.ParseUint(envValue, 10, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer for %s: %w", envName, err)
		}
		fieldVal.SetUint(uintValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %w", envName, err)
		}
		fieldVal.SetBool(boolValue)

	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(envValue, fieldType.Bits())
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", envName, err)
		}
		fieldVal.SetFloat(floatValue)

	case reflect.Slice:
		// Only comma separated string lists are supported.
		if fieldType.Elem().Kind() == reflect.String {
			values := strings.Split(envValue, ",")
			for i, v := range values {
				values[i] = strings.TrimSpace(v)
			}
			fieldVal.Set(reflect.ValueOf(values))
		}
	}

	return nil
}
