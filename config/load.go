package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a config field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: validation failed for %q: %s", e.Field, e.Message)
}

// validate is the shared validator instance behind Validate. Field names in
// validation errors use the json tag when present, so errors name the key
// the operator actually wrote.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return sf.Name
		}
		return name
	})
	return v
}

// Load reads a JSON file and unmarshals it into T. Defaults from struct
// tags are applied to zero-valued fields that the file did not provide,
// and the result is validated against its validate tags.
func Load[T any](path string) (T, error) {
	var cfg T

	if ext := filepath.Ext(path); ext != ".json" {
		return cfg, fmt.Errorf("config: unsupported file extension %q (only .json is supported)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var provided map[string]any
	if err := json.Unmarshal(data, &provided); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}

	applyDefaultsSelective(&cfg, provided)

	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromEnv populates a config struct entirely from environment
// variables. Defaults are applied first, then each exported field is
// overridden from PREFIX_FIELDNAME when set, and the result is validated.
func LoadFromEnv[T any](prefix string) (T, error) {
	var cfg T
	applyDefaults(&cfg)
	if err := MergeEnv(&cfg, prefix); err != nil {
		return cfg, err
	}
	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MergeEnv overlays environment variable values onto an existing config,
// only overriding fields whose corresponding variable is set. Nested
// structs map to PREFIX_FIELD_SUBFIELD.
func MergeEnv(target any, prefix string) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("config: MergeEnv requires a non-nil pointer, got %T", target)
	}
	return mergeEnvStruct(v.Elem(), prefix)
}

func mergeEnvStruct(v reflect.Value, prefix string) error {
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		name := prefix + "_" + toEnvName(t.Field(i).Name)
		if field.Kind() == reflect.Struct {
			if err := mergeEnvStruct(field, name); err != nil {
				return err
			}
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := setFieldFromString(field, raw); err != nil {
			return fmt.Errorf("config: env %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks a struct against its `validate` field tags via
// go-playground/validator (required, min, max, and the rest of the
// library's rule set). Nested structs are validated recursively. The first
// failing rule is returned as a *ValidationError naming the json field.
func Validate(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("config: Validate requires a struct, got %s", v.Kind())
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed on the %q rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the %q rule (param %s)", fe.Tag(), fe.Param())
		}
		return &ValidationError{Field: fe.Field(), Message: msg}
	}
	return fmt.Errorf("config: validate: %w", err)
}

// applyDefaults sets default-tag values on every zero-valued field,
// recursing into nested structs. Non-struct targets are ignored.
func applyDefaults(target any) {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	applyDefaultsStruct(v, nil, false)
}

// applyDefaultsSelective is applyDefaults restricted to fields the raw
// JSON object did not provide: an explicitly provided zero keeps its value.
// Non-struct targets are ignored.
func applyDefaultsSelective(target any, provided map[string]any) {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	applyDefaultsStruct(v, provided, true)
}

func applyDefaultsStruct(v reflect.Value, provided map[string]any, selective bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)
		if !field.CanSet() {
			continue
		}

		name := jsonName(sf)
		rawChild, present := any(nil), false
		if provided != nil {
			rawChild, present = provided[name]
		}

		if field.Kind() == reflect.Struct {
			childMap, _ := rawChild.(map[string]any)
			applyDefaultsStruct(field, childMap, selective)
			continue
		}

		if selective && present {
			continue
		}
		def := sf.Tag.Get("default")
		if def == "" || !field.IsZero() {
			continue
		}
		// Unsupported field types simply keep their zero value.
		_ = setFieldFromString(field, def)
	}
}

// setFieldFromString parses s into field according to its kind.
func setFieldFromString(field reflect.Value, s string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid bool %q", s)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", s)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q", s)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// jsonName returns the field's json tag name, falling back to the Go name.
func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

// toEnvName converts a Go field name to its environment-variable form:
// camelCase becomes underscore-separated uppercase, with runs of capitals
// (acronyms) kept together.
func toEnvName(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && isUpper(r) {
			prevLower := !isUpper(runes[i-1])
			nextLower := i+1 < len(runes) && !isUpper(runes[i+1])
			if prevLower || (isUpper(runes[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
