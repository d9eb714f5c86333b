package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// loadFromEnv overlays PROMOKIT_* environment variables onto the config.
// Fields opt in via an `env` struct tag; unset variables leave the field
// untouched so file and profile values survive.
func loadFromEnv(cfg *Config) error {
	return walkEnvFields(reflect.ValueOf(cfg))
}

func walkEnvFields(val reflect.Value) error {
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer, got %s", val.Kind())
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", val.Kind())
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Nested config sections carry their own env tags.
		if field.Kind() == reflect.Struct && field.CanAddr() {
			if err := walkEnvFields(field.Addr()); err != nil {
				return err
			}
			continue
		}

		name := fieldType.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		if err := assignEnvValue(field, fieldType, raw); err != nil {
			return fmt.Errorf("env var %s: %w", name, err)
		}
	}
	return nil
}

func assignEnvValue(field reflect.Value, fieldType reflect.StructField, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field %s is not settable", fieldType.Name)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fieldType.Type == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration %q", raw)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", raw)
		}
		field.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q", raw)
		}
		field.SetFloat(f)
		return nil
	case reflect.Slice:
		return assignEnvSlice(field, fieldType, raw)
	case reflect.Map:
		return assignEnvMap(field, fieldType, raw)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
}

// Comma-separated lists, e.g. PROMOKIT_SECURITY_API_KEYS="k1,k2".
func assignEnvSlice(field reflect.Value, fieldType reflect.StructField, raw string) error {
	if fieldType.Type.Elem().Kind() != reflect.String {
		return fmt.Errorf("unsupported slice element type %s", fieldType.Type.Elem().Kind())
	}
	parts := strings.Split(raw, ",")
	slice := reflect.MakeSlice(fieldType.Type, len(parts), len(parts))
	for i, part := range parts {
		slice.Index(i).SetString(strings.TrimSpace(part))
	}
	field.Set(slice)
	return nil
}

// key=value pairs separated by commas, e.g. "service=promokit,region=eu".
func assignEnvMap(field reflect.Value, fieldType reflect.StructField, raw string) error {
	if fieldType.Type.Key().Kind() != reflect.String || fieldType.Type.Elem().Kind() != reflect.String {
		return fmt.Errorf("unsupported map type %s -> %s", fieldType.Type.Key().Kind(), fieldType.Type.Elem().Kind())
	}
	m := reflect.MakeMap(fieldType.Type)
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("invalid map entry %q", pair)
		}
		m.SetMapIndex(reflect.ValueOf(kv[0]), reflect.ValueOf(kv[1]))
	}
	field.Set(m)
	return nil
}
