package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	validAdapters   = []string{"memory", "redis", "sql", "file"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
	validLogOutputs = []string{"stdout", "stderr"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"read_timeout", s.ReadTimeout},
		{"write_timeout", s.WriteTimeout},
		{"idle_timeout", s.IdleTimeout},
		{"read_header_timeout", s.ReadHeaderTimeout},
		{"shutdown_timeout", s.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			errs = append(errs, t.name+" must be positive")
		}
	}

	return joinErrs(errs)
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string

	if !oneOf(s.Adapter, validAdapters) {
		errs = append(errs, fmt.Sprintf("adapter must be one of: %s", strings.Join(validAdapters, ", ")))
	}

	if s.Adapter == "file" {
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	}

	return joinErrs(errs)
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string

	if !oneOf(l.Level, validLogLevels) {
		errs = append(errs, fmt.Sprintf("level must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	if !oneOf(l.Format, validLogFormats) {
		errs = append(errs, fmt.Sprintf("format must be one of: %s", strings.Join(validLogFormats, ", ")))
	}
	if !oneOf(l.Output, validLogOutputs) {
		errs = append(errs, fmt.Sprintf("output must be one of: %s", strings.Join(validLogOutputs, ", ")))
	}

	return joinErrs(errs)
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	var errs []string

	if m.Enabled {
		if m.Address == "" {
			errs = append(errs, "address cannot be empty when metrics are enabled")
		}
		if m.Path == "" {
			errs = append(errs, "path cannot be empty when metrics are enabled")
		}
	}

	return joinErrs(errs)
}
