package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(messages, "\n"))
}

// ValidateConfig validates a configuration struct
func ValidateConfig(config *Config) error {
	var errors ValidationErrors

	errors = append(errors, validateLibrary(&config.Library)...)
	errors = append(errors, validateHost(&config.Host)...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func validateLibrary(config *LibraryConfig) ValidationErrors {
	var errors ValidationErrors

	required := map[string]string{
		"library.name":              config.Name,
		"library.dir":               config.Dir,
		"library.manifest":          config.Manifest,
		"library.upstream_org":      config.UpstreamOrg,
		"library.upstream_remote":   config.UpstreamRemote,
		"library.fork_remote":       config.ForkRemote,
		"library.ci_ref":            config.CIRef,
		"library.ignore_file":       config.IgnoreFile,
		"library.generated_pattern": config.GeneratedPattern,
		"library.branch_suffix":     config.BranchSuffix,
		"library.commit_message":    config.CommitMessage,
	}
	errors = append(errors, requireNonEmpty(required)...)

	if strings.ContainsAny(config.Name, " \t=#") {
		errors = append(errors, ValidationError{
			Field:   "library.name",
			Value:   config.Name,
			Message: "must be a bare crate name",
		})
	}

	if !strings.HasPrefix(config.CIRef, "refs/") && config.CIRef != "" {
		errors = append(errors, ValidationError{
			Field:   "library.ci_ref",
			Value:   config.CIRef,
			Message: "must be a full ref name (refs/...)",
		})
	}

	if filepath.IsAbs(config.Manifest) {
		errors = append(errors, ValidationError{
			Field:   "library.manifest",
			Value:   config.Manifest,
			Message: "must be relative to the library root",
		})
	}

	return errors
}

func validateHost(config *HostConfig) ValidationErrors {
	var errors ValidationErrors

	required := map[string]string{
		"host.declaration":       config.Declaration,
		"host.vendor_message":    config.VendorMessage,
		"host.validation_remote": config.ValidationRemote,
		"host.validation_url":    config.ValidationURL,
		"host.trigger_template":  config.TriggerTemplate,
	}
	errors = append(errors, requireNonEmpty(required)...)

	if filepath.IsAbs(config.Declaration) {
		errors = append(errors, ValidationError{
			Field:   "host.declaration",
			Value:   config.Declaration,
			Message: "must be relative to the host root",
		})
	}

	if config.TriggerTemplate != "" && !strings.Contains(config.TriggerTemplate, "{build}") {
		errors = append(errors, ValidationError{
			Field:   "host.trigger_template",
			Value:   config.TriggerTemplate,
			Message: "must contain the {build} placeholder",
		})
	}

	if len(config.BuildTypes) == 0 {
		errors = append(errors, ValidationError{
			Field:   "host.build_types",
			Value:   config.BuildTypes,
			Message: "at least one build type is required",
		})
	} else if !slices.Contains(config.BuildTypes, config.DefaultBuildType) {
		errors = append(errors, ValidationError{
			Field:   "host.default_build_type",
			Value:   config.DefaultBuildType,
			Message: fmt.Sprintf("must be one of: %v", config.BuildTypes),
		})
	}

	return errors
}

func requireNonEmpty(fields map[string]string) ValidationErrors {
	var errors ValidationErrors

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if strings.TrimSpace(fields[key]) == "" {
			errors = append(errors, ValidationError{
				Field:   key,
				Value:   fields[key],
				Message: "cannot be empty",
			})
		}
	}

	return errors
}
