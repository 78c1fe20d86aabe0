package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. TANDEM_OUTPUT_DEBUG.
const EnvPrefix = "TANDEM"

// Config is the resolved configuration threaded through every command.
// There is no package-level state; callers pass the value explicitly.
type Config struct {
	Library LibraryConfig `mapstructure:"library" toml:"library"`
	Host    HostConfig    `mapstructure:"host" toml:"host"`
	Output  OutputConfig  `mapstructure:"output" toml:"output"`
}

// LibraryConfig describes the library checkout and its generated artifacts.
type LibraryConfig struct {
	Name             string `mapstructure:"name" toml:"name"`
	Dir              string `mapstructure:"dir" toml:"dir"` // relative to the host root
	Manifest         string `mapstructure:"manifest" toml:"manifest"`
	UpstreamOrg      string `mapstructure:"upstream_org" toml:"upstream_org"`
	UpstreamRemote   string `mapstructure:"upstream_remote" toml:"upstream_remote"`
	ForkRemote       string `mapstructure:"fork_remote" toml:"fork_remote"`
	CIRef            string `mapstructure:"ci_ref" toml:"ci_ref"`
	GenerateCommand  string `mapstructure:"generate_command" toml:"generate_command"`
	IgnoreFile       string `mapstructure:"ignore_file" toml:"ignore_file"`
	GeneratedPattern string `mapstructure:"generated_pattern" toml:"generated_pattern"`
	BranchSuffix     string `mapstructure:"branch_suffix" toml:"branch_suffix"`
	CommitMessage    string `mapstructure:"commit_message" toml:"commit_message"`
}

// HostConfig describes the host checkout and the validation service.
type HostConfig struct {
	Declaration      string   `mapstructure:"declaration" toml:"declaration"`
	VendorCommand    string   `mapstructure:"vendor_command" toml:"vendor_command"`
	VendorMessage    string   `mapstructure:"vendor_message" toml:"vendor_message"`
	ValidationRemote string   `mapstructure:"validation_remote" toml:"validation_remote"`
	ValidationURL    string   `mapstructure:"validation_url" toml:"validation_url"`
	TriggerTemplate  string   `mapstructure:"trigger_template" toml:"trigger_template"`
	BuildTypes       []string `mapstructure:"build_types" toml:"build_types"`
	DefaultBuildType string   `mapstructure:"default_build_type" toml:"default_build_type"`
}

type OutputConfig struct {
	Plain bool `mapstructure:"plain" toml:"plain"`
	Debug bool `mapstructure:"debug" toml:"debug"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an explicit config file; it must exist when set.
	File string
	// Dirs are searched in order for FileName when File is empty.
	Dirs []string
	// Flags, when non-nil, override file and environment values for the
	// flags named "plain" and "debug".
	Flags *pflag.FlagSet
}

// Load resolves configuration: defaults, then the first config file found,
// then TANDEM_* environment variables, then flags.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName(configName)
		for _, dir := range opts.Dirs {
			if dir != "" {
				v.AddConfigPath(dir)
			}
		}
		if len(opts.Dirs) > 0 {
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config: %w", err)
				}
			}
		}
	}

	if opts.Flags != nil {
		for key, name := range map[string]string{"output.plain": "plain", "output.debug": "debug"} {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// UsedFile reports which config file Load would read for the given options,
// or "" when only defaults apply.
func UsedFile(opts Options) string {
	if opts.File != "" {
		return opts.File
	}
	for _, dir := range opts.Dirs {
		if dir != "" && FileConfigExists(dir) {
			return FilePath(dir)
		}
	}
	return ""
}

// Trigger renders the validation request directive for a build type.
func (c *Config) Trigger(buildType string) string {
	return strings.ReplaceAll(c.Host.TriggerTemplate, "{build}", buildType)
}

// DisposableBranch returns the generated branch name for base.
func (c *Config) DisposableBranch(base string) string {
	return base + c.Library.BranchSuffix
}
