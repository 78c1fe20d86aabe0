package config

import (
	"github.com/spf13/viper"
)

// RevCIGenerated is the revision argument that asks for the current head of
// the library's ci_generated branch instead of a literal revision.
const RevCIGenerated = "ci_generated"

func SetDefaults(v *viper.Viper) {
	// Library defaults.
	v.SetDefault("library.name", "jsparagus")
	v.SetDefault("library.dir", "../jsparagus")
	v.SetDefault("library.manifest", "Cargo.toml")
	v.SetDefault("library.upstream_org", "mozilla-spidermonkey")
	v.SetDefault("library.upstream_remote", "upstream")
	v.SetDefault("library.fork_remote", "origin")
	v.SetDefault("library.ci_ref", "refs/heads/ci_generated")
	v.SetDefault("library.generate_command", "make all")
	v.SetDefault("library.ignore_file", ".gitignore")
	v.SetDefault("library.generated_pattern", "*_generated.rs")
	v.SetDefault("library.branch_suffix", "-generated-branch")
	v.SetDefault("library.commit_message", "Add generated files")

	// Host defaults.
	v.SetDefault("host.declaration", "js/src/frontend/smoosh/Cargo.toml")
	v.SetDefault("host.vendor_command", "./mach vendor rust")
	v.SetDefault("host.vendor_message", "Update vendored crates")
	v.SetDefault("host.validation_remote", "try")
	v.SetDefault("host.validation_url", "hg::https://hg.mozilla.org/try")
	v.SetDefault("host.trigger_template", "try: -b {build} -p sm-smoosh-linux64 -u none -t none")
	v.SetDefault("host.build_types", ValidBuildTypes())
	v.SetDefault("host.default_build_type", "all")

	// Output defaults.
	v.SetDefault("output.plain", false)
	v.SetDefault("output.debug", false)
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; a decode failure is a programming error.
		panic("config: invalid defaults: " + err.Error())
	}
	return &cfg
}

func ValidBuildTypes() []string {
	return []string{"debug", "opt", "all"}
}
