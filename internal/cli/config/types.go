// Package config loads and validates the chauffeur configuration
// document: the driver section, user-defined parameters, run groups,
// and file definitions. Layering follows flags > env vars > config
// file > defaults.
package config

import (
	"fmt"

	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// Config holds the fully decoded configuration.
type Config struct {
	// Path is the config file the document was loaded from.
	Path string

	// StatePath is the run-history database location.
	StatePath string `koanf:"state_path"`

	Verbose bool `koanf:"verbose"`

	Driver DriverConfig

	// UserDef holds opaque user-defined parameters visible to
	// resolution.
	UserDef map[string]core.Value

	// Runs maps run-group name to its declaration. Any top-level
	// document key containing "run" declares a group.
	Runs map[string]RunGroup

	// Files lists the file definitions rendered per instance,
	// including the implicit one formed by the driver's templatefile
	// and paramfile keys.
	Files []FileConfig
}

// DriverConfig holds the driver-level section.
type DriverConfig struct {
	Executable   string `koanf:"executable"`
	RunDir       string `koanf:"rundir"`
	TemplateFile string `koanf:"templatefile"`
	ParamFile    string `koanf:"paramfile"`
	TemplateDir  string `koanf:"templatedir"`
	Type         string `koanf:"type"`
	DryRun       bool   `koanf:"dryrun"`
	Workers      int    `koanf:"workers"`

	PreCommand  string `koanf:"precommand"`
	ExecCommand string `koanf:"execcommand"`
	PostCommand string `koanf:"postcommand"`

	IntFmtLong  string `koanf:"intfmtlong"`
	FltFmtLong  string `koanf:"fltfmtlong"`
	IntFmtShort string `koanf:"intfmtshort"`
	FltFmtShort string `koanf:"fltfmtshort"`

	BatchCommand string `koanf:"batchcommand"`
	BatchScript  string `koanf:"batchscript"`
}

// RunGroup declares one run group's swept variables.
type RunGroup struct {
	Variables  map[string][]core.Value
	Order      []string
	Parameters map[string]core.Value
}

// FileConfig declares one file definition.
type FileConfig struct {
	Input      string
	Output     string
	Type       string
	Parameters map[string]core.Value
}

// ValidationError reports a configuration document that cannot be
// accepted.
type ValidationError struct {
	Section string
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Section, e.Msg)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Msg)
}

func validationErrorf(section, format string, args ...any) *ValidationError {
	return &ValidationError{Section: section, Msg: fmt.Sprintf(format, args...)}
}
