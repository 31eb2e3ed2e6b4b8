// Package dispatch drains the expanded run space across a bounded
// pool of workers. Each worker materializes a working directory,
// renders declared files, and invokes the configured external
// commands in order for every instance it dequeues.
package dispatch

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/chauffeur/internal/param"
	"github.com/leapstack-labs/chauffeur/pkg/core"
)

// BatchFileType tags file definitions whose rendered output is
// collected for batch submission.
const BatchFileType = "batch"

// SetupDriverType marks a driver that materializes directories and
// renders files but never invokes commands.
const SetupDriverType = "setup"

// ErrMissingExecutable indicates a run that would invoke commands
// without a configured executable.
var ErrMissingExecutable = errors.New("no executable configured")

// FileDef declares one file to render per instance.
type FileDef struct {
	// Input is the template path; Output the rendered path. Both may
	// contain references.
	Input  string
	Output string

	// Type is an arbitrary tag; BatchFileType is meaningful.
	Type string

	// Parameters are static overrides that win over instance data
	// during rendering of this file.
	Parameters map[string]core.Value
}

// Options configures a Dispatcher. All fields are read-only once the
// pool starts.
type Options struct {
	Workers   int
	DryRun    bool
	KeepGoing bool

	// RunDir is the working-directory template, rendered per instance.
	RunDir string

	// TemplateDir, when set, is copied into each working directory.
	TemplateDir string

	// DriverType selects the pipeline: "exec" runs commands,
	// SetupDriverType stops after file rendering.
	DriverType string

	Executable  string
	PreCommand  string
	ExecCommand string
	PostCommand string

	Files []FileDef

	// LongFormats renders file contents; ShortFormats renders
	// directory names and command lines.
	LongFormats  param.FormatTable
	ShortFormats param.FormatTable

	// Base is the namespace chain below the per-instance layers,
	// ordered user-defined then driver.
	Base param.Chain

	// Store, when non-nil, records per-instance outcomes under RunID.
	Store core.Store
	RunID string

	Logger *slog.Logger
}
