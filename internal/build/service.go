package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
)

// BuildService executes builds.
type BuildService interface {
	// Run executes bundle, write, feed and manifest stages. The result is
	// returned even when the build fails.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs of a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// OutputDir overrides Config.Output.Directory when set.
	OutputDir string

	Options BuildOptions
}

// BuildOptions modifies build behavior.
type BuildOptions struct {
	// SkipIfUnchanged leaves the output untouched when the previous build
	// manifest in the output directory has the same input hash.
	SkipIfUnchanged bool
}

// BuildResult contains the outcome of a build.
type BuildResult struct {
	BuildID string
	Status  BuildStatus

	// OutputPath is the directory the build wrote to.
	OutputPath string

	Entries int
	Modules int
	Assets  int
	// Items counts content items across all content modules.
	Items int
	// WatchFiles are the inputs the build read, for watch mode.
	WatchFiles []string

	// Manifest is the written build manifest; nil if the build failed
	// before it was written.
	Manifest *manifest.BuildManifest

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time

	Skipped    bool
	SkipReason string
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusSkipped   BuildStatus = "skipped"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusSkipped
}
