// Package contracts holds the types shared by the API, the websocket feed
// and the CLI.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	Version = "1.0.0"

	// APIVersion prefixes the HTTP routes and tags websocket messages
	APIVersion = "v1"
)

// Set with -ldflags "-X campuspulse/pkg/contracts.BuildTime=... -X campuspulse/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// CurrentBuild returns the BuildInfo of this binary
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders b for --version output
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (api %s, commit %s, built %s, %s %s)",
		b.Version, b.APIVersion, b.GitCommit, b.BuildTime, b.GoVersion, b.Platform)
}
