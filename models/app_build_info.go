// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// AppBuildInfo carries immutable build-time metadata embedded into the server
// binary by linker flags. It is logged on startup and served by the version
// endpoint.
type AppBuildInfo struct {
	buildVersion string
	buildDate    string
	buildCommit  string
}

// NewAppBuildInfo constructs [AppBuildInfo] from the provided build metadata.
// Empty values are reported as "N/A".
func NewAppBuildInfo(buildVersion, buildDate, buildCommit string) AppBuildInfo {
	return AppBuildInfo{
		buildVersion: orNA(buildVersion),
		buildDate:    orNA(buildDate),
		buildCommit:  orNA(buildCommit),
	}
}

func (a AppBuildInfo) BuildVersion() string { return a.buildVersion }
func (a AppBuildInfo) BuildDate() string    { return a.buildDate }
func (a AppBuildInfo) BuildCommit() string  { return a.buildCommit }

// VersionResponse is the JSON form of [AppBuildInfo].
type VersionResponse struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// Response converts build info into its JSON form.
func (a AppBuildInfo) Response() VersionResponse {
	return VersionResponse{Version: a.buildVersion, Date: a.buildDate, Commit: a.buildCommit}
}

// NotAvailable stands in for build metadata that was not embedded.
const NotAvailable = "N/A"

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
