package repository

import (
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

// SyncFrequency controls when the scheduler picks a repository up.
type SyncFrequency string

// SyncFrequency values.
const (
	SyncDaily  SyncFrequency = "daily"
	SyncManual SyncFrequency = "manual"
)

// SyncPolicy is the per-repository sync configuration, optionally loaded from
// a .codecite.yml file committed to the repository root.
type SyncPolicy struct {
	frequency SyncFrequency
	branch    string
	ignore    []string
}

// DefaultSyncPolicy returns the policy used when a repository carries no
// .codecite.yml: daily sync on the default branch, nothing ignored.
func DefaultSyncPolicy() SyncPolicy {
	return SyncPolicy{frequency: SyncDaily}
}

// NewSyncPolicy creates a SyncPolicy with all fields.
func NewSyncPolicy(frequency SyncFrequency, branch string, ignore []string) SyncPolicy {
	globs := make([]string, len(ignore))
	copy(globs, ignore)
	return SyncPolicy{frequency: frequency, branch: branch, ignore: globs}
}

// Frequency returns the sync frequency.
func (p SyncPolicy) Frequency() SyncFrequency { return p.frequency }

// Branch returns the branch override, or "" for the repository default.
func (p SyncPolicy) Branch() string { return p.branch }

// Ignore returns the path ignore globs.
func (p SyncPolicy) Ignore() []string {
	globs := make([]string, len(p.ignore))
	copy(globs, p.ignore)
	return globs
}

// AllowsDaily reports whether the daily sweep may sync this repository.
func (p SyncPolicy) AllowsDaily() bool {
	return p.frequency == SyncDaily
}

// Ignores reports whether the given file path matches any ignore glob.
// Globs match against the full path and against the base name, so "*.md"
// ignores markdown files anywhere in the tree.
func (p SyncPolicy) Ignores(filePath string) bool {
	for _, glob := range p.ignore {
		if ok, _ := path.Match(glob, filePath); ok {
			return true
		}
		if ok, _ := path.Match(glob, path.Base(filePath)); ok {
			return true
		}
	}
	return false
}

// syncPolicyYAML is the on-disk shape of .codecite.yml.
type syncPolicyYAML struct {
	Sync struct {
		Frequency string   `yaml:"frequency"`
		Branch    string   `yaml:"branch"`
		Ignore    []string `yaml:"ignore"`
	} `yaml:"sync"`
}

// ParseSyncPolicy parses a .codecite.yml document. Missing fields fall back
// to defaults; an unknown frequency is an error.
func ParseSyncPolicy(data []byte) (SyncPolicy, error) {
	var doc syncPolicyYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return SyncPolicy{}, fmt.Errorf("parse sync policy: %w", err)
	}

	policy := DefaultSyncPolicy()
	switch doc.Sync.Frequency {
	case "":
	case string(SyncDaily):
		policy.frequency = SyncDaily
	case string(SyncManual):
		policy.frequency = SyncManual
	default:
		return SyncPolicy{}, fmt.Errorf("parse sync policy: unknown frequency %q", doc.Sync.Frequency)
	}

	policy.branch = doc.Sync.Branch
	policy.ignore = doc.Sync.Ignore
	return policy, nil
}
