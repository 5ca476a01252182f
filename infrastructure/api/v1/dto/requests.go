// Package dto holds the request bodies accepted by the v1 API.
package dto

// RepositoryAttributes are the writable fields of a repository.
type RepositoryAttributes struct {
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	RemoteURL     string   `json:"remote_url"`
	DefaultBranch string   `json:"default_branch,omitempty"`
	SyncFrequency string   `json:"sync_frequency,omitempty"`
	SyncBranch    string   `json:"sync_branch,omitempty"`
	SyncIgnore    []string `json:"sync_ignore,omitempty"`
}

// RepositoryData wraps repository attributes in JSON:API request shape.
type RepositoryData struct {
	Type       string               `json:"type"`
	Attributes RepositoryAttributes `json:"attributes"`
}

// RepositoryCreateRequest is the body of POST /repositories.
type RepositoryCreateRequest struct {
	Data RepositoryData `json:"data"`
}

// ScanAttributes carry the markdown document to scan for citation links.
type ScanAttributes struct {
	Document string `json:"document"`
}

// ScanData wraps scan attributes in JSON:API request shape.
type ScanData struct {
	Type       string         `json:"type"`
	Attributes ScanAttributes `json:"attributes"`
}

// ScanRequest is the body of POST /references/scan.
type ScanRequest struct {
	Data ScanData `json:"data"`
}
