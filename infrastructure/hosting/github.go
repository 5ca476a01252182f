package hosting

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every request to the host.
const DefaultTimeout = 30 * time.Second

// GitHubClient implements Client against the GitHub REST v3 API.
type GitHubClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// GitHubOption configures the client.
type GitHubOption func(*GitHubClient)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) GitHubOption {
	return func(c *GitHubClient) { c.token = token }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) GitHubOption {
	return func(c *GitHubClient) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) GitHubOption {
	return func(c *GitHubClient) { c.http = h }
}

// NewGitHubClient creates a client for baseURL, e.g.
// "https://api.github.com".
func NewGitHubClient(baseURL string, logger *slog.Logger, opts ...GitHubOption) *GitHubClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &GitHubClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type contentResponse struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FileContent fetches one file at a ref. A 404 returns ErrFileAbsent.
func (c *GitHubClient) FileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	q := url.Values{}
	if ref != "" {
		q.Set("ref", ref)
	}
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path)), q)
	if err != nil {
		return "", err
	}

	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("hosting: decode content response: %w", err)
	}
	if resp.Type != "" && resp.Type != "file" {
		return "", fmt.Errorf("hosting: %s is a %s, not a file", path, resp.Type)
	}
	if resp.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("hosting: decode file content: %w", err)
		}
		return string(decoded), nil
	}
	return resp.Content, nil
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Commits lists commits, newest first, honoring since/sha/per_page.
func (c *GitHubClient) Commits(ctx context.Context, owner, repo string, opts CommitOptions) ([]Commit, error) {
	q := url.Values{}
	if opts.Since != nil {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if opts.SHA != "" {
		q.Set("sha", opts.SHA)
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits", owner, repo), q)
	if err != nil {
		return nil, err
	}

	var raw []commitResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("hosting: decode commits response: %w", err)
	}
	commits := make([]Commit, 0, len(raw))
	for _, r := range raw {
		commits = append(commits, Commit{
			SHA:     r.SHA,
			Message: r.Commit.Message,
			Author: CommitAuthor{
				Name:  r.Commit.Author.Name,
				Email: r.Commit.Author.Email,
				Date:  r.Commit.Author.Date,
			},
		})
	}
	return commits, nil
}

// ListDirectory lists one directory at a ref.
func (c *GitHubClient) ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]DirEntry, error) {
	q := url.Values{}
	if ref != "" {
		q.Set("ref", ref)
	}
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path)), q)
	if err != nil {
		return nil, err
	}

	var raw []contentResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("hosting: decode directory response: %w", err)
	}
	entries := make([]DirEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, DirEntry{Name: r.Name, Path: r.Path, Type: r.Type, Size: r.Size})
	}
	return entries, nil
}

func (c *GitHubClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("hosting: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hosting: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrFileAbsent, path)
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("host request failed",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("hosting: %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hosting: read response: %w", err)
	}
	return body, nil
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
