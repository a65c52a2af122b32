// Package github implements gitrepo.Client against the GitHub REST API using
// a plain authenticated http.Client. Only the handful of endpoints the
// evidence workflow needs are covered.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jenerCruz/asistencias-backend/internal/gitrepo"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to a single GitHub repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
}

func newClient(httpClient *http.Client, baseURL, owner, repo string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		owner:      owner,
		repo:       repo,
	}
}

// apiError is a non-2xx response from the GitHub API.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("github API error %d: %s", e.status, e.body)
}

// do sends one API request and decodes the JSON response into out (when
// non-nil). 404 responses are mapped to gitrepo.ErrNotFound; other non-2xx
// statuses surface as *apiError.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github API request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, gitrepo.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding github response: %w", err)
	}
	return nil
}

func (c *Client) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", c.owner, c.repo, suffix)
}

// escapePath escapes each segment of a repository file path, keeping the
// separators intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFileContent reads and decodes a file at the given ref.
func (c *Client) GetFileContent(ctx context.Context, path, ref string) ([]byte, error) {
	endpoint := c.repoPath("/contents/" + escapePath(path))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	var content contentResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &content); err != nil {
		return nil, err
	}
	if content.Encoding != "" && content.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding %q for %s", content.Encoding, path)
	}
	// The contents API inserts line breaks into the base64 payload.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding content of %s: %w", path, err)
	}
	return decoded, nil
}

// GetDefaultBranch reads the repository's default branch name.
func (c *Client) GetDefaultBranch(ctx context.Context) (string, error) {
	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.do(ctx, http.MethodGet, c.repoPath(""), nil, &repo); err != nil {
		return "", err
	}
	return repo.DefaultBranch, nil
}

// GetBranchHead returns the commit sha a branch ref points at.
func (c *Client) GetBranchHead(ctx context.Context, branch string) (string, error) {
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.do(ctx, http.MethodGet, c.repoPath("/git/ref/heads/"+branch), nil, &ref); err != nil {
		return "", err
	}
	return ref.Object.SHA, nil
}

// CreateBranch creates refs/heads/<name> at the given sha. A 422 means the
// ref already exists and maps to gitrepo.ErrBranchExists.
func (c *Client) CreateBranch(ctx context.Context, name, sha string) error {
	payload := map[string]string{
		"ref": "refs/heads/" + name,
		"sha": sha,
	}
	err := c.do(ctx, http.MethodPost, c.repoPath("/git/refs"), payload, nil)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.status == http.StatusUnprocessableEntity {
		return fmt.Errorf("%s: %w", name, gitrepo.ErrBranchExists)
	}
	return err
}

// PutFile commits a file on a branch through the contents API.
func (c *Client) PutFile(ctx context.Context, input gitrepo.PutFileInput) error {
	payload := map[string]string{
		"message": input.Message,
		"content": base64.StdEncoding.EncodeToString(input.Content),
		"branch":  input.Branch,
	}
	return c.do(ctx, http.MethodPut, c.repoPath("/contents/"+escapePath(input.Path)), payload, nil)
}

// CreatePullRequest opens a pull request and returns its number and URL.
func (c *Client) CreatePullRequest(ctx context.Context, input gitrepo.PullRequestInput) (gitrepo.PullRequest, error) {
	payload := map[string]string{
		"title": input.Title,
		"body":  input.Body,
		"head":  input.Head,
		"base":  input.Base,
	}
	var pr struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := c.do(ctx, http.MethodPost, c.repoPath("/pulls"), payload, &pr); err != nil {
		return gitrepo.PullRequest{}, err
	}
	return gitrepo.PullRequest{Number: pr.Number, URL: pr.HTMLURL}, nil
}

// AddLabels attaches labels to a pull request (issues API).
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) error {
	payload := map[string][]string{"labels": labels}
	return c.do(ctx, http.MethodPost, c.repoPath(fmt.Sprintf("/issues/%d/labels", number)), payload, nil)
}
