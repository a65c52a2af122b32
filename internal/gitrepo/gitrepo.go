// Package gitrepo defines the capability surface this service needs from a
// version-control hosting backend. Implementations live in subpackages; tests
// substitute in-memory fakes.
package gitrepo

import "context"

// PullRequest identifies a review request opened on the backend.
type PullRequest struct {
	Number int
	URL    string
}

// PutFileInput describes one file commit on a branch.
type PutFileInput struct {
	Branch  string
	Path    string
	Message string
	Content []byte
}

// PullRequestInput describes a pull request to open.
type PullRequestInput struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// Client is a short-lived authenticated handle on a single repository.
type Client interface {
	GetFileContent(ctx context.Context, path, ref string) ([]byte, error)
	GetDefaultBranch(ctx context.Context) (string, error)
	GetBranchHead(ctx context.Context, branch string) (string, error)
	CreateBranch(ctx context.Context, name, sha string) error
	PutFile(ctx context.Context, input PutFileInput) error
	CreatePullRequest(ctx context.Context, input PullRequestInput) (PullRequest, error)
	AddLabels(ctx context.Context, number int, labels []string) error
}

// Factory mints a fresh authenticated Client per request. Credentials are
// never cached process-wide; a stale token can at most outlive one request.
type Factory interface {
	NewClient(ctx context.Context) (Client, error)
}
