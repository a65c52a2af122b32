package gitrepo

import "errors"

var (
	// ErrNotFound reports a missing file, ref, or repository.
	ErrNotFound = errors.New("not found")
	// ErrBranchExists reports a ref-creation conflict, typically two
	// submissions for the same employee within the same second.
	ErrBranchExists = errors.New("branch already exists")
)
