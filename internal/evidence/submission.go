package evidence

import (
	"encoding/base64"
	"strings"
)

// Kind is the attendance event a submission documents.
type Kind string

const (
	KindEntry Kind = "entrada"
	KindExit  Kind = "salida"
)

// Tag is the uppercase marker used in commit messages and PR titles.
func (k Kind) Tag() string {
	if k == KindEntry {
		return "ENTRADA"
	}
	return "SALIDA"
}

// RawSubmission holds the upload fields as received, before validation.
type RawSubmission struct {
	EmployeeID    string
	Kind          string
	Notes         string
	Filename      string
	ContentBase64 string
}

// Submission is a validated, normalized evidence submission.
type Submission struct {
	EmployeeID string
	Kind       Kind
	Notes      string
	Filename   string
	Content    []byte
}

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"heic": true,
	"pdf":  true,
}

// ValidateSubmission normalizes raw upload fields or fails with one sentinel
// error. Check order is fixed so error reporting stays deterministic:
// presence, kind, content, size, extension.
func ValidateSubmission(raw RawSubmission, maxSizeBytes int64) (Submission, error) {
	if raw.EmployeeID == "" || raw.Kind == "" || raw.Filename == "" || raw.ContentBase64 == "" {
		return Submission{}, ErrMissingFields
	}

	kind := Kind(raw.Kind)
	if kind != KindEntry && kind != KindExit {
		return Submission{}, ErrInvalidKind
	}

	content, err := base64.StdEncoding.DecodeString(raw.ContentBase64)
	if err != nil {
		return Submission{}, ErrInvalidContent
	}
	if int64(len(content)) > maxSizeBytes {
		return Submission{}, ErrContentTooLarge
	}

	// A dotless filename is checked whole and never matches the allowlist.
	ext := raw.Filename
	if i := strings.LastIndex(raw.Filename, "."); i >= 0 {
		ext = raw.Filename[i+1:]
	}
	if !allowedExtensions[strings.ToLower(ext)] {
		return Submission{}, ErrDisallowedExtension
	}

	return Submission{
		EmployeeID: raw.EmployeeID,
		Kind:       kind,
		Notes:      strings.TrimSpace(raw.Notes),
		Filename:   raw.Filename,
		Content:    content,
	}, nil
}
