// Package evidence implements the submission workflow: validate the upload,
// resolve the employee, derive a branch, commit the evidence and its metadata,
// open a pull request and best-effort label it.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jenerCruz/asistencias-backend/internal/directory"
	"github.com/jenerCruz/asistencias-backend/internal/gitrepo"
)

const (
	evidenceRoot = "evidencias"
	prLabel      = "evidencia"
)

const defaultMaxSizeBytes = 25 << 20

// Service runs the evidence submission workflow against a backend factory.
type Service struct {
	factory       gitrepo.Factory
	defaultBranch string
	maxSizeBytes  int64
	now           func() time.Time
}

type Options struct {
	DefaultBranch string
	MaxSizeBytes  int64
	Now           func() time.Time
}

func NewService(factory gitrepo.Factory, opts Options) *Service {
	s := &Service{
		factory:       factory,
		defaultBranch: opts.DefaultBranch,
		maxSizeBytes:  opts.MaxSizeBytes,
		now:           opts.Now,
	}
	if s.defaultBranch == "" {
		s.defaultBranch = "main"
	}
	if s.maxSizeBytes <= 0 {
		s.maxSizeBytes = defaultMaxSizeBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Result describes the published change-set.
type Result struct {
	Branch   string
	PRNumber int
	PRURL    string
}

// Submit processes one submission end to end. Backend calls run strictly in
// sequence; validation and resolution errors return before any mutation, and
// a branch created before a later failure is left in place (not rolled back).
func (s *Service) Submit(ctx context.Context, raw RawSubmission) (Result, error) {
	sub, err := ValidateSubmission(raw, s.maxSizeBytes)
	if err != nil {
		return Result{}, err
	}

	client, err := s.factory.NewClient(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("backend client: %w", err)
	}

	name, err := directory.Resolve(ctx, client, s.defaultBranch, sub.EmployeeID)
	if err != nil {
		return Result{}, err
	}

	base, err := client.GetDefaultBranch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading repository: %w", err)
	}
	if base == "" {
		base = s.defaultBranch
	}
	sha, err := client.GetBranchHead(ctx, base)
	if err != nil {
		return Result{}, fmt.Errorf("reading head of %s: %w", base, err)
	}

	now := s.now()
	date, clock := timestampParts(now)
	branch := BranchName(sub.EmployeeID, now)
	if err := client.CreateBranch(ctx, branch, sha); err != nil {
		return Result{}, fmt.Errorf("creating branch %s: %w", branch, err)
	}

	safeID := SanitizeSegment(sub.EmployeeID)
	safeFile := SanitizeFilename(sub.Filename)
	dir := fmt.Sprintf("%s/%s/%s", evidenceRoot, safeID, date)
	filePath := fmt.Sprintf("%s/%s-%s-%s", dir, sub.Kind, clock, safeFile)
	metaPath := fmt.Sprintf("%s/%s-%s-meta.json", dir, sub.Kind, clock)

	message := fmt.Sprintf("[%s] %s (%s) - %s %s - %s", sub.Kind.Tag(), name, sub.EmployeeID, date, clock, safeFile)
	if err := client.PutFile(ctx, gitrepo.PutFileInput{
		Branch:  branch,
		Path:    filePath,
		Message: message,
		Content: sub.Content,
	}); err != nil {
		return Result{}, fmt.Errorf("committing evidence: %w", err)
	}

	meta := Metadata{
		EmployeeID:   sub.EmployeeID,
		EmployeeName: name,
		Kind:         sub.Kind,
		Notes:        sub.Notes,
		Date:         date,
		Time:         clock,
		Filename:     safeFile,
		Version:      metadataVersion,
	}
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encoding metadata: %w", err)
	}
	if err := client.PutFile(ctx, gitrepo.PutFileInput{
		Branch:  branch,
		Path:    metaPath,
		Message: message + " (metadata)",
		Content: encoded,
	}); err != nil {
		return Result{}, fmt.Errorf("committing metadata: %w", err)
	}

	notes := sub.Notes
	if notes == "" {
		notes = "N/A"
	}
	pr, err := client.CreatePullRequest(ctx, gitrepo.PullRequestInput{
		Title: fmt.Sprintf("%s: %s (%s) - %s", sub.Kind.Tag(), name, sub.EmployeeID, date),
		Body: fmt.Sprintf("Evidencia subida automáticamente.\n\n- Empleado: %s (%s)\n- Tipo: %s\n- Fecha: %s\n- Hora: %s\n- Notas: %s",
			name, sub.EmployeeID, sub.Kind, date, clock, notes),
		Head: branch,
		Base: base,
	})
	if err != nil {
		return Result{}, fmt.Errorf("opening pull request: %w", err)
	}

	// Labeling is cosmetic: log and move on, never fail the submission.
	if err := client.AddLabels(ctx, pr.Number, []string{prLabel}); err != nil {
		log.Printf("labeling pull request #%d: %v", pr.Number, err)
	}

	return Result{Branch: branch, PRNumber: pr.Number, PRURL: pr.URL}, nil
}
