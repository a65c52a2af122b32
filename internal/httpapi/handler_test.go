package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jenerCruz/asistencias-backend/internal/evidence"
	"github.com/jenerCruz/asistencias-backend/internal/gitrepo"
)

type fakeClient struct {
	directory      []byte
	directoryErr   error
	createBranchFn func(name, sha string) error
	createPRFn     func(input gitrepo.PullRequestInput) (gitrepo.PullRequest, error)

	branches []string
	puts     []gitrepo.PutFileInput
	prInput  gitrepo.PullRequestInput
}

func (f *fakeClient) GetFileContent(ctx context.Context, path, ref string) ([]byte, error) {
	if f.directoryErr != nil {
		return nil, f.directoryErr
	}
	return f.directory, nil
}

func (f *fakeClient) GetDefaultBranch(ctx context.Context) (string, error) {
	return "main", nil
}

func (f *fakeClient) GetBranchHead(ctx context.Context, branch string) (string, error) {
	return "abc123", nil
}

func (f *fakeClient) CreateBranch(ctx context.Context, name, sha string) error {
	f.branches = append(f.branches, name)
	if f.createBranchFn == nil {
		return nil
	}
	return f.createBranchFn(name, sha)
}

func (f *fakeClient) PutFile(ctx context.Context, input gitrepo.PutFileInput) error {
	f.puts = append(f.puts, input)
	return nil
}

func (f *fakeClient) CreatePullRequest(ctx context.Context, input gitrepo.PullRequestInput) (gitrepo.PullRequest, error) {
	f.prInput = input
	if f.createPRFn == nil {
		return gitrepo.PullRequest{Number: 9, URL: "https://example.com/pull/9"}, nil
	}
	return f.createPRFn(input)
}

func (f *fakeClient) AddLabels(ctx context.Context, number int, labels []string) error {
	return nil
}

type fakeFactory struct {
	client gitrepo.Client
	err    error
}

func (f fakeFactory) NewClient(ctx context.Context) (gitrepo.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestHandler(client *fakeClient) *Handler {
	service := evidence.NewService(fakeFactory{client: client}, evidence.Options{
		DefaultBranch: "main",
		MaxSizeBytes:  1 << 20,
		Now:           func() time.Time { return testNow },
	})
	return NewHandler(service, Options{})
}

func uploadBody(t *testing.T, fields map[string]string) []byte {
	t.Helper()
	body, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func postUpload(h *Handler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)
	return resp
}

func decodeMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload.Message
}

func validUploadFields() map[string]string {
	return map[string]string{
		"employeeId":    "123",
		"kind":          "entrada",
		"filename":      "foto.jpg",
		"contentBase64": base64.StdEncoding.EncodeToString([]byte("jpeg bytes")),
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var payload healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || !payload.OK {
		t.Fatalf("unexpected health payload: %s", resp.Body.String())
	}
}

func TestUploadSuccess(t *testing.T) {
	client := &fakeClient{directory: []byte(`[{"id":"123","nombre":"Ana"}]`)}
	h := newTestHandler(client)

	resp := postUpload(h, uploadBody(t, validUploadFields()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || payload.PRURL != "https://example.com/pull/9" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if len(client.branches) != 1 {
		t.Fatalf("branches = %v", client.branches)
	}
	branchPattern := regexp.MustCompile(`^evidencia/123/\d{4}-\d{2}-\d{2}-\d{6}$`)
	if !branchPattern.MatchString(client.branches[0]) {
		t.Errorf("branch %q does not match pattern", client.branches[0])
	}
	if client.prInput.Title != "ENTRADA: Ana (123) - 2026-03-14" {
		t.Errorf("pr title = %q", client.prInput.Title)
	}
}

func TestUploadInvalidKind(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	fields := validUploadFields()
	fields["kind"] = "invalida"

	resp := postUpload(h, uploadBody(t, fields))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Tipo inválido." {
		t.Errorf("message = %q", msg)
	}
}

func TestUploadContentTooLarge(t *testing.T) {
	client := &fakeClient{directory: []byte(`[{"id":"123","nombre":"Ana"}]`)}
	service := evidence.NewService(fakeFactory{client: client}, evidence.Options{
		MaxSizeBytes: 16,
		Now:          func() time.Time { return testNow },
	})
	h := NewHandler(service, Options{})

	fields := validUploadFields()
	fields["contentBase64"] = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 32)))

	resp := postUpload(h, uploadBody(t, fields))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Archivo demasiado grande." {
		t.Errorf("message = %q", msg)
	}
}

func TestUploadDisallowedExtension(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	fields := validUploadFields()
	fields["filename"] = "doc.exe"

	resp := postUpload(h, uploadBody(t, fields))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Extensión no permitida." {
		t.Errorf("message = %q", msg)
	}
}

func TestUploadUnknownEmployee(t *testing.T) {
	client := &fakeClient{directory: []byte(`[{"id":"999","nombre":"Otra"}]`)}
	h := newTestHandler(client)

	resp := postUpload(h, uploadBody(t, validUploadFields()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Empleado no válido." {
		t.Errorf("message = %q", msg)
	}
	if len(client.branches) != 0 {
		t.Errorf("no branch expected for rejected submission, got %v", client.branches)
	}
}

func TestUploadMissingFields(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	resp := postUpload(h, uploadBody(t, map[string]string{"employeeId": "123"}))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Faltan campos requeridos." {
		t.Errorf("message = %q", msg)
	}
}

func TestUploadInvalidJSONBody(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	resp := postUpload(h, []byte("{truncated"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestUploadBackendFailureIsOpaque(t *testing.T) {
	client := &fakeClient{
		directory: []byte(`[{"id":"123","nombre":"Ana"}]`),
		createPRFn: func(input gitrepo.PullRequestInput) (gitrepo.PullRequest, error) {
			return gitrepo.PullRequest{}, errors.New("api quota exhausted")
		},
	}
	h := newTestHandler(client)

	resp := postUpload(h, uploadBody(t, validUploadFields()))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Error interno al procesar la evidencia." {
		t.Errorf("message = %q", msg)
	}
	if strings.Contains(resp.Body.String(), "quota") {
		t.Errorf("backend detail leaked to caller: %s", resp.Body.String())
	}
}

func TestUploadBranchCollision(t *testing.T) {
	client := &fakeClient{
		directory: []byte(`[{"id":"123","nombre":"Ana"}]`),
		createBranchFn: func(name, sha string) error {
			return gitrepo.ErrBranchExists
		},
	}
	h := newTestHandler(client)

	resp := postUpload(h, uploadBody(t, validUploadFields()))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestUploadFactoryFailure(t *testing.T) {
	service := evidence.NewService(fakeFactory{err: errors.New("bad credentials")}, evidence.Options{})
	h := NewHandler(service, Options{})

	resp := postUpload(h, uploadBody(t, validUploadFields()))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestUploadMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	resp := httptest.NewRecorder()

	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}

func TestUploadBodyOverCap(t *testing.T) {
	h := NewHandler(newTestHandler(&fakeClient{}).service, Options{MaxBodyBytes: 64})
	resp := postUpload(h, uploadBody(t, validUploadFields()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeMessage(t, resp); msg != "Archivo demasiado grande." {
		t.Errorf("message = %q", msg)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := newTestHandler(&fakeClient{})
	handler := CORSMiddleware(h.Routes())

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for preflight, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
}
