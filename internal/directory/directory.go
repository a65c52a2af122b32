// Package directory resolves employee ids to display names through the
// externally maintained registry committed in the target repository.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/jenerCruz/asistencias-backend/internal/gitrepo"
)

// Path of the registry inside the target repository. The file is owned and
// mutated by an external process; this service only reads it.
const Path = "docs/employees.json"

// ErrUnknownEmployee reports an id missing from a readable directory.
var ErrUnknownEmployee = errors.New("employee not in directory")

// Employee is one directory entry.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// Resolve returns the display name for employeeID. An unreadable or malformed
// directory degrades to the raw id so a missing file never blocks submissions;
// operators disable validation by simply not publishing the file. A readable
// directory without the id rejects with ErrUnknownEmployee.
func Resolve(ctx context.Context, client gitrepo.Client, ref, employeeID string) (string, error) {
	raw, err := client.GetFileContent(ctx, Path, ref)
	if err != nil {
		log.Printf("employee directory unavailable, using raw id: %v", err)
		return employeeID, nil
	}

	var list []Employee
	if err := json.Unmarshal(raw, &list); err != nil {
		log.Printf("employee directory malformed, using raw id: %v", err)
		return employeeID, nil
	}

	for _, e := range list {
		if e.ID == employeeID {
			return e.Name, nil
		}
	}
	return "", ErrUnknownEmployee
}
