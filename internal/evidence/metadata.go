package evidence

// Metadata is the durable mirror of a submission, committed next to the
// evidence file. Version identifies the record layout.
type Metadata struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Kind         Kind   `json:"kind"`
	Notes        string `json:"notes"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Filename     string `json:"filename"`
	Version      int    `json:"version"`
}

const metadataVersion = 1
