package model

import "time"

// CatalogExport is the top-level JSON structure for the export command.
type CatalogExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	QuizCount  int             `json:"quiz_count"`
	Quizzes    []Quiz          `json:"quizzes"`
	Accounts   []AccountExport `json:"accounts,omitempty"`
}

// AccountExport is an account as it appears in an export. The password is
// always redacted.
type AccountExport struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExportAccount strips the password from an account for export.
func ExportAccount(a Account) AccountExport {
	return AccountExport{ID: a.ID, Name: a.Name, Email: a.Email}
}
