package domain

import "context"

// AppCaller sends a JSON-shaped request to the application under test and
// returns its decoded JSON response.
type AppCaller interface {
	Call(ctx context.Context, request any) (any, error)
}

// SchemaKind names one of the fixed result schemas.
type SchemaKind string

const (
	SchemaView SchemaKind = "view"
	SchemaJSON SchemaKind = "json"
)

// Violation is one schema violation, located by a JSON pointer.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// SchemaValidator validates a value against one of the fixed result schemas.
type SchemaValidator interface {
	Validate(kind SchemaKind, value any) []Violation
}

// ConfigLoader loads the project configuration.
type ConfigLoader interface {
	Load(projectPath string) (CheckConfig, error)
}

// GitHead is the checked out revision of the project under test. Branch is
// empty on a detached HEAD.
type GitHead struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
}

// GitInfo reads repository metadata of the project under test.
type GitInfo interface {
	IsGitRepo(projectPath string) bool
	Head(projectPath string) (GitHead, error)
}
