package drive

import (
	"context"
	"os"
	"strings"
)

// EnvTokenVar is the environment variable holding a static OAuth bearer token.
const EnvTokenVar = "POCKETLEDGER_DRIVE_TOKEN"

// EnvTokenSource reads a bearer token from the environment. An empty or unset
// variable means no credentials, which the uploader treats as a skip, not an
// error.
type EnvTokenSource struct {
	// Var overrides EnvTokenVar when non-empty.
	Var string
}

func (s EnvTokenSource) Token(ctx context.Context, interactive bool) (string, error) {
	name := s.Var
	if name == "" {
		name = EnvTokenVar
	}
	return strings.TrimSpace(os.Getenv(name)), nil
}
