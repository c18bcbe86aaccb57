package config

import "context"

// SecretProvider resolves secret references to plaintext values. Keys are
// the reference values found in *_FILE variables, typically file paths.
// Unresolvable keys are omitted from the result rather than failing the batch.
type SecretProvider interface {
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
