// loader.go implements the configuration loading lifecycle:
//  1. Enforce UTC timezone.
//  2. Load .env via godotenv (non-fatal if absent).
//  3. Resolve X_FILE references for the SecretString fields Config declares
//     through the SecretProvider and inject the values back into the
//     environment.
//  4. Populate Config from envconfig struct tags.
//  5. Populate BuildInfo from linker-injected variables.
//  6. Validate with go-playground/validator.
package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is the diagnostic error returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// secretRefSuffix marks a variable whose value points at a secret. For
// example PLACES_API_KEY_FILE=/run/secrets/places populates PLACES_API_KEY.
// Only targets listed in secretTargets are honoured, so host variables such
// as SSL_CERT_FILE are left alone.
const secretRefSuffix = "_FILE"

// secretTargets holds the envconfig names of every SecretString field in
// Config.
var secretTargets = collectSecretTargets(reflect.TypeFor[Config]())

func collectSecretTargets(t reflect.Type) map[string]struct{} {
	out := make(map[string]struct{})
	secretType := reflect.TypeFor[SecretString]()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		switch {
		case f.Type == secretType:
			if name := f.Tag.Get("envconfig"); name != "" {
				out[name] = struct{}{}
			}
		case f.Type.Kind() == reflect.Struct:
			for name := range collectSecretTargets(f.Type) {
				out[name] = struct{}{}
			}
		}
	}
	return out
}

// secretResolveTimeout bounds the whole resolution batch.
const secretResolveTimeout = 10 * time.Second

type envLookup func(key string) (string, bool)

type envSet func(key, value string) error

type environ func() []string

// loaderDeps holds the injectable dependencies for the loader so tests do
// not need to mutate the process environment for secret resolution.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
	environ   environ
	dotenv    func() error
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
		dotenv:    func() error { return godotenv.Load() },
	}
}

// LoadConfig loads and validates the configuration. provider resolves secret
// file references and may be nil when none are present; NewFileProvider is
// the usual choice.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// godotenv does not override variables already set.
	if deps.dotenv != nil {
		_ = deps.dotenv()
	}

	if err := resolveSecretRefs(provider, deps); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if cfg.Database.MinConns > cfg.Database.MaxConns {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: fmt.Sprintf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", cfg.Database.MinConns, cfg.Database.MaxConns),
		}
	}

	return &cfg, nil
}

// resolveSecretRefs scans the environment for X_FILE variables whose X is a
// secret field, resolves them in one batch, and sets X. A target that is
// already set wins over its reference.
func resolveSecretRefs(provider SecretProvider, deps loaderDeps) error {
	refToTarget := make(map[string][]string)
	var refs []string

	for _, entry := range deps.environ() {
		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		key, ref := entry[:eq], entry[eq+1:]
		if !strings.HasSuffix(key, secretRefSuffix) || ref == "" {
			continue
		}
		target := strings.TrimSuffix(key, secretRefSuffix)
		if _, ok := secretTargets[target]; !ok {
			continue
		}
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		if _, seen := refToTarget[ref]; !seen {
			refs = append(refs, ref)
		}
		refToTarget[ref] = append(refToTarget[ref], target)
	}

	if len(refs) == 0 {
		return nil
	}

	if provider == nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("a SecretProvider is required to resolve: %s", strings.Join(targetNames(refToTarget), ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), secretResolveTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, refs)
	if err != nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("failed to resolve %d secret references", len(refs)),
			Err:     err,
		}
	}

	var missing []string
	for _, ref := range refs {
		value, ok := resolved[ref]
		if !ok {
			missing = append(missing, refToTarget[ref]...)
			continue
		}
		for _, target := range refToTarget[ref] {
			if err := deps.setEnv(target, value); err != nil {
				return &ConfigError{
					Type:    ErrSecretResolution,
					Message: fmt.Sprintf("failed to set resolved value for %s", target),
					Err:     err,
				}
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ConfigError{
			Type:    ErrMissingEnv,
			Message: fmt.Sprintf("secret references not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}

func targetNames(m map[string][]string) []string {
	var names []string
	for _, targets := range m {
		names = append(names, targets...)
	}
	sort.Strings(names)
	return names
}
