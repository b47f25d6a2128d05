package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretValueGetter is satisfied by *secretsmanager.Client.
type SecretValueGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient resolves secrets under one name prefix. A secret may be a
// plain string or a JSON object; "name#field" picks one field of the latter.
// Values are cached for the process lifetime.
type SecretsClient struct {
	api    SecretValueGetter
	prefix string

	mu    sync.Mutex
	cache map[string]string
}

func NewSecretsClient(cfg sdkaws.Config, prefix string) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg), prefix)
}

func newSecretsClient(api SecretValueGetter, prefix string) *SecretsClient {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &SecretsClient{api: api, prefix: prefix, cache: make(map[string]string)}
}

func (s *SecretsClient) raw(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache[id]; ok {
		return v, nil
	}
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s is binary", id)
	}
	s.cache[id] = *out.SecretString
	return *out.SecretString, nil
}

// GetSecret returns prefix+name, or one field of it for "name#field".
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	id, field, _ := strings.Cut(name, "#")
	v, err := s.raw(ctx, s.prefix+id)
	if err != nil || field == "" {
		return v, err
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(v), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", id, err)
	}
	fv, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("secret %s has no field %q", id, field)
	}
	return fv, nil
}

// Override replaces *dst with the named secret when it resolves to a
// non-empty value and reports any lookup error.
func (s *SecretsClient) Override(ctx context.Context, name string, dst *string) error {
	v, err := s.GetSecret(ctx, name)
	if err != nil {
		return err
	}
	if v != "" {
		*dst = v
	}
	return nil
}
