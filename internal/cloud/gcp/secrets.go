// Package gcp resolves Jira credentials stored in GCP Secret Manager.
package gcp

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// fetchTimeout bounds a single secret access.
const fetchTimeout = 10 * time.Second

// SecretFetcher defines the interface for fetching secrets
type SecretFetcher interface {
	FetchSecret(ctx context.Context, secretPath string) (string, error)
	Close() error
}

// secretAccessor is the part of the Secret Manager client used here.
type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// SecretManagerClient reads secret payloads from GCP Secret Manager
type SecretManagerClient struct {
	client    secretAccessor
	projectID string
}

// NewSecretManagerClient creates a client for projectID. An empty projectID
// is taken from GOOGLE_CLOUD_PROJECT, GCP_PROJECT or GCLOUD_PROJECT; it is
// only needed for bare secret names.
func NewSecretManagerClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*SecretManagerClient, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	if projectID == "" {
		projectID = projectFromEnv()
	}

	return &SecretManagerClient{
		client:    client,
		projectID: projectID,
	}, nil
}

func projectFromEnv() string {
	for _, name := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// FetchSecret retrieves a secret payload. secretPath can be one of:
//   - projects/PROJECT_ID/secrets/SECRET_NAME/versions/VERSION
//   - projects/PROJECT_ID/secrets/SECRET_NAME (latest version)
//   - SECRET_NAME (latest version in the client's project)
func (c *SecretManagerClient) FetchSecret(ctx context.Context, secretPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	name, err := c.normalizeSecretPath(secretPath)
	if err != nil {
		return "", err
	}

	result, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}
	if result.GetPayload() == nil {
		return "", fmt.Errorf("secret %s has no payload", name)
	}

	return string(result.GetPayload().GetData()), nil
}

// normalizeSecretPath expands secretPath to a full version resource name.
func (c *SecretManagerClient) normalizeSecretPath(secretPath string) (string, error) {
	if strings.HasPrefix(secretPath, "projects/") && strings.Contains(secretPath, "/versions/") {
		return secretPath, nil
	}

	if strings.HasPrefix(secretPath, "projects/") && strings.Contains(secretPath, "/secrets/") {
		return secretPath + "/versions/latest", nil
	}

	if c.projectID == "" {
		return "", fmt.Errorf("secret %q needs a project: set GOOGLE_CLOUD_PROJECT or use a full resource name", secretPath)
	}

	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.projectID, path.Base(secretPath)), nil
}

// Close closes the Secret Manager client
func (c *SecretManagerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
