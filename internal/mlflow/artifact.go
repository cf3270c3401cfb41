package mlflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// uploader stores run artifacts next to the tracking server.
type uploader struct {
	baseURL string // tracking URI without trailing slash
	token   string
	client  *http.Client
}

// upload stores data as artifactPath under the run's artifact URI.
// mlflow-artifacts:/ URIs go through the server's artifact proxy;
// file:// and bare paths are written directly.
func (u *uploader) upload(ctx context.Context, artifactURI, artifactPath string, data []byte) error {
	switch {
	case strings.HasPrefix(artifactURI, "mlflow-artifacts:"):
		return u.uploadProxied(ctx, artifactURI, artifactPath, data)
	case strings.HasPrefix(artifactURI, "file://"), strings.HasPrefix(artifactURI, "/"):
		return uploadLocal(artifactURI, artifactPath, data)
	}
	return fmt.Errorf("unsupported artifact URI scheme: %s", artifactURI)
}

func (u *uploader) uploadProxied(ctx context.Context, artifactURI, artifactPath string, data []byte) error {
	experimentID, runID, err := splitArtifactURI(artifactURI)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/2.0/mlflow-artifacts/artifacts/%s/%s/artifacts/%s", u.baseURL, experimentID, runID, artifactPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}

	client := u.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", artifactPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("uploading %s: status %d: %s", artifactPath, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func uploadLocal(artifactURI, artifactPath string, data []byte) error {
	dst := filepath.Join(strings.TrimPrefix(artifactURI, "file://"), filepath.FromSlash(artifactPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", dst, err)
	}
	return nil
}

// splitArtifactURI extracts the experiment and run IDs of
// mlflow-artifacts:/<experiment>/<run>/artifacts.
func splitArtifactURI(uri string) (experimentID, runID string, err error) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(uri, "mlflow-artifacts:"), "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid mlflow-artifacts URI: %s", uri)
	}
	return parts[0], parts[1], nil
}
