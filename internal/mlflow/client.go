package mlflow

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/service/ml"
)

// experiments is the part of the MLflow tracking API the Tracker uses.
type experiments interface {
	CreateRun(ctx context.Context, req ml.CreateRun) (string, error)
	LogParam(ctx context.Context, req ml.LogParam) error
	LogMetric(ctx context.Context, req ml.LogMetric) error
	UpdateRun(ctx context.Context, req ml.UpdateRun) error
	ArtifactURI(ctx context.Context, runID string) (string, error)
}

// sdkExperiments adapts the Databricks workspace client, which speaks
// both the Databricks and the open-source MLflow REST API.
type sdkExperiments struct {
	w *databricks.WorkspaceClient
}

func newSDKExperiments(cfg Config) (*sdkExperiments, error) {
	dc := &databricks.Config{}
	if cfg.IsDatabricks() {
		switch {
		case cfg.TrackingURI == "databricks":
			dc.Host = cfg.DatabricksHost
		case cfg.Profile() != "":
			dc.Profile = cfg.Profile()
		default:
			dc.Host = cfg.TrackingURI
		}
		if cfg.DatabricksToken != "" {
			dc.Token = cfg.DatabricksToken
		}
		if dc.Host == "" && dc.Profile == "" {
			return nil, fmt.Errorf("databricks host or profile is required: set %s, use a workspace URL or databricks://<profile>", DatabricksHostVar)
		}
	} else {
		// A plain MLflow server ignores the token, but the SDK refuses
		// to start without some form of authentication.
		dc.Host = cfg.TrackingURI
		dc.Token = cfg.Token
		if dc.Token == "" {
			dc.Token = "mxvalidate"
		}
	}

	w, err := databricks.NewWorkspaceClient(dc)
	if err != nil {
		return nil, fmt.Errorf("creating MLflow client: %w", err)
	}
	return &sdkExperiments{w: w}, nil
}

func (s *sdkExperiments) CreateRun(ctx context.Context, req ml.CreateRun) (string, error) {
	resp, err := s.w.Experiments.CreateRun(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Run.Info.RunId, nil
}

func (s *sdkExperiments) LogParam(ctx context.Context, req ml.LogParam) error {
	return s.w.Experiments.LogParam(ctx, req)
}

func (s *sdkExperiments) LogMetric(ctx context.Context, req ml.LogMetric) error {
	return s.w.Experiments.LogMetric(ctx, req)
}

func (s *sdkExperiments) UpdateRun(ctx context.Context, req ml.UpdateRun) error {
	_, err := s.w.Experiments.UpdateRun(ctx, req)
	return err
}

func (s *sdkExperiments) ArtifactURI(ctx context.Context, runID string) (string, error) {
	resp, err := s.w.Experiments.GetRun(ctx, ml.GetRunRequest{RunId: runID})
	if err != nil {
		return "", err
	}
	if resp.Run.Info.ArtifactUri == "" {
		return "", fmt.Errorf("artifact URI not found for run %s", runID)
	}
	return resp.Run.Info.ArtifactUri, nil
}
