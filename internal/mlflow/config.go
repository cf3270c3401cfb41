// Package mlflow publishes validation results to an MLflow tracking
// server. Each suite record becomes one MLflow run carrying its
// parameters, extracted metrics and run log.
package mlflow

import (
	"fmt"
	"strings"

	"github.com/deixis/mxvalidate/internal/config"
)

// Environment variables read by ConfigFrom.
const (
	TrackingURIVar     = "MLFLOW_TRACKING_URI"
	ExperimentIDVar    = "MLFLOW_EXPERIMENT_ID"
	TrackingTokenVar   = "MLFLOW_TRACKING_TOKEN"
	DatabricksHostVar  = "DATABRICKS_HOST"
	DatabricksTokenVar = "DATABRICKS_TOKEN"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

// Config names the tracking server and experiment.
type Config struct {
	TrackingURI     string
	ExperimentID    string
	Token           string // bearer token for a plain MLflow server
	DatabricksHost  string
	DatabricksToken string
}

// ConfigFrom resolves the tracking configuration. Environment variables
// win over the mlflow: section of .mxvalidate.
func ConfigFrom(env *config.Env, file config.MLflowConfig) Config {
	return Config{
		TrackingURI:     strings.TrimSuffix(env.String(TrackingURIVar, file.TrackingURI), "/"),
		ExperimentID:    env.String(ExperimentIDVar, file.ExperimentID),
		Token:           env.String(TrackingTokenVar, ""),
		DatabricksHost:  env.String(DatabricksHostVar, ""),
		DatabricksToken: env.String(DatabricksTokenVar, ""),
	}
}

// Enabled reports whether both a tracking URI and an experiment are set.
func (c Config) Enabled() bool {
	return c.TrackingURI != "" && c.ExperimentID != ""
}

// Validate checks the fields New needs.
func (c Config) Validate() error {
	if c.TrackingURI == "" {
		return fmt.Errorf("tracking URI is required (set %s)", TrackingURIVar)
	}
	if c.ExperimentID == "" {
		return fmt.Errorf("experiment ID is required (set %s)", ExperimentIDVar)
	}
	return nil
}

// IsDatabricks checks if the tracking URI points to Databricks.
func (c Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" || strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}
	if strings.HasPrefix(c.TrackingURI, "https://") {
		host := strings.TrimPrefix(c.TrackingURI, "https://")
		if i := strings.Index(host, "/"); i != -1 {
			host = host[:i]
		}
		for _, domain := range databricksDomains {
			if strings.HasSuffix(host, domain) {
				return true
			}
		}
	}
	return false
}

// Profile returns the profile of a databricks://<profile> URI.
func (c Config) Profile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}
	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	if i := strings.Index(profile, "/"); i != -1 {
		profile = profile[:i]
	}
	return profile
}

// token returns the bearer token sent with direct HTTP requests.
func (c Config) token() string {
	if c.IsDatabricks() {
		return c.DatabricksToken
	}
	return c.Token
}
