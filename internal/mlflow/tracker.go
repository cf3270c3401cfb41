package mlflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/deixis/mxvalidate/internal/report"
	"github.com/deixis/mxvalidate/internal/runlog"
)

// MLflow rejects longer parameter values.
const maxParamValue = 500

// Tag keys set on every published run.
const (
	TagRunName = "mlflow.runName"
	TagNote    = "mlflow.note.content"
	TagSuite   = "mxvalidate.suite"
	TagRunID   = "mxvalidate.run_id"
	TagStatus  = "mxvalidate.status"
	TagCommand = "mxvalidate.command"
	TagFake    = "mxvalidate.fake"
	TagHost    = "mxvalidate.host"
)

// Tracker publishes suite records as MLflow runs.
type Tracker struct {
	cfg Config
	api experiments
	up  *uploader
	Now func() time.Time // nil means time.Now
}

// New connects a Tracker to the configured server.
func New(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MLflow config: %w", err)
	}
	api, err := newSDKExperiments(cfg)
	if err != nil {
		return nil, err
	}
	return newTracker(cfg, api, &http.Client{Timeout: 5 * time.Minute}), nil
}

func newTracker(cfg Config, api experiments, client *http.Client) *Tracker {
	return &Tracker{
		cfg: cfg,
		api: api,
		up:  &uploader{baseURL: strings.TrimSuffix(cfg.TrackingURI, "/"), token: cfg.token(), client: client},
	}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Publish records one suite as an MLflow run: tags, parameters,
// metrics and the run log as an artifact. The run ends FINISHED when
// the suite passed and FAILED otherwise, including when logging to the
// server fails part way.
func (t *Tracker) Publish(ctx context.Context, run *report.RunResult, rec *report.SuiteRecord, runLog *runlog.Log) error {
	start := t.now()
	name := runName(run, rec)
	runID, err := t.api.CreateRun(ctx, ml.CreateRun{
		ExperimentId: t.cfg.ExperimentID,
		RunName:      name,
		StartTime:    start.UnixMilli(),
		Tags:         Tags(run, rec, name),
	})
	if err != nil {
		return fmt.Errorf("creating MLflow run: %w", err)
	}
	log.Printf("%s: MLflow run %s", rec.Name, runID)

	err = t.logRun(ctx, runID, rec, runLog, start)

	status := ml.UpdateRunStatusFinished
	if err != nil || rec.Status != report.StatusPass {
		status = ml.UpdateRunStatusFailed
	}
	if uerr := t.api.UpdateRun(ctx, ml.UpdateRun{
		RunId:   runID,
		Status:  status,
		EndTime: t.now().UnixMilli(),
	}); uerr != nil {
		err = errors.Join(err, fmt.Errorf("ending MLflow run: %w", uerr))
	}
	return err
}

func (t *Tracker) logRun(ctx context.Context, runID string, rec *report.SuiteRecord, runLog *runlog.Log, start time.Time) error {
	for _, p := range Params(rec) {
		if err := t.api.LogParam(ctx, ml.LogParam{RunId: runID, Key: p[0], Value: p[1]}); err != nil {
			return fmt.Errorf("logging parameter %s: %w", p[0], err)
		}
	}

	ts := start.UnixMilli()
	metrics := Metrics(rec)
	for _, key := range sortedKeys(metrics) {
		if err := t.api.LogMetric(ctx, ml.LogMetric{RunId: runID, Key: key, Value: metrics[key], Timestamp: ts}); err != nil {
			return fmt.Errorf("logging metric %s: %w", key, err)
		}
	}

	if runLog == nil || runLog.Len() == 0 {
		return nil
	}
	uri, err := t.api.ArtifactURI(ctx, runID)
	if err != nil {
		return fmt.Errorf("getting artifact URI: %w", err)
	}
	if err := t.up.upload(ctx, uri, ArtifactPath(rec), []byte(runLog.String())); err != nil {
		return err
	}
	return nil
}

func runName(run *report.RunResult, rec *report.SuiteRecord) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return rec.Name
	}
	return rec.Name + "-" + id
}

// Tags returns the run tags for rec, sorted by key.
func Tags(run *report.RunResult, rec *report.SuiteRecord, name string) []ml.RunTag {
	m := map[string]string{
		TagRunName: name,
		TagSuite:   rec.Name,
		TagStatus:  string(rec.Status),
		TagFake:    strconv.FormatBool(rec.Fake),
	}
	if run.ID != "" {
		m[TagRunID] = run.ID
	}
	if run.Host != "" {
		m[TagHost] = run.Host
	}
	if rec.Command != "" {
		m[TagCommand] = rec.Command
	}
	if rec.Detail != "" {
		m[TagNote] = rec.Detail
	}
	tags := make([]ml.RunTag, 0, len(m))
	for _, k := range sortedKeys(m) {
		tags = append(tags, ml.RunTag{Key: k, Value: m[k]})
	}
	return tags
}

// Params returns the suite parameters as sorted key/value pairs, with
// values cut to the length MLflow accepts.
func Params(rec *report.SuiteRecord) [][2]string {
	out := make([][2]string, 0, len(rec.Params))
	for _, k := range sortedKeys(rec.Params) {
		v := rec.Params[k]
		if len(v) > maxParamValue {
			v = v[:maxParamValue]
		}
		out = append(out, [2]string{MetricKey(k), v})
	}
	return out
}

// Metrics collects the numeric results of rec: extracted numbers,
// elapsed time, exit code and one throughput.<sample> entry per
// benchmark sample.
func Metrics(rec *report.SuiteRecord) map[string]float64 {
	m := make(map[string]float64, len(rec.Numbers)+len(rec.Throughput)+2)
	for k, v := range rec.Numbers {
		m[MetricKey(k)] = v
	}
	m["elapsed_seconds"] = rec.Elapsed
	m["exit_code"] = float64(rec.ExitCode)
	for _, s := range rec.Throughput {
		m[MetricKey("throughput."+s.Name())] = s.ImagesSec
	}
	return m
}

// MetricKey replaces characters MLflow rejects in keys with '_'.
func MetricKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '-', r == '.', r == '/', r == ' ':
			return r
		}
		return '_'
	}, s)
}

// ArtifactPath names the uploaded log: the base name of the log file
// written to the log directory, or <suite>_ngraph.log.
func ArtifactPath(rec *report.SuiteRecord) string {
	if rec.LogFile != "" {
		return path.Join("logs", filepath.Base(rec.LogFile))
	}
	return path.Join("logs", strings.ReplaceAll(rec.Name, "-", "_")+"_ngraph.log")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
