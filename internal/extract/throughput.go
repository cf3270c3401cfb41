package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Sample is one throughput measurement reported by a benchmark script.
type Sample struct {
	Network   string  `json:"network"`
	Mode      string  `json:"mode,omitempty"` // inference or training
	BatchSize int     `json:"batch_size"`
	ImagesSec float64 `json:"images_per_sec"`
}

// Name returns a stable metric name for the sample.
func (s Sample) Name() string {
	parts := []string{s.Network}
	if s.Mode != "" {
		parts = append(parts, s.Mode)
	}
	parts = append(parts, "bs"+strconv.Itoa(s.BatchSize))
	return strings.Join(parts, ".")
}

// logPrefix tolerates the "INFO:root:" prefix of Python's default
// logging format.
const logPrefix = `^(?:[A-Z]+:[\w.]*:)?`

var (
	// benchmark_gluon.py: "resnet50_v1 inference perf for BS 32 is 123.4 img/s"
	gluonPerf = regexp.MustCompile(logPrefix + `(\S+)\s+(inference|training)\s+perf\s+for\s+BS\s+(\d+)\s+is\s+([-+0-9.eE]+)\s*img/s`)
	// benchmark_score.py: "network: resnet-50" followed by
	// "batch size  32, image/sec: 123.4"
	scoreNetwork = regexp.MustCompile(logPrefix + `network:\s*(\S+)`)
	scorePerf    = regexp.MustCompile(logPrefix + `batch size\s+(\d+),\s*image/sec:\s*([-+0-9.eE]+)`)
)

// Throughput collects every image/sec sample in lines, in log order.
func Throughput(lines []string) []Sample {
	var (
		samples []Sample
		network string
	)
	for _, line := range lines {
		if m := gluonPerf.FindStringSubmatch(line); m != nil {
			bs, _ := strconv.Atoi(m[3])
			v, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				continue
			}
			samples = append(samples, Sample{Network: m[1], Mode: m[2], BatchSize: bs, ImagesSec: v})
			continue
		}
		if m := scoreNetwork.FindStringSubmatch(line); m != nil {
			network = m[1]
			continue
		}
		if m := scorePerf.FindStringSubmatch(line); m != nil && network != "" {
			bs, _ := strconv.Atoi(m[1])
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			samples = append(samples, Sample{Network: network, BatchSize: bs, ImagesSec: v})
		}
	}
	return samples
}
