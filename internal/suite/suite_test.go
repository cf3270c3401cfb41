package suite

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deixis/mxvalidate/internal/extract"
)

type mapEnv map[string]string

func (m mapEnv) Lookup(key string) (string, bool) {
	v := m[key]
	return v, v != ""
}

func mustLookup(t *testing.T, name string) *Suite {
	t.Helper()
	s, ok := Lookup(name)
	if !ok {
		t.Fatalf("suite %q not registered", name)
	}
	return s
}

func resolve(t *testing.T, name string, env mapEnv, opts Options) *Plan {
	t.Helper()
	if opts.Python == "" {
		opts.Python = "python"
	}
	p, err := mustLookup(t, name).Resolve(env, opts)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", name, err)
	}
	return p
}

func TestNames(t *testing.T) {
	want := []string{
		"benchmark-score",
		"deepmark-a3c",
		"deepmark-inception-v4",
		"deepmark-resnet50",
		"gluon-benchmark",
		"mnist-mlp",
		"resnet-cifar10",
		"resnet-i1k",
	}
	got := Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestSelect(t *testing.T) {
	got, err := Select([]string{"resnet-cifar10", "mnist-mlp", "resnet-cifar10"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 || got[0].Name != "resnet-cifar10" || got[1].Name != "mnist-mlp" {
		t.Errorf("Select order/dedup wrong: %v", got)
	}

	if _, err := Select([]string{"mnist-mlp", "nope"}); err == nil {
		t.Error("expected error for unknown suite")
	}

	all, err := Select(nil)
	if err != nil || len(all) != len(Names()) {
		t.Errorf("Select(nil) = %d suites, %v", len(all), err)
	}
}

func TestCommand_ResnetCIFAR10Defaults(t *testing.T) {
	p := resolve(t, "resnet-cifar10", mapEnv{"TEST_RESNET_CIFAR10_LOG_DIR": "/src"}, Options{})
	got, err := p.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := "python /src/example/image-classification/train_cifar10.py --network resnet --batch-size 128 --num-layers 110 --num-epochs 1 --num-classes 10 --num-examples 50000 --image-shape 3,28,28 --pad-size 4 --lr 0.05 --lr-step-epochs 200,250"
	if got != want {
		t.Errorf("Command()\n got: %s\nwant: %s", got, want)
	}
}

func TestCommand_ResnetI1KOverrides(t *testing.T) {
	env := mapEnv{
		"TEST_RESNET_I1K_LOG_DIR":          "/src",
		"TEST_MX_NG_RESNET_BATCH_SIZE":     " 256 ",
		"TEST_RESNET_I1K_EPOCHS":           "3",
		"TEST_MX_NG_RESNET_LR":             "0.2",
		"TEST_MX_NG_RESNET_WITH_NNP":       "1",
		"TEST_MX_NG_RESNET_LR_STEP_EPOCHS": "10,20",
	}
	p := resolve(t, "resnet-i1k", env, Options{})
	got, err := p.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := "python /src/example/image-classification/train_imagenet.py --network resnet --batch-size 256 --num-layers 50 --num-epochs 3 --num-classes 1000 --num-examples 1281167 --image-shape 3,224,224 --pad-size 4 --lr 0.2 --lr-step-epochs 10,20 --with-nnp"
	if got != want {
		t.Errorf("Command()\n got: %s\nwant: %s", got, want)
	}
	if p.DataDir != "/dataset/mxnet_imagenet" {
		t.Errorf("DataDir = %q, want ImageNet default", p.DataDir)
	}
}

func TestCommand_ResnetZeroEpochs(t *testing.T) {
	p := resolve(t, "resnet-cifar10", mapEnv{"TEST_RESNET110_CIFAR10_EPOCHS": "0"}, Options{SourceDir: "/src"})
	_, err := p.Command()
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParamError, got %v", err)
	}
	if pe.Param != "num_epochs" {
		t.Errorf("Param = %q", pe.Param)
	}
}

func TestResolve_InvalidInt(t *testing.T) {
	_, err := mustLookup(t, "resnet-cifar10").Resolve(mapEnv{"TEST_MX_NG_RESNET_NUM_LAYERS": "many"}, Options{Python: "python"})
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParamError, got %v", err)
	}
	if pe.Param != "TEST_MX_NG_RESNET_NUM_LAYERS" || pe.Value != "many" {
		t.Errorf("ParamError = %+v", pe)
	}
}

func TestCommand_BenchmarkScore(t *testing.T) {
	p := resolve(t, "benchmark-score", mapEnv{"TEST_RUN_BENCHMARK_LOG_DIR": "/src"}, Options{})
	got, _ := p.Command()
	want := "export OMP_NUM_THREADS=56; export KMP_AFFINITY=granularity=fine,compact,1,0;python /src/example/image-classification/benchmark_score.py"
	if got != want {
		t.Errorf("Command()\n got: %s\nwant: %s", got, want)
	}
}

func TestCommand_AutoThreads(t *testing.T) {
	env := mapEnv{"TEST_RUN_BENCHMARK_LOG_DIR": "/src", "TEST_OMP_NUM_THREADS": "auto", "TEST_KMP_AFFINITY": "compact"}
	p := resolve(t, "benchmark-score", env, Options{Cores: 24})
	got, _ := p.Command()
	if !strings.HasPrefix(got, "export OMP_NUM_THREADS=24; export KMP_AFFINITY=compact;") {
		t.Errorf("Command() = %s", got)
	}

	_, err := mustLookup(t, "benchmark-score").Resolve(env, Options{Python: "python"})
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Errorf("auto without core count: expected *ParamError, got %v", err)
	}
}

func TestCommand_Deepmark(t *testing.T) {
	tests := []struct {
		suite   string
		network string
	}{
		{"deepmark-inception-v4", "inception-v4"},
		{"deepmark-resnet50", "resnet-50"},
		{"deepmark-a3c", "a3c"},
	}
	for _, tt := range tests {
		t.Run(tt.suite, func(t *testing.T) {
			p := resolve(t, tt.suite, mapEnv{"TEST_DEEPMARK_LOG_DIR": "/dm", "TEST_BATCH_SIZE": "64"}, Options{})
			got, _ := p.Command()
			want := "OMP_NUM_THREADS=28 KMP_AFFINITY=granularity=fine,compact,1,0 KMP_BLOCKTIME=1 python /dm/benchmark.py --network " + tt.network + " --batch-size 64"
			if got != want {
				t.Errorf("Command()\n got: %s\nwant: %s", got, want)
			}
		})
	}
}

func TestCommand_Gluon(t *testing.T) {
	p := resolve(t, "gluon-benchmark", mapEnv{"TEST_GLUON_LOG_DIR": "/src", "TEST_GLUON_MODEL": "resnet50_v1"}, Options{Cores: 8})
	got, err := p.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := "OMP_NUM_THREADS=8 python /src/benchmark_gluon.py --model resnet50_v1 --batch-size 0 --type inf --mode symbolic"
	if got != want {
		t.Errorf("Command()\n got: %s\nwant: %s", got, want)
	}

	p = resolve(t, "gluon-benchmark", mapEnv{"TEST_GLUON_TYPE": "bogus"}, Options{Cores: 8, SourceDir: "/src"})
	if _, err := p.Command(); err == nil {
		t.Error("expected error for unknown benchmark type")
	}
}

func TestPython(t *testing.T) {
	s := mustLookup(t, "mnist-mlp")
	p, err := s.Resolve(mapEnv{PythonVersionVar: "3", "TEST_MLP_MNIST_LOG_DIR": "/src"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := p.Command(); got != "python3 /src/example/image-classification/train_mnist.py" {
		t.Errorf("versioned Command() = %s", got)
	}

	lookPath := func(string) (string, error) { return "/venv/bin/python", nil }
	p, err = mustLookup(t, "benchmark-score").Resolve(mapEnv{}, Options{SourceDir: "/src", LookPath: lookPath})
	if err != nil {
		t.Fatal(err)
	}
	if p.Python != "/venv/bin/python" {
		t.Errorf("Python = %q, want PATH lookup result", p.Python)
	}

	missing := func(string) (string, error) { return "", os.ErrNotExist }
	p, _ = mustLookup(t, "benchmark-score").Resolve(mapEnv{}, Options{SourceDir: "/src", LookPath: missing})
	if p.Python != "python" {
		t.Errorf("Python = %q, want bare fallback", p.Python)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheck(t *testing.T) {
	src := t.TempDir()
	data := t.TempDir()
	touch(t, filepath.Join(src, "example/image-classification/train_cifar10.py"))

	cases := []struct {
		name string
		env  mapEnv
		want string
	}{
		{
			name: "data dir unset",
			env:  mapEnv{"TEST_RESNET_CIFAR10_LOG_DIR": src},
			want: "Data directory was not specified in TEST_RESNET_CIFAR10_DATA_DIR",
		},
		{
			name: "data dir missing",
			env:  mapEnv{"TEST_RESNET_CIFAR10_LOG_DIR": src, "TEST_RESNET_CIFAR10_DATA_DIR": filepath.Join(data, "nope")},
			want: "is not actually a directory",
		},
		{
			name: "data file missing",
			env:  mapEnv{"TEST_RESNET_CIFAR10_LOG_DIR": src, "TEST_RESNET_CIFAR10_DATA_DIR": data},
			want: "Data file cifar10_val.rec not found in " + data,
		},
		{
			name: "script missing",
			env:  mapEnv{"TEST_RESNET_CIFAR10_LOG_DIR": data},
			want: "Script path is not a file",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := resolve(t, "resnet-cifar10", tc.env, Options{})
			err := p.Check()
			var ce *CheckError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CheckError, got %v", err)
			}
			if !strings.Contains(ce.Reason, tc.want) {
				t.Errorf("Reason = %q, want to contain %q", ce.Reason, tc.want)
			}
		})
	}

	touch(t, filepath.Join(data, "cifar10_val.rec"))
	touch(t, filepath.Join(data, "cifar10_train.rec"))
	p := resolve(t, "resnet-cifar10", mapEnv{"TEST_RESNET_CIFAR10_LOG_DIR": src, "TEST_RESNET_CIFAR10_DATA_DIR": data}, Options{})
	if err := p.Check(); err != nil {
		t.Errorf("Check with all files present: %v", err)
	}
}

func TestCheck_SourceAndLogDir(t *testing.T) {
	p := resolve(t, "benchmark-score", mapEnv{}, Options{})
	var ce *CheckError
	if err := p.Check(); !errors.As(err, &ce) || !strings.Contains(ce.Reason, "source directory") {
		t.Errorf("no source dir: %v", err)
	}

	src := t.TempDir()
	touch(t, filepath.Join(src, "benchmark.py"))
	p = resolve(t, "deepmark-a3c", mapEnv{}, Options{SourceDir: src})
	if err := p.Check(); !errors.As(err, &ce) || !strings.Contains(ce.Reason, "TEST_DEEPMARK_LOG_DIR") {
		t.Errorf("deepmark without log dir: %v", err)
	}

	p = resolve(t, "deepmark-a3c", mapEnv{"TEST_DEEPMARK_LOG_DIR": src}, Options{})
	if err := p.Check(); err != nil {
		t.Errorf("deepmark with log dir: %v", err)
	}
}

func results(command string, accuracy, wallclock float64) *extract.Results {
	return &extract.Results{
		Values: map[string]string{extract.FieldCommand: command},
		Numbers: map[string]float64{
			extract.FieldAccuracy:  accuracy,
			extract.FieldWallclock: wallclock,
		},
	}
}

func TestJenkins(t *testing.T) {
	r := results("python3 train_mnist.py", 0.9781, 123.5)

	p := resolve(t, "mnist-mlp", mapEnv{}, Options{SourceDir: "/src"})
	if got, want := p.Jenkins(r), "MNIST-MLP accuracy - ngraph:  0.98%; ngraph speed 123.50"; got != want {
		t.Errorf("mnist: %q, want %q", got, want)
	}

	r = results("python train_cifar10.py", 0.1045, 7)
	p = resolve(t, "resnet-cifar10", mapEnv{}, Options{SourceDir: "/src"})
	if got, want := p.Jenkins(r), "RESNET-CIFAR10 accuracy - ngraph: 0.1045; ngraph speed =7.0; 1 steps"; got != want {
		t.Errorf("cifar: %q, want %q", got, want)
	}
	p = resolve(t, "resnet-i1k", mapEnv{}, Options{SourceDir: "/src"})
	if got, want := p.Jenkins(r), "RESNET-I1K accuracy - ngraph: 0.1045; ngraph speed 7.0; 1 steps"; got != want {
		t.Errorf("i1k: %q, want %q", got, want)
	}

	p = resolve(t, "benchmark-score", mapEnv{}, Options{SourceDir: "/src"})
	if got := p.Jenkins(r); !strings.HasSuffix(got, "with command : python train_cifar10.py") {
		t.Errorf("benchmark-score: %q", got)
	}

	r.Values[extract.FieldOneLine] = "network: inception-v4 95.2"
	p = resolve(t, "deepmark-inception-v4", mapEnv{}, Options{SourceDir: "/src"})
	if got, want := p.Jenkins(r), "Inception-v4 type: python train_cifar10.py\n\tnetwork: inception-v4 95.2"; got != want {
		t.Errorf("deepmark: %q, want %q", got, want)
	}

	r.Throughput = []extract.Sample{
		{Network: "resnet50_v1", Mode: "inference", BatchSize: 1, ImagesSec: 80},
		{Network: "resnet50_v1", Mode: "inference", BatchSize: 32, ImagesSec: 312.5},
	}
	p = resolve(t, "gluon-benchmark", mapEnv{}, Options{SourceDir: "/src", Cores: 4})
	if got, want := p.Jenkins(r), "Gluon benchmark - model: all; type: inf; 2 samples; best resnet50_v1.inference.bs32 312.50 img/s"; got != want {
		t.Errorf("gluon: %q, want %q", got, want)
	}
}

func TestSummary_MNIST(t *testing.T) {
	p := resolve(t, "mnist-mlp", mapEnv{"TEST_MLP_MNIST_DATA_DIR": "/data/mnist"}, Options{SourceDir: "/src"})
	lines := p.Summary(results("python3 train_mnist.py", 0.9781, 123.5))
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"Run with NGraph CPU: python3 train_mnist.py",
		"Batch size:       64 (fixed)",
		"Data directory:   /data/mnist",
		"Run with NGraph CPU accuracy: 97.8100%",
		"Run with NGraph CPU took: 123.500000 seconds",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("summary missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "Accuracy delta") {
		t.Error("acceptance lines present without a reference")
	}
}

func TestAccept(t *testing.T) {
	r := results("x", 0.9781, 1)

	p := resolve(t, "mnist-mlp", mapEnv{}, Options{SourceDir: "/src"})
	if err := p.Accept(r); err != nil {
		t.Errorf("no reference: %v", err)
	}

	p = resolve(t, "mnist-mlp", mapEnv{"TEST_MLP_MNIST_REFERENCE_ACCURACY": "98"}, Options{SourceDir: "/src"})
	if err := p.Accept(r); err != nil {
		t.Errorf("within delta: %v", err)
	}
	if !strings.Contains(strings.Join(p.Summary(r), "\n"), "Acceptable accuracy delta is <= 2.0000%") {
		t.Error("summary lacks acceptance lines")
	}

	p = resolve(t, "mnist-mlp", mapEnv{"TEST_MLP_MNIST_REFERENCE_ACCURACY": "90"}, Options{SourceDir: "/src"})
	var ae *AcceptError
	if err := p.Accept(r); !errors.As(err, &ae) {
		t.Fatalf("expected *AcceptError, got %v", err)
	}
	if d := ae.Delta(); d < 7.80 || d > 7.82 {
		t.Errorf("Delta() = %v", d)
	}

	p = resolve(t, "resnet-cifar10", mapEnv{"TEST_MX_NG_RESNET_REFERENCE_ACCURACY": "90", "TEST_MX_NG_RESNET_ACCEPTABLE_ACCURACY": "10"}, Options{SourceDir: "/src"})
	if err := p.Accept(r); err != nil {
		t.Errorf("widened delta: %v", err)
	}

	p = resolve(t, "benchmark-score", mapEnv{}, Options{SourceDir: "/src"})
	if err := p.Accept(r); err != nil {
		t.Errorf("suite without accuracy: %v", err)
	}
}

func TestArtifacts(t *testing.T) {
	p := resolve(t, "resnet-cifar10", mapEnv{}, Options{SourceDir: "/src"})
	if a := p.Artifacts(); a != (Artifacts{}) {
		t.Errorf("artifacts without log dir: %+v", a)
	}

	p = resolve(t, "deepmark-inception-v4", mapEnv{"TEST_DEEPMARK_LOG_DIR": "/logs"}, Options{})
	a := p.Artifacts()
	if a.Log != "/logs/test_deepmark_inception_v4_cpu_ngraph.log" ||
		a.Jenkins != "/logs/test_deepmark_inception_v4_cpu_jenkins_oneline.log" ||
		a.Summary != "/logs/test_deepmark_inception_v4_cpu_summary.log" ||
		a.JSON != "/logs/test_deepmark_inception_v4_cpu_results.json" {
		t.Errorf("Artifacts() = %+v", a)
	}
}

func TestPlanExtract(t *testing.T) {
	p := resolve(t, "deepmark-resnet50", mapEnv{"TEST_DEEPMARK_LOG_DIR": "/logs"}, Options{})
	lines := []string{
		`Command is: "python benchmark.py"`,
		"network: resnet-50",
		"batch size 128, image/sec: 77.5",
		"Run length: 60.0 seconds (0:01:00)",
	}
	r, err := p.Extract(lines)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if r.Value(extract.FieldOneLine) != "network: resnet-50" {
		t.Errorf("one_line = %q", r.Value(extract.FieldOneLine))
	}
	if _, ok := r.Numbers[extract.FieldAccuracy]; ok {
		t.Error("deepmark should not extract accuracy")
	}
	if len(r.Throughput) != 1 || r.Throughput[0].ImagesSec != 77.5 {
		t.Errorf("Throughput = %+v", r.Throughput)
	}
}

func TestPyFloat(t *testing.T) {
	tests := map[float64]string{
		7:       "7.0",
		0.1045:  "0.1045",
		1e-9:    "1e-09",
		123.5:   "123.5",
		10.45:   "10.45",
		0:       "0.0",
		1e16:    "1e+16",
		-2.5:    "-2.5",
		0.00012: "0.00012",
	}
	for in, want := range tests {
		if got := pyFloat(in); got != want {
			t.Errorf("pyFloat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSummary_ResNetExamplesLabel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"resnet-cifar10", "Num Examples :       "},
		{"resnet-i1k", "Num Examples :      "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := resolve(t, tt.name, mapEnv{}, Options{SourceDir: "/src"})
			var found bool
			for _, line := range p.Summary(results("python train.py", 0.9, 1)) {
				if strings.HasPrefix(line, "Num Examples :") {
					found = true
					if !strings.HasPrefix(line, tt.want) || line[len(tt.want)] == ' ' {
						t.Errorf("examples line = %q, want prefix %q", line, tt.want)
					}
				}
			}
			if !found {
				t.Error("summary lacks the examples line")
			}
		})
	}
}

func TestSummary_ResNetWithNNP(t *testing.T) {
	tests := []struct {
		env  mapEnv
		want string
	}{
		{mapEnv{}, "with NNP:       None (fixed)"},
		{mapEnv{"TEST_MX_NG_RESNET_WITH_NNP": "yes"}, "with NNP:       yes (fixed)"},
	}
	for _, tt := range tests {
		p := resolve(t, "resnet-cifar10", tt.env, Options{SourceDir: "/src"})
		joined := strings.Join(p.Summary(results("python train.py", 0.9, 1)), "\n")
		if !strings.Contains(joined, tt.want) {
			t.Errorf("env %v: summary lacks %q:\n%s", tt.env, tt.want, joined)
		}
	}
}
