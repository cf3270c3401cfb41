package suite

import (
	"fmt"

	"github.com/deixis/mxvalidate/internal/extract"
)

func init() {
	register(mnistMLP)
	register(resnetCIFAR10)
	register(resnetI1K)
	register(benchmarkScore)
	for _, s := range deepmarkSuites {
		register(s)
	}
	register(gluonBenchmark)
}

const (
	fixedMNISTBatchSize = 64
	fixedMNISTEpochs    = 20
	ngraphPriority      = 70

	defaultAffinity = "granularity=fine,compact,1,0"
)

var mnistMLP = &Suite{
	Name:        "mnist-mlp",
	Title:       "MNIST-MLP",
	Description: "MLP on MNIST via example/image-classification/train_mnist.py",
	Script:      "example/image-classification/train_mnist.py",
	Prefix:      "test_mlp_mnist_cpu",
	LogDirVar:   "TEST_MLP_MNIST_LOG_DIR",
	DataDirVar:  "TEST_MLP_MNIST_DATA_DIR",
	DataFiles: []string{
		"t10k-images-idx3-ubyte.gz",
		"t10k-labels-idx1-ubyte.gz",
		"train-images-idx3-ubyte.gz",
		"train-labels-idx1-ubyte.gz",
	},
	Fakeable:  true,
	Versioned: true,
	RefVar:    "TEST_MLP_MNIST_REFERENCE_ACCURACY",
	DeltaVar:  "TEST_MLP_MNIST_ACCEPTABLE_ACCURACY",
	DeltaDef:  2.0,
	command: func(p *Plan) (string, error) {
		return fmt.Sprintf("%s %s", p.Python, p.Script), nil
	},
	jenkins: func(p *Plan, r *extract.Results) string {
		return fmt.Sprintf("MNIST-MLP accuracy - ngraph: %5.2f%%; ngraph speed %4.2f",
			r.Number(extract.FieldAccuracy), r.Number(extract.FieldWallclock))
	},
	summary: func(p *Plan, r *extract.Results) []string {
		return []string{
			"",
			"Run with NGraph CPU: " + r.Value(extract.FieldCommand),
			"",
			fmt.Sprintf("Batch size:       %d (fixed)", fixedMNISTBatchSize),
			fmt.Sprintf("Epoch  :       %d (fixed)", fixedMNISTEpochs),
			fmt.Sprintf("nGraph priority:  %d (fixed)", ngraphPriority),
			"nGraph back-end:  CPU (fixed)",
			"Data directory:   " + pyStr(p.DataDir),
			"",
			fmt.Sprintf("Run with NGraph CPU accuracy: %7.4f%%", r.Number(extract.FieldAccuracy)*100),
			"",
			fmt.Sprintf("Run with NGraph CPU took: %f seconds", r.Number(extract.FieldWallclock)),
		}
	},
}

func resnetParams(epochsVar string, layers, classes, examples int, shape, lr, steps string) []Param {
	return []Param{
		{Name: "num_layers", Env: "TEST_MX_NG_RESNET_NUM_LAYERS", Default: fmt.Sprint(layers), Kind: KindInt, Label: "Num Layers"},
		{Name: "num_classes", Env: "TEST_MX_RESNET_NUM_CLASSES", Default: fmt.Sprint(classes), Kind: KindInt, Label: "NumClasses"},
		{Name: "num_examples", Env: "TEST_MX_NG_RESNET_NUM_EXAMPLES", Default: fmt.Sprint(examples), Kind: KindInt, Label: "Num Examples"},
		{Name: "image_shape", Env: "TEST_MX_NG_RESNET_IMAGE_SHAPE", Default: shape, Kind: KindString, Label: "Image Shape"},
		{Name: "pad_size", Env: "TEST_MX_NG_RESNET_PAD_SIZE", Default: "4", Kind: KindInt, Label: "Pad Size"},
		{Name: "batch_size", Env: "TEST_MX_NG_RESNET_BATCH_SIZE", Default: "128", Kind: KindInt, Label: "Batch size"},
		{Name: "num_epochs", Env: epochsVar, Default: "1", Kind: KindInt, Label: "Epoch"},
		{Name: "lr", Env: "TEST_MX_NG_RESNET_LR", Default: lr, Kind: KindFloat, Label: "Lr"},
		{Name: "lr_step_epochs", Env: "TEST_MX_NG_RESNET_LR_STEP_EPOCHS", Default: steps, Kind: KindString, Label: "Step Epochs"},
		{Name: "with_nnp", Env: "TEST_MX_NG_RESNET_WITH_NNP", Default: "", Kind: KindBool, Label: "with NNP"},
	}
}

func resnetCommand(p *Plan) (string, error) {
	if p.Int("num_epochs") <= 0 {
		return "", &ParamError{Suite: p.Suite.Name, Param: "num_epochs", Value: p.String("num_epochs"), Reason: "resnet needs a non-zero number of epochs"}
	}
	if p.Int("batch_size") <= 0 {
		return "", &ParamError{Suite: p.Suite.Name, Param: "batch_size", Value: p.String("batch_size"), Reason: "resnet needs a batch size"}
	}
	cmd := fmt.Sprintf("%s %s --network resnet --batch-size %d --num-layers %d --num-epochs %d --num-classes %d --num-examples %d --image-shape %s --pad-size %d --lr %s --lr-step-epochs %s",
		p.Python, p.Script,
		p.Int("batch_size"), p.Int("num_layers"), p.Int("num_epochs"),
		p.Int("num_classes"), p.Int("num_examples"), p.String("image_shape"),
		p.Int("pad_size"), pyFloat(p.Float("lr")), p.String("lr_step_epochs"))
	if p.Bool("with_nnp") {
		cmd += " --with-nnp"
	}
	return cmd, nil
}

// resnetSummary builds the summary block; the CIFAR-10 and I1K scripts
// differ only in the padding of the example count label.
func resnetSummary(examplesLabel string) func(*Plan, *extract.Results) []string {
	return func(p *Plan, r *extract.Results) []string {
		return []string{
			"",
			"Run with NGraph CPU: " + r.Value(extract.FieldCommand),
			"",
			fmt.Sprintf("Batch size:       %d (fixed)", p.Int("batch_size")),
			fmt.Sprintf("Epoch  :       %d (fixed)", p.Int("num_epochs")),
			"Data directory:   " + pyStr(p.DataDir),
			"useNGraph: true",
			fmt.Sprintf("Num Layers :       %d (fixed)", p.Int("num_layers")),
			fmt.Sprintf("NumClasses :       %d (fixed)", p.Int("num_classes")),
			fmt.Sprintf("%s%d (fixed)", examplesLabel, p.Int("num_examples")),
			fmt.Sprintf("Image Shape :       %s (fixed)", p.String("image_shape")),
			fmt.Sprintf("Pad Size :       %d (fixed)", p.Int("pad_size")),
			fmt.Sprintf("Lr :       %s (fixed)", pyFloat(p.Float("lr"))),
			fmt.Sprintf("Step Epochs:       %s (fixed)", p.String("lr_step_epochs")),
			fmt.Sprintf("with NNP:       %s (fixed)", pyStr(p.Raw["with_nnp"])),
			"",
			"Run with NGraph CPU accuracy: " + pyFloat(r.Number(extract.FieldAccuracy)*100),
			"",
			fmt.Sprintf("Run with NGraph CPU took: %s seconds", pyFloat(r.Number(extract.FieldWallclock))),
		}
	}
}

var resnetCIFAR10 = &Suite{
	Name:        "resnet-cifar10",
	Title:       "RESNET_CIFAR10",
	Description: "ResNet-110 on CIFAR-10 via example/image-classification/train_cifar10.py",
	Script:      "example/image-classification/train_cifar10.py",
	Prefix:      "test_resnet_cifar10_cpu",
	LogDirVar:   "TEST_RESNET_CIFAR10_LOG_DIR",
	DataDirVar:  "TEST_RESNET_CIFAR10_DATA_DIR",
	DataFiles:   []string{"cifar10_val.rec", "cifar10_train.rec"},
	Fakeable:    true,
	Params:      resnetParams("TEST_RESNET110_CIFAR10_EPOCHS", 110, 10, 50000, "3,28,28", "0.05", "200,250"),
	RefVar:      "TEST_MX_NG_RESNET_REFERENCE_ACCURACY",
	DeltaVar:    "TEST_MX_NG_RESNET_ACCEPTABLE_ACCURACY",
	DeltaDef:    1,
	command:     resnetCommand,
	jenkins: func(p *Plan, r *extract.Results) string {
		return fmt.Sprintf("RESNET-CIFAR10 accuracy - ngraph: %s; ngraph speed =%s; %d steps",
			pyFloat(r.Number(extract.FieldAccuracy)), pyFloat(r.Number(extract.FieldWallclock)), p.Int("num_epochs"))
	},
	summary: resnetSummary("Num Examples :       "),
}

var resnetI1K = &Suite{
	Name:        "resnet-i1k",
	Title:       "RESNET_I1K",
	Description: "ResNet-50 on ImageNet-1k via example/image-classification/train_imagenet.py",
	Script:      "example/image-classification/train_imagenet.py",
	Prefix:      "test_resnet_i1k_cpu",
	LogDirVar:   "TEST_RESNET_I1K_LOG_DIR",
	DataDirVar:  "TEST_RESNET_I1K_DATA_DIR",
	DataDefault: "/dataset/mxnet_imagenet",
	DataFiles:   []string{"train.rec"},
	Fakeable:    true,
	Params:      resnetParams("TEST_RESNET_I1K_EPOCHS", 50, 1000, 1281167, "3,224,224", "0.1", "30,60"),
	RefVar:      "TEST_MX_NG_RESNET_REFERENCE_ACCURACY",
	DeltaVar:    "TEST_MX_NG_RESNET_ACCEPTABLE_ACCURACY",
	DeltaDef:    1,
	command:     resnetCommand,
	jenkins: func(p *Plan, r *extract.Results) string {
		return fmt.Sprintf("RESNET-I1K accuracy - ngraph: %s; ngraph speed %s; %d steps",
			pyFloat(r.Number(extract.FieldAccuracy)), pyFloat(r.Number(extract.FieldWallclock)), p.Int("num_epochs"))
	},
	summary: resnetSummary("Num Examples :      "),
}

func threadParams(threads string) []Param {
	return []Param{
		{Name: "omp_num_threads", Env: "TEST_OMP_NUM_THREADS", Default: threads, Kind: KindInt, Label: "OMP_NUM_THREADS", Auto: true},
		{Name: "kmp_affinity", Env: "TEST_KMP_AFFINITY", Default: defaultAffinity, Kind: KindString, Label: "KMP_AFFINITY"},
	}
}

var benchmarkScore = &Suite{
	Name:        "benchmark-score",
	Title:       "Benchmark Score",
	Description: "Inference throughput of six image models via example/image-classification/benchmark_score.py",
	Script:      "example/image-classification/benchmark_score.py",
	Prefix:      "test_benchmark_score_cpu",
	LogDirVar:   "TEST_RUN_BENCHMARK_LOG_DIR",
	Params:      threadParams("56"),
	rules:       []extract.Rule{extract.CommandRule(), extract.WallclockRule()},
	command: func(p *Plan) (string, error) {
		return fmt.Sprintf("export OMP_NUM_THREADS=%d; export KMP_AFFINITY=%s;%s %s",
			p.Int("omp_num_threads"), p.String("kmp_affinity"), p.Python, p.Script), nil
	},
	jenkins: func(p *Plan, r *extract.Results) string {
		return "benchmark_score - for 5 models: alexnet, vgg-16, inception-bn, inception-v3, resnet-50, resnet-152 with command : " +
			r.Value(extract.FieldCommand)
	},
	summary: func(p *Plan, r *extract.Results) []string {
		lines := []string{
			"",
			"Run with NGraph CPU: " + r.Value(extract.FieldCommand),
			"",
			"useNGraph: true",
			fmt.Sprintf("OMP Num Threads :       %d (fixed)", p.Int("omp_num_threads")),
			"KMP_AFFINITY=" + p.String("kmp_affinity"),
		}
		return append(lines, throughputLines(r)...)
	},
}

func deepmark(name, title, network, prefix string) *Suite {
	params := append(threadParams("28"),
		Param{Name: "kmp_blocktime", Env: "TEST_KMP_BLOCKTIME", Default: "1", Kind: KindInt, Label: "KMP_BLOCKTIME"},
		Param{Name: "batch_size", Env: "TEST_BATCH_SIZE", Default: "128", Kind: KindInt, Label: "Batch size"},
	)
	return &Suite{
		Name:        name,
		Title:       "deepmark " + title,
		Description: fmt.Sprintf("DeepMark %s inference via benchmark.py --network %s", title, network),
		Script:      "benchmark.py",
		Prefix:      prefix,
		LogDirVar:   "TEST_DEEPMARK_LOG_DIR",
		NeedLogDir:  true,
		Params:      params,
		rules:       []extract.Rule{extract.CommandRule(), extract.WallclockRule(), extract.OneLineRule()},
		command: func(p *Plan) (string, error) {
			return fmt.Sprintf("OMP_NUM_THREADS=%d KMP_AFFINITY=%s KMP_BLOCKTIME=%d %s %s --network %s --batch-size %d",
				p.Int("omp_num_threads"), p.String("kmp_affinity"), p.Int("kmp_blocktime"),
				p.Python, p.Script, network, p.Int("batch_size")), nil
		},
		jenkins: func(p *Plan, r *extract.Results) string {
			return fmt.Sprintf("%s type: %s\n\t%s", title, r.Value(extract.FieldCommand), pyStr(r.Value(extract.FieldOneLine)))
		},
		summary: func(p *Plan, r *extract.Results) []string {
			return []string{
				"",
				"Run with NGraph CPU: " + r.Value(extract.FieldCommand),
				"",
				fmt.Sprintf("Batch size:       %d (fixed)", p.Int("batch_size")),
				fmt.Sprintf("OMP_NUM_THREADS:       %d (fixed)", p.Int("omp_num_threads")),
				fmt.Sprintf("KMP_AFFINITY:       %s (fixed)", p.String("kmp_affinity")),
			}
		},
	}
}

var deepmarkSuites = []*Suite{
	deepmark("deepmark-inception-v4", "Inception-v4", "inception-v4", "test_deepmark_inception_v4_cpu"),
	deepmark("deepmark-resnet50", "ResNet-50", "resnet-50", "test_deepmark_resnet50_cpu"),
	deepmark("deepmark-a3c", "A3C", "a3c", "test_deepmark_a3c_cpu"),
}

var gluonTypes = map[string]bool{"inf": true, "train": true, "all": true}

var gluonBenchmark = &Suite{
	Name:        "gluon-benchmark",
	Title:       "Gluon Benchmark",
	Description: "Gluon model-zoo inference and training throughput via benchmark_gluon.py",
	Script:      "benchmark_gluon.py",
	Prefix:      "test_gluon_benchmark_cpu",
	LogDirVar:   "TEST_GLUON_LOG_DIR",
	Fakeable:    true,
	Params: []Param{
		{Name: "model", Env: "TEST_GLUON_MODEL", Default: "all", Kind: KindString, Label: "Model"},
		{Name: "batch_size", Env: "TEST_GLUON_BATCH_SIZE", Default: "0", Kind: KindInt, Label: "Batch size"},
		{Name: "type", Env: "TEST_GLUON_TYPE", Default: "inf", Kind: KindString, Label: "Type"},
		{Name: "mode", Env: "TEST_GLUON_MODE", Default: "symbolic", Kind: KindString, Label: "Mode"},
		{Name: "omp_num_threads", Env: "TEST_OMP_NUM_THREADS", Default: "auto", Kind: KindInt, Label: "OMP_NUM_THREADS", Auto: true},
	},
	rules: []extract.Rule{extract.CommandRule(), extract.WallclockRule()},
	command: func(p *Plan) (string, error) {
		if !gluonTypes[p.String("type")] {
			return "", &ParamError{Suite: p.Suite.Name, Param: "TEST_GLUON_TYPE", Value: p.String("type"), Reason: "must be inf, train or all"}
		}
		return fmt.Sprintf("OMP_NUM_THREADS=%d %s %s --model %s --batch-size %d --type %s --mode %s",
			p.Int("omp_num_threads"), p.Python, p.Script,
			p.String("model"), p.Int("batch_size"), p.String("type"), p.String("mode")), nil
	},
	jenkins: func(p *Plan, r *extract.Results) string {
		s := fmt.Sprintf("Gluon benchmark - model: %s; type: %s; %d samples", p.String("model"), p.String("type"), len(r.Throughput))
		if best, ok := fastest(r.Throughput); ok {
			s += fmt.Sprintf("; best %s %.2f img/s", best.Name(), best.ImagesSec)
		}
		return s
	},
	summary: func(p *Plan, r *extract.Results) []string {
		lines := []string{
			"",
			"Run with NGraph CPU: " + r.Value(extract.FieldCommand),
			"",
			fmt.Sprintf("Model:       %s (fixed)", p.String("model")),
			fmt.Sprintf("Type:       %s (fixed)", p.String("type")),
			fmt.Sprintf("Mode:       %s (fixed)", p.String("mode")),
			fmt.Sprintf("Batch size:       %d (fixed)", p.Int("batch_size")),
			fmt.Sprintf("OMP_NUM_THREADS:       %d (fixed)", p.Int("omp_num_threads")),
		}
		lines = append(lines, throughputLines(r)...)
		return append(lines, "", fmt.Sprintf("Run with NGraph CPU took: %s seconds", pyFloat(r.Number(extract.FieldWallclock))))
	},
}

func throughputLines(r *extract.Results) []string {
	if len(r.Throughput) == 0 {
		return nil
	}
	lines := []string{""}
	for _, s := range r.Throughput {
		lines = append(lines, fmt.Sprintf("%-36s %10.2f img/s", s.Name(), s.ImagesSec))
	}
	return lines
}

func fastest(samples []extract.Sample) (extract.Sample, bool) {
	var (
		best extract.Sample
		ok   bool
	)
	for _, s := range samples {
		if !ok || s.ImagesSec > best.ImagesSec {
			best, ok = s, true
		}
	}
	return best, ok
}
