package extract

import (
	"strings"
	"testing"
)

func TestExtract_Standard(t *testing.T) {
	lines := []string{
		`Command is: "python3 train_mnist.py --data_dir \"/data\""`,
		"Epoch[0] Train-accuracy=0.91",
		"Accuracy: 0.9781",
		"Run length: 123.5 seconds (0:02:03.500000)",
	}
	res, err := Extract(lines, StandardRules())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := res.Value(FieldCommand); got != `python3 train_mnist.py --data_dir "/data"` {
		t.Errorf("command = %q", got)
	}
	if got := res.Number(FieldAccuracy); got != 0.9781 {
		t.Errorf("accuracy = %v", got)
	}
	if got := res.Number(FieldWallclock); got != 123.5 {
		t.Errorf("wallclock = %v", got)
	}
	if got := res.Value(FieldWallclock); got != "123.5" {
		t.Errorf("wallclock value = %q", got)
	}
	keys := strings.Join(res.Keys(), ",")
	if keys != "accuracy,command,wallclock" {
		t.Errorf("Keys() = %s", keys)
	}
}

func TestExtract_FakeLog(t *testing.T) {
	lines := []string{
		`Command is: "python train_cifar10.py"`,
		"Fake log",
		"Nothing run",
		"{'loss': 15.762859, 'global_step': 391, 'accuracy': 0.1045}",
		"Run length: 7.0 seconds (0:00:07)",
	}
	res, err := Extract(lines, StandardRules())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := res.Number(FieldAccuracy); got != 0.1045 {
		t.Errorf("accuracy = %v, want 0.1045", got)
	}
	if got := res.Number(FieldWallclock); got != 7 {
		t.Errorf("wallclock = %v, want 7", got)
	}
}

func TestExtract_Floor(t *testing.T) {
	lines := []string{
		`Command is: "true"`,
		"Accuracy: 0.0",
	}
	res, err := Extract(lines, StandardRules())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := res.Number(FieldAccuracy); got != Floor {
		t.Errorf("zero accuracy = %v, want %v", got, Floor)
	}
	if got := res.Number(FieldWallclock); got != Floor {
		t.Errorf("missing wallclock = %v, want %v", got, Floor)
	}
}

func TestExtract_Multiple(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"command", []string{`Command is: "a"`, `Command is: "b"`}, "multiple Command is: lines found"},
		{"accuracy", []string{"Accuracy: 0.1", "Accuracy: 0.2"}, "multiple Accuracy: lines found"},
		{"wallclock", []string{"Run length: 1 seconds", "Run length: 2 seconds"}, "multiple Run length: lines found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.lines, StandardRules())
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestExtract_AnchoredAtLineStart(t *testing.T) {
	lines := []string{"INFO Accuracy: 0.5", "  Run length: 3 seconds"}
	res, err := Extract(lines, StandardRules())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Number(FieldAccuracy) != Floor {
		t.Errorf("unanchored accuracy matched: %v", res.Number(FieldAccuracy))
	}
	if _, ok := res.Values[FieldCommand]; ok {
		t.Error("command should be absent")
	}
}

func TestExtract_NotANumber(t *testing.T) {
	_, err := Extract([]string{"Accuracy: ."}, StandardRules())
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExtract_OneLine(t *testing.T) {
	rules := append(StandardRules(), OneLineRule())
	lines := []string{
		`Command is: "OMP_NUM_THREADS=28 python benchmark.py --network inception-v4"`,
		"network: inception-v4, batch size: 128, throughput: 95.2 img/s",
	}
	res, err := Extract(lines, rules)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := res.Value(FieldOneLine); got != "network: inception-v4, batch size: 128, throughput: 95.2 img/s" {
		t.Errorf("one_line = %q", got)
	}

	lines = append(lines, "network: again")
	if _, err := Extract(lines, rules); err == nil || err.Error() != "multiple network: lines found" {
		t.Errorf("duplicate network line: err = %v", err)
	}
}
