package runlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatTimedelta(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{12*time.Second + 500*time.Millisecond, "0:00:12.500000"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{25 * time.Hour, "1 day, 1:00:00"},
		{49*time.Hour + time.Microsecond, "2 days, 1:00:00.000001"},
		{-time.Second, "0:00:00"},
	}
	for _, tt := range tests {
		if got := FormatTimedelta(tt.d); got != tt.want {
			t.Errorf("FormatTimedelta(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestElapsedLine(t *testing.T) {
	start := time.Date(2018, 5, 1, 10, 0, 0, 0, time.UTC)

	got := ElapsedLine(start, start.Add(7*time.Second))
	want := "Run length: 7.0 seconds (0:00:07)"
	if got != want {
		t.Errorf("ElapsedLine = %q, want %q", got, want)
	}

	got = ElapsedLine(start, start.Add(1500*time.Millisecond))
	want = "Run length: 1.5 seconds (0:00:01.500000)"
	if got != want {
		t.Errorf("ElapsedLine = %q, want %q", got, want)
	}
}

func TestCommandLine(t *testing.T) {
	got := CommandLine("python train_mnist.py")
	want := `Command is: "python train_mnist.py"`
	if got != want {
		t.Errorf("CommandLine = %q, want %q", got, want)
	}
}

func TestWriteReadFile(t *testing.T) {
	l := New("Command is: \"echo hi\"", "hi", "Run length: 0.1 seconds (0:00:00.100000)")
	path := filepath.Join(t.TempDir(), "run.log")

	if err := l.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != l.String() {
		t.Errorf("file = %q, want %q", data, l.String())
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.Len() != 3 {
		t.Fatalf("Len = %d, want 3", back.Len())
	}
	for i, line := range l.Lines() {
		if back.Lines()[i] != line {
			t.Errorf("line %d = %q, want %q", i, back.Lines()[i], line)
		}
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEmptyLog(t *testing.T) {
	l := New()
	if l.String() != "" {
		t.Errorf("String = %q, want empty", l.String())
	}
	if l.Size() != 0 {
		t.Errorf("Size = %d, want 0", l.Size())
	}
}
