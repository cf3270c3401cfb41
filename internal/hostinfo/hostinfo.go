// Package hostinfo describes the CPU the validation suites run on.
package hostinfo

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Info is a snapshot of the host CPU.
type Info struct {
	Brand          string   `json:"brand"`
	Vendor         string   `json:"vendor"`
	PhysicalCores  int      `json:"physical_cores"`
	LogicalCores   int      `json:"logical_cores"`
	ThreadsPerCore int      `json:"threads_per_core"`
	AVX512         bool     `json:"avx512"`
	Features       []string `json:"features,omitempty"`
}

// tracked lists the SIMD extensions MKL-DNN and nGraph CPU kernels branch on.
var tracked = []struct {
	name string
	id   cpuid.FeatureID
}{
	{"avx2", cpuid.AVX2},
	{"fma3", cpuid.FMA3},
	{"avx512f", cpuid.AVX512F},
	{"avx512dq", cpuid.AVX512DQ},
	{"avx512bw", cpuid.AVX512BW},
	{"avx512vnni", cpuid.AVX512VNNI},
}

// Detect reads the host CPU.
func Detect() Info {
	cpu := cpuid.CPU
	info := Info{
		Brand:          strings.TrimSpace(cpu.BrandName),
		Vendor:         cpu.VendorString,
		PhysicalCores:  cpu.PhysicalCores,
		LogicalCores:   cpu.LogicalCores,
		ThreadsPerCore: cpu.ThreadsPerCore,
		AVX512:         cpu.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}
	for _, f := range tracked {
		if cpu.Supports(f.id) {
			info.Features = append(info.Features, f.name)
		}
	}
	if info.LogicalCores <= 0 {
		info.LogicalCores = runtime.NumCPU()
	}
	return info
}

// Cores returns the physical core count, falling back to logical cores
// divided by threads per core when cpuid cannot report it.
func (i Info) Cores() int {
	if i.PhysicalCores > 0 {
		return i.PhysicalCores
	}
	tpc := i.ThreadsPerCore
	if tpc <= 0 {
		tpc = 1
	}
	if n := i.LogicalCores / tpc; n > 0 {
		return n
	}
	return 1
}

// String renders a one-line description for summaries.
func (i Info) String() string {
	brand := i.Brand
	if brand == "" {
		brand = "unknown CPU"
	}
	s := fmt.Sprintf("%s, %d cores / %d threads", brand, i.Cores(), i.LogicalCores)
	if len(i.Features) > 0 {
		s += " [" + strings.Join(i.Features, " ") + "]"
	}
	return s
}
