package dsp

import (
	"os"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// NoSimdEnv names the environment variable that forces the portable
// implementations.
const NoSimdEnv = "WEBP_NO_SIMD"

var (
	WebPUnfilters [FilterLast]WebPUnfilterFunc
	WebPFilters   [FilterLast]WebPFilterFunc

	initOnce    sync.Once
	currentName string
)

func init() {
	Init()
}

// Init installs the filter implementations once. The portable versions are
// always installed first; faster variants replace them when the CPU allows.
func Init() {
	initOnce.Do(func() {
		WebPUnfilters[FilterNone] = NoneUnfilter_C
		WebPUnfilters[FilterHorizontal] = HorizontalUnfilter_C
		WebPUnfilters[FilterVertical] = VerticalUnfilter_C
		WebPUnfilters[FilterGradient] = GradientUnfilter_C

		WebPFilters[FilterNone] = nil
		WebPFilters[FilterHorizontal] = HorizontalFilter_C
		WebPFilters[FilterVertical] = VerticalFilter_C
		WebPFilters[FilterGradient] = GradientFilter_C

		currentName = "scalar"
		if os.Getenv(NoSimdEnv) != "" {
			return
		}
		if cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD {
			WebPUnfilters[FilterVertical] = VerticalUnfilter_SWAR
			currentName = "swar"
		}
	})
}

// Unfilter returns the inverse transform for f.
func Unfilter(f FilterType) WebPUnfilterFunc {
	if f >= FilterLast {
		return nil
	}

	return WebPUnfilters[f]
}

// Filter returns the forward transform for f, nil for FilterNone.
func Filter(f FilterType) WebPFilterFunc {
	if f >= FilterLast {
		return nil
	}

	return WebPFilters[f]
}

// CPUFeatures describes the dispatch decision made by Init.
type CPUFeatures struct {
	GOARCH   string
	Dispatch string
	SSE2     bool
	ASIMD    bool
	NoSimd   bool
}

// CPUInfo reports the CPU features relevant to the filter dispatch.
func CPUInfo() CPUFeatures {
	Init()

	return CPUFeatures{
		GOARCH:   runtime.GOARCH,
		Dispatch: currentName,
		SSE2:     cpu.X86.HasSSE2,
		ASIMD:    cpu.ARM64.HasASIMD,
		NoSimd:   os.Getenv(NoSimdEnv) != "",
	}
}
