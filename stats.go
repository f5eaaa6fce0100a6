package main

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"webpconv/logger"
)

// RunStats accumulates batch results. The mutex only matters when --jobs
// runs conversions in parallel; sequential runs take it uncontended.
type RunStats struct {
	mu sync.Mutex

	Total       int
	Processed   int
	Succeeded   int
	Failed      int
	InputBytes  int64
	OutputBytes int64
}

func (s *RunStats) recordSuccess(inputBytes, outputBytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.Succeeded++
	s.InputBytes += inputBytes
	s.OutputBytes += outputBytes
}

func (s *RunStats) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	s.Failed++
}

// SpaceSaved is input minus output bytes; negative when outputs grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.InputBytes - s.OutputBytes
}

// sizeReduction reports how much smaller output is than input, in percent.
func sizeReduction(inputBytes, outputBytes int64) float64 {
	if inputBytes <= 0 {
		return 0
	}
	return (1 - float64(outputBytes)/float64(inputBytes)) * 100
}

func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func summaryTable(stats *RunStats) *logger.Table {
	t := logger.NewTable([]string{"Metric", "Value"})
	t.AddRow("Converted", fmt.Sprintf("%d/%d", stats.Succeeded, stats.Total))
	t.AddRow("Failed", fmt.Sprintf("%d", stats.Failed))
	t.AddRow("Original size", formatBytes(stats.InputBytes))
	t.AddRow("WebP size", formatBytes(stats.OutputBytes))
	if saved := stats.SpaceSaved(); saved > 0 {
		t.AddRow("Space saved", fmt.Sprintf("%s (%.1f%%)", formatBytes(saved), sizeReduction(stats.InputBytes, stats.OutputBytes)))
	}
	return t
}
