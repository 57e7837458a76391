// Package main provides a performance benchmarking tool for the fragscan CLI.
// It generates synthetic trace batches of increasing size, then times the scan
// and align commands several times each, treating the first successful run as
// cold and averaging the rest as warm. Results are written as CSV.
//
// Prerequisites:
// - fragscan binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic batches are written
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/fragscan/internal/tracefile"
	"github.com/huangsam/fragscan/schema"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Batch       string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Batches     map[string]int
	BatchOrder  []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Batches:     map[string]int{"small": 24, "medium": 96, "large": 384},
		BatchOrder:  []string{"small", "medium", "large"},
	}

	if _, err := exec.LookPath("fragscan"); err != nil {
		fmt.Printf("Prerequisites check failed: fragscan binary not found in PATH\n")
		os.Exit(1)
	}

	if err := generateBatches(config); err != nil {
		fmt.Printf("Failed to generate traces: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("fragscan", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// generateBatches writes one directory of LIZ500 traces per batch.
func generateBatches(config BenchmarkConfig) error {
	ladder, ok := schema.LookupLadder("LIZ500")
	if !ok {
		return fmt.Errorf("ladder LIZ500 is not registered")
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for _, name := range config.BatchOrder {
		dir := filepath.Join(config.WorkDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for i := range config.Batches[name] {
			alleles := []float64{80 + rng.Float64()*100, 200 + rng.Float64()*200}
			s := &schema.Sample{
				Name: fmt.Sprintf("%s-%03d", name, i),
				Channels: []*schema.Channel{
					{Dye: "FAM", Raw: synthTrace(alleles, 900, rng)},
					{Dye: "LIZ", IsLadder: true, Raw: synthTrace(ladder.Sizes, 700, rng)},
				},
			}
			if err := tracefile.Save(filepath.Join(dir, s.Name+".json"), s); err != nil {
				return err
			}
		}
		fmt.Printf("Generated %d traces in %s\n", config.Batches[name], dir)
	}
	return nil
}

// synthTrace places a Gaussian peak at 500 + 8 scans per bp for every size, over a noisy background.
func synthTrace(sizes []float64, height float64, rng *rand.Rand) []float64 {
	sig := make([]float64, 5000)
	for i := range sig {
		sig[i] = 50 + rng.NormFloat64()*3
	}
	for _, s := range sizes {
		mu := 500 + 8*s
		for i := int(mu) - 60; i < int(mu)+60; i++ {
			d := (float64(i) - mu) / 3
			sig[i] += height * math.Exp(-0.5*d*d)
		}
	}
	return sig
}

// runBenchmarks executes all benchmark tests across the generated batches
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d batches, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.BatchOrder), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, batch := range config.BatchOrder {
		dir := filepath.Join(config.WorkDir, batch)
		results = append(results,
			runBenchmarkSuite(config, batch, dir, "scan"),
			runBenchmarkSuite(config, batch, dir, "align"),
		)
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, batch, dir, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s (%d traces)\n", command, batch, config.Batches[batch])

	runPhase := func(useCache bool, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dir, command, useCache, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase(false, config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase(true, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Batch:       batch,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a fragscan command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir, command string, useCache bool, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command, dir,
		"--ladder", "LIZ500",
		"--workers", fmt.Sprint(config.Workers),
		"--use-cache=" + fmt.Sprint(useCache),
		"--color", "no",
	}

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("fragscan", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	completionPhrase := "Sizing completed in"
	if command == "align" {
		completionPhrase = "Alignment completed in"
	}
	outputStr := string(output)
	return strings.Contains(outputStr, completionPhrase) && strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("fragscan_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"batch", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Batch, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"scan", "align"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Batch, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
