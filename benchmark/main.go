// Package main measures how much the response cache speeds up devhealth scrapes.
// Each unit is scraped several times against a private cache directory: the
// first run fetches everything (cold) and the remaining runs are served from
// disk (warm). Results are written to a CSV file for documentation.
//
// Prerequisites:
// - devhealth binary installed and available in PATH
// - A .devhealth.yaml with host, token and collections
//
// Usage: go run benchmark/main.go [config-file] [unit...]
//
//	unit: 'collection' or 'collection/project' (default: every configured project)
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the cold time and the average of warm runs for one unit.
type BenchmarkResult struct {
	Unit     string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ConfigFile string
	Units      []string
	Timeout    time.Duration
	Runs       int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [config-file] [unit...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		ConfigFile: os.Args[1],
		Units:      os.Args[2:],
		Timeout:    10 * time.Minute,
		Runs:       4,
	}
	if len(config.Units) == 0 {
		config.Units = []string{""}
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := make([]BenchmarkResult, 0, len(config.Units))
	for _, unit := range config.Units {
		results = append(results, runBenchmarkSuite(config, unit))
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	printSummary(results)
}

// checkPrerequisites verifies that the devhealth binary and the config file exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("devhealth"); err != nil {
		return fmt.Errorf("devhealth binary not found in PATH")
	}
	if _, err := os.Stat(config.ConfigFile); err != nil {
		return fmt.Errorf("config file %s: %w", config.ConfigFile, err)
	}
	return nil
}

// runBenchmarkSuite scrapes one unit with a fresh cache and times every run
func runBenchmarkSuite(config BenchmarkConfig, unit string) BenchmarkResult {
	name := unit
	if name == "" {
		name = "all"
	}
	fmt.Printf("Benchmarking %s (%d runs)\n", name, config.Runs)

	cacheDir, err := os.MkdirTemp("", "devhealth-bench-cache-*")
	if err != nil {
		fmt.Printf("  Warning: failed to create cache dir: %v\n", err)
		return BenchmarkResult{Unit: name, ColdTime: "ERROR", WarmTime: "ERROR"}
	}
	defer func() { _ = os.RemoveAll(cacheDir) }()

	coldTime, warmTimes := runBenchmark(config, unit, cacheDir)

	result := BenchmarkResult{Unit: name, ColdTime: "FAILED", WarmTime: "FAILED"}
	if coldTime > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", coldTime)
	}
	if len(warmTimes) > 0 {
		var sum float64
		for _, t := range warmTimes {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warmTimes)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
	return result
}

// runBenchmark executes devhealth scrape several times against one cache dir and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, unit, cacheDir string) (coldTime float64, warmTimes []float64) {
	args := []string{
		"scrape",
		"--config", config.ConfigFile,
		"--cache-dir", cacheDir,
		"--output-dir", filepath.Join(cacheDir, "out"),
		"--runs-backend", "none",
		"--color", "no",
	}
	if unit != "" {
		args = append(args, "--only", unit)
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("devhealth", args...)
		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			} else {
				fmt.Printf("  Run %d failed: %v\n", run, cmdErr)
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			fmt.Printf("  Run %d timed out\n", run)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates every project succeeded
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "projects succeeded in") &&
		!strings.Contains(outputStr, "failed. Rerun")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("devhealth_benchmark_%s.csv", timestamp))

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
	if err := writer.Write([]string{"unit", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Unit, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-30s: Cold: %s, Warm: %s\n", result.Unit, result.ColdTime, result.WarmTime)
	}
}
