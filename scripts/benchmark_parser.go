// Command benchmark_parser turns `go test -bench` output into a markdown
// summary. Benchmarks are grouped by operation; sub-benchmark variants
// (for example BenchmarkAlloc/stacks) are listed side by side within each
// group with a slowdown factor against the fastest variant.
//
// Usage:
//
//	go test -bench=. -benchmem ./memdbg | go run scripts/benchmark_parser.go
//	go test -bench=. -benchmem -json ./... | go run scripts/benchmark_parser.go -output BENCHMARKS.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Variant     string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	report := generateMarkdownReport(results)

	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkAlloc/stacks-8    10000    12450 ns/op    4096 B/op    8 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+(?:B|MB)/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		operation, variant := splitBenchmarkName(name)

		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Variant:     variant,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// splitBenchmarkName breaks a benchmark name into operation and variant.
// Format: Benchmark<Operation>[/<variant>...]-<procs>
func splitBenchmarkName(name string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(name, "Benchmark"), "/")

	// The -N GOMAXPROCS suffix sits on the last part.
	last := parts[len(parts)-1]
	if dashIdx := strings.LastIndex(last, "-"); dashIdx > 0 {
		parts[len(parts)-1] = last[:dashIdx]
	}

	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], "/")
}

func generateMarkdownReport(results []BenchmarkResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	if len(results) == 0 {
		sb.WriteString("No benchmark results found.\n")
		return sb.String()
	}

	grouped := make(map[string][]BenchmarkResult)
	for _, r := range results {
		grouped[r.Operation] = append(grouped[r.Operation], r)
	}
	operations := make([]string, 0, len(grouped))
	for op := range grouped {
		operations = append(operations, op)
	}
	sort.Strings(operations)

	for _, op := range operations {
		group := grouped[op]
		sort.Slice(group, func(i, j int) bool {
			return group[i].NsPerOp < group[j].NsPerOp
		})
		fastest := group[0].NsPerOp

		sb.WriteString(fmt.Sprintf("## %s\n\n", op))
		sb.WriteString("| Variant | ns/op | B/op | allocs/op | vs fastest |\n")
		sb.WriteString("|---------|------:|-----:|----------:|-----------:|\n")
		for _, r := range group {
			variant := r.Variant
			if variant == "" {
				variant = "(base)"
			}
			relative := "1.00x"
			if fastest > 0 && r.NsPerOp != fastest {
				relative = fmt.Sprintf("%.2fx", r.NsPerOp/fastest)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n",
				variant, formatNs(r.NsPerOp), r.BytesPerOp, r.AllocsPerOp, relative))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatNs(ns float64) string {
	switch {
	case ns >= 1e9:
		return fmt.Sprintf("%.2fs", ns/1e9)
	case ns >= 1e6:
		return fmt.Sprintf("%.2fms", ns/1e6)
	case ns >= 1e3:
		return fmt.Sprintf("%.2fµs", ns/1e3)
	default:
		return fmt.Sprintf("%.0fns", ns)
	}
}
