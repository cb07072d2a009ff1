// Package harness runs named scenarios against a fresh Dispatcher and
// reports pass/fail the same way a hardware-driven card test suite would,
// adapted here to run entirely in-process against the channel/dispatch
// packages.
package harness

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TestResult is the outcome of a single scenario.
type TestResult struct {
	Name     string        `json:"name"`
	Category string        `json:"category"` // select, chaining, get-response, interface, errors
	Passed   bool          `json:"passed"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
	APDU     string        `json:"apdu,omitempty"`     // hex string of the triggering command
	Response string        `json:"response,omitempty"` // hex string of the final response
	Error    string        `json:"error,omitempty"`
	Spec     string        `json:"spec,omitempty"` // e.g. "spec.md scenario 5"
	Duration time.Duration `json:"duration_ns"`
}

// TestSummary aggregates a run's results.
type TestSummary struct {
	Total       int            `json:"total"`
	Passed      int            `json:"passed"`
	Failed      int            `json:"failed"`
	PassRate    float64        `json:"pass_rate"`
	Duration    time.Duration  `json:"duration_ns"`
	ByCategory  map[string]int `json:"by_category"`
	FailedTests []string       `json:"failed_tests,omitempty"`
}

// Case is one scenario: a named, self-contained closure that builds its
// own Dispatcher/channels/apps and reports how it went.
type Case struct {
	Name     string
	Category string
	Spec     string
	Run      func() Outcome
}

// Outcome is what a Case reports back to the suite.
type Outcome struct {
	Passed   bool
	Expected string
	Actual   string
	APDU     []byte
	Response []byte
	Err      error
}

// TestSuite is the scenario orchestrator.
type TestSuite struct {
	Verbose   bool
	Results   []TestResult
	StartTime time.Time
	EndTime   time.Time
}

// NewTestSuite creates an empty suite.
func NewTestSuite(verbose bool) *TestSuite {
	return &TestSuite{Verbose: verbose}
}

// AddResult appends a result, optionally echoing it to stdout.
func (s *TestSuite) AddResult(r TestResult) {
	s.Results = append(s.Results, r)
	if s.Verbose {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s: %s\n", status, r.Name, r.Actual)
	}
}

// RunAll runs every case in order, timing each one.
func (s *TestSuite) RunAll(cases []Case) {
	s.StartTime = time.Now()
	for _, c := range cases {
		start := time.Now()
		outcome := c.Run()
		s.AddResult(TestResult{
			Name:     c.Name,
			Category: c.Category,
			Passed:   outcome.Passed,
			Expected: outcome.Expected,
			Actual:   outcome.Actual,
			APDU:     strings.ToUpper(hex.EncodeToString(outcome.APDU)),
			Response: strings.ToUpper(hex.EncodeToString(outcome.Response)),
			Error:    errString(outcome.Err),
			Spec:     c.Spec,
			Duration: time.Since(start),
		})
	}
	s.EndTime = time.Now()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetSummary aggregates the suite's results so far.
func (s *TestSuite) GetSummary() TestSummary {
	summary := TestSummary{
		ByCategory: make(map[string]int),
	}
	for _, r := range s.Results {
		summary.Total++
		if r.Passed {
			summary.Passed++
		} else {
			summary.Failed++
			summary.FailedTests = append(summary.FailedTests, r.Name)
		}
		summary.ByCategory[r.Category]++
	}
	if summary.Total > 0 {
		summary.PassRate = float64(summary.Passed) / float64(summary.Total) * 100
	}
	summary.Duration = s.EndTime.Sub(s.StartTime)
	return summary
}
