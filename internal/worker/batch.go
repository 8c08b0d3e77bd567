package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/ownfunds/internal/model"
)

// Processor turns one scenario into a report
type Processor interface {
	ProcessScenario(ctx context.Context, text string) (*model.Report, error)
}

// ScenarioJob represents one scenario of a batch
type ScenarioJob struct {
	Index     int
	Text      string
	Processor Processor
}

// Execute executes the scenario job
func (j *ScenarioJob) Execute(ctx context.Context) *ScenarioResult {
	report, err := j.Processor.ProcessScenario(ctx, j.Text)
	return &ScenarioResult{
		Index:  j.Index,
		Text:   j.Text,
		Report: report,
		Error:  err,
	}
}

// ScenarioResult represents the result of a scenario job
type ScenarioResult struct {
	Index  int // Position in the input
	Text   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the scenario result
func (r *ScenarioResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple scenarios concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessScenarios processes scenarios concurrently.
// Results come back in input order; one failure does not stop the rest.
func (b *BatchProcessor) ProcessScenarios(ctx context.Context, scenarios []string) []*ScenarioResult {
	if len(scenarios) == 0 {
		return []*ScenarioResult{}
	}

	pool := NewPool[*ScenarioResult](ctx, b.concurrency)
	pool.Start()

	// Submit from a goroutine so a small queue never blocks result draining
	go func() {
		defer pool.Close()
		for i, text := range scenarios {
			if !pool.Submit(&ScenarioJob{Index: i, Text: text, Processor: b.processor}) {
				return
			}
		}
	}()

	ordered := make([]*ScenarioResult, len(scenarios))
	for result := range pool.Results() {
		ordered[result.Index] = result
	}

	// Scenarios never run because ctx ended
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &ScenarioResult{Index: i, Text: scenarios[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads scenarios from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScenarioResult, error) {
	scenarios, err := ReadScenariosFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}

	return b.ProcessScenarios(ctx, scenarios), nil
}

// ReadScenariosFromFile reads one scenario per paragraph.
// Paragraphs are separated by blank lines; lines starting with '#' are comments.
func ReadScenariosFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var scenarios []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			scenarios = append(scenarios, strings.Join(current, " "))
			current = current[:0]
		}
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			continue
		default:
			current = append(current, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return scenarios, nil
}
