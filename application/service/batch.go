package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/snapvec/snapvec/domain/embedding"
	"github.com/snapvec/snapvec/internal/log"
)

// BatchStatus classifies the outcome of one entity within a batch.
type BatchStatus string

// BatchStatus values.
const (
	BatchGenerated BatchStatus = "generated"
	BatchSkipped   BatchStatus = "skipped"
	BatchFailed    BatchStatus = "failed"
)

// BatchOutcome is the result for one entity in a batch run.
type BatchOutcome struct {
	Ref    embedding.EntityRef
	Status BatchStatus
	Error  string
}

// BatchReport summarizes a batch run. Entities never started because the
// context was cancelled do not appear in Outcomes.
type BatchReport struct {
	Outcomes  []BatchOutcome
	Generated int
	Skipped   int
	Failed    int
}

// BatchService runs embedding generation over many entities with bounded
// parallelism. Each entity succeeds or fails on its own; one failure never
// aborts the rest of the batch.
type BatchService struct {
	generator   *GeneratorService
	parallelism int
}

// NewBatchService creates a BatchService.
func NewBatchService(generator *GeneratorService, parallelism int) *BatchService {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &BatchService{generator: generator, parallelism: parallelism}
}

// Generate runs embedding generation for every ref. Cancellation stops
// unstarted work; entities already in flight run to completion and report
// their outcome.
func (s *BatchService) Generate(ctx context.Context, refs []embedding.EntityRef, force bool) (BatchReport, error) {
	if len(refs) == 0 {
		return BatchReport{}, NewValidationError("entities", ErrEmptyBatch)
	}

	slots := make([]*BatchOutcome, len(refs))

	g := &errgroup.Group{}
	g.SetLimit(s.parallelism)

	for i, ref := range refs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			outcome := BatchOutcome{Ref: ref}
			_, generated, err := s.generator.GenerateForEntity(ctx, ref, force)
			switch {
			case err != nil:
				outcome.Status = BatchFailed
				outcome.Error = err.Error()
			case generated:
				outcome.Status = BatchGenerated
			default:
				outcome.Status = BatchSkipped
			}
			slots[i] = &outcome
			return nil
		})
	}

	// Workers never return errors, per-entity failures land in slots.
	_ = g.Wait()

	report := BatchReport{Outcomes: make([]BatchOutcome, 0, len(refs))}
	for _, outcome := range slots {
		if outcome == nil {
			continue
		}
		report.Outcomes = append(report.Outcomes, *outcome)
		switch outcome.Status {
		case BatchGenerated:
			report.Generated++
		case BatchSkipped:
			report.Skipped++
		case BatchFailed:
			report.Failed++
		}
	}

	log.FromContext(ctx).Info("batch generation finished",
		"requested", len(refs),
		"generated", report.Generated,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
