package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/mcq-reasoner/internal/entity"
	"github.com/futig/mcq-reasoner/internal/pkg/formatter"
)

// Rendered is a report ready to be served or stored
type Rendered struct {
	Body        []byte
	ContentType string
	FileName    string
}

// ReportUsecase evaluates checkpointed runs and exports their artifacts
type ReportUsecase struct {
	results   ResultStore
	artifacts ArtifactStore
	factory   *formatter.Factory
}

func NewUsecase(results ResultStore, artifacts ArtifactStore, factory *formatter.Factory) *ReportUsecase {
	return &ReportUsecase{
		results:   results,
		artifacts: artifacts,
		factory:   factory,
	}
}

func (uc *ReportUsecase) load(ctx context.Context, key entity.RunKey) ([]entity.InferenceResult, error) {
	results, err := uc.results.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load results %s: %w", key, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrRunNotFound, key)
	}
	return results, nil
}

// Evaluate scores the saved results of a run
func (uc *ReportUsecase) Evaluate(ctx context.Context, key entity.RunKey) (*entity.Evaluation, error) {
	results, err := uc.load(ctx, key)
	if err != nil {
		return nil, err
	}
	ev := entity.Evaluate(key.String(), results)
	return &ev, nil
}

// Render produces the report of a run in the requested format
func (uc *ReportUsecase) Render(ctx context.Context, key entity.RunKey, format formatter.Format) (*Rendered, error) {
	f, err := uc.factory.Create(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	ev, err := uc.Evaluate(ctx, key)
	if err != nil {
		return nil, err
	}

	body, err := f.Format(*ev)
	if err != nil {
		return nil, fmt.Errorf("format report: %w", err)
	}
	return &Rendered{
		Body:        body,
		ContentType: f.ContentType(),
		FileName:    "report_" + key.String() + f.FileExtension(),
	}, nil
}

// Export stores the results document, both submission files and a report
// per format under a directory named after the run. It returns the stored
// locations in write order.
func (uc *ReportUsecase) Export(ctx context.Context, key entity.RunKey, formats ...formatter.Format) ([]string, error) {
	results, err := uc.load(ctx, key)
	if err != nil {
		return nil, err
	}
	dir := key.String()

	var locations []string
	put := func(name string, body []byte) error {
		loc, err := uc.artifacts.Put(ctx, path.Join(dir, name), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		locations = append(locations, loc)
		return nil
	}

	doc, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	if err := put("results.json", doc); err != nil {
		return locations, err
	}

	for _, sub := range []struct {
		name     string
		withTime bool
	}{
		{formatter.SubmissionFile, false},
		{formatter.SubmissionTimeFile, true},
	} {
		var buf bytes.Buffer
		if err := formatter.WriteSubmission(&buf, results, sub.withTime); err != nil {
			return locations, fmt.Errorf("render %s: %w", sub.name, err)
		}
		if err := put(sub.name, buf.Bytes()); err != nil {
			return locations, err
		}
	}

	ev := entity.Evaluate(dir, results)
	for _, format := range formats {
		f, err := uc.factory.Create(format)
		if err != nil {
			return locations, fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
		}
		body, err := f.Format(ev)
		if err != nil {
			return locations, fmt.Errorf("format %s report: %w", format, err)
		}
		if err := put("report"+f.FileExtension(), body); err != nil {
			return locations, err
		}
	}

	ctxzap.Info(ctx, "run artifacts exported",
		zap.String("run", dir),
		zap.Int("results", len(results)),
		zap.Strings("locations", locations),
	)
	return locations, nil
}
