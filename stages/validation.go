package stages

import (
	"context"
	"fmt"
	"log"
	"time"

	"storyboard-pipeline/types"
	"storyboard-pipeline/validate"
)

// Validation runs the validation engine over the full scene sequence and
// replaces the state's report. It runs once after the main stages and again
// after every correction iteration.
type Validation struct {
	Now func() time.Time
}

func (v *Validation) Name() string { return NameValidation }

func (v *Validation) Apply(ctx context.Context, state *types.PipelineState) error {
	report := validate.NewEngine(state.Language).Validate(state.Scenes, state.VideoType)
	state.Validation = report

	state.RecordMetrics(NameValidation, types.StageMetrics{
		"errors":    float64(len(report.Errors)),
		"warnings":  float64(len(report.Warnings)),
		"criticals": float64(len(report.CriticalErrors)),
		"quality":   report.QualityScore,
	})
	state.AppendHistory(NameValidation, "validated", v.now(),
		fmt.Sprintf("%d errors, %d warnings, %d critical, quality %.2f",
			len(report.Errors), len(report.Warnings), len(report.CriticalErrors), report.QualityScore))

	if report.Valid {
		log.Printf("[validation] ✅ Quality %.2f (%d errors, %d warnings)",
			report.QualityScore, len(report.Errors), len(report.Warnings))
	} else {
		log.Printf("[validation] ⚠️  %d critical errors, quality %.2f",
			len(report.CriticalErrors), report.QualityScore)
	}
	return nil
}

func (v *Validation) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}
