package pipeline

import (
	"context"
	"fmt"
	"time"

	"ragchat/internal/domain"
)

// smokeQuery is the fixed question hello pushes through the full pipeline.
const smokeQuery = "What does this corpus cover?"

const (
	smokeK       = 3
	smokeBudget  = 256
	smokeTimeout = 30 * time.Second
)

// CheckHealth probes each collaborator in the fixed order embedder, index,
// generator. The first failure halts the run and marks the remaining stages
// skipped, so a broken stage is distinguishable from one that was never
// reached. It never returns an error: all failures land in the report.
//
// With full=false (doctor) only reachability and liveness are checked. With
// full=true (hello) the generator stage additionally runs one complete
// retrieve+assemble+generate round trip on a fixed smoke-test query.
func (p *Pipeline) CheckHealth(ctx context.Context, full bool) *domain.HealthReport {
	report := &domain.HealthReport{
		Embedder:  domain.CheckResult{Status: domain.StatusSkipped},
		Index:     domain.CheckResult{Status: domain.StatusSkipped},
		Generator: domain.CheckResult{Status: domain.StatusSkipped},
	}

	if _, err := p.embedder.Embed(ctx, "health probe"); err != nil {
		report.Embedder = domain.CheckResult{Status: domain.StatusFailed, Detail: err.Error()}
		return report
	}
	report.Embedder = domain.CheckResult{Status: domain.StatusOK, Detail: p.embedder.Name()}

	if remote, ok := p.index.(interface{ Ping() error }); ok {
		if err := remote.Ping(); err != nil {
			report.Index = domain.CheckResult{Status: domain.StatusFailed, Detail: err.Error()}
			return report
		}
	}
	n := p.index.Len()
	if n == 0 {
		report.Index = domain.CheckResult{Status: domain.StatusFailed, Detail: domain.ErrEmptyCorpus.Error()}
		return report
	}
	if d := p.embedder.Dimension(); d != 0 && d != p.index.Dimension() {
		report.Index = domain.CheckResult{
			Status: domain.StatusFailed,
			Detail: fmt.Sprintf("embedder dimension %d does not match index dimension %d", d, p.index.Dimension()),
		}
		return report
	}
	report.Index = domain.CheckResult{Status: domain.StatusOK, Detail: fmt.Sprintf("%d chunks, dimension %d", n, p.index.Dimension())}

	if full {
		answer, err := p.RetrieveAndAnswer(ctx, smokeQuery, smokeK, smokeBudget, smokeTimeout)
		if err != nil {
			report.Generator = domain.CheckResult{Status: domain.StatusFailed, Detail: err.Error()}
			return report
		}
		report.Generator = domain.CheckResult{
			Status: domain.StatusOK,
			Detail: fmt.Sprintf("smoke test answered with %d citations", len(answer.Citations)),
		}
	} else {
		if pinger, ok := p.generator.(domain.Pinger); ok {
			if err := pinger.Ping(ctx); err != nil {
				report.Generator = domain.CheckResult{Status: domain.StatusFailed, Detail: err.Error()}
				return report
			}
			report.Generator = domain.CheckResult{Status: domain.StatusOK, Detail: "reachable"}
		} else {
			report.Generator = domain.CheckResult{Status: domain.StatusOK, Detail: "no liveness probe, assumed reachable"}
		}
	}

	report.OK = true
	return report
}
