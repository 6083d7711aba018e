// Package analysis runs the fixed catalog of consistency checks over a
// cluster snapshot and collects their findings.
package analysis

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/amirimatin/cluster-doctor/pkg/internal/logutil"
    "github.com/amirimatin/cluster-doctor/pkg/liveness"
    obsmetrics "github.com/amirimatin/cluster-doctor/pkg/observability/metrics"
    "github.com/amirimatin/cluster-doctor/pkg/observability/tracing"
    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// Input is what every analyzer reads. Both values are shared and read-only.
type Input struct {
    Snapshot *snapshot.Snapshot
    Live     *liveness.Index
}

// Analyzer is one named check. Run appends to its own Findings slices only.
type Analyzer struct {
    Name string
    Run  func(in Input, f *Findings)
}

// DefaultAnalyzers returns the analyzers in execution order.
func DefaultAnalyzers() []Analyzer {
    return []Analyzer{
        {Name: "zombie-coordinators", Run: zombieCoordinators},
        {Name: "collection-integrity", Run: collectionIntegrity},
        {Name: "distribution-groups", Run: distributionGroups},
        {Name: "out-of-sync-followers", Run: outOfSyncFollowers},
        {Name: "dead-primaries", Run: deadPrimaries},
        {Name: "empty-databases", Run: emptyDatabases},
        {Name: "missing-system-collections", Run: missingSystemCollections},
        {Name: "cleaned-failover-candidates", Run: cleanedFailoverCandidates},
        {Name: "broken-edge-indexes", Run: brokenEdgeIndexes},
        {Name: "zombie-callbacks", Run: zombieCallbacks},
    }
}

// Engine runs analyzers sequentially over one snapshot.
type Engine struct {
    Analyzers []Analyzer
    Logger    *log.Logger
}

// NewEngine returns an engine with the default analyzers.
func NewEngine(logger *log.Logger) *Engine {
    if logger == nil { logger = log.Default() }
    return &Engine{Analyzers: DefaultAnalyzers(), Logger: logger}
}

// Run analyzes snap. A nil snapshot is treated as an empty one. An analyzer
// that panics is logged and skipped; the others still run.
func (e *Engine) Run(ctx context.Context, snap *snapshot.Snapshot) *Findings {
    if snap == nil { snap = &snapshot.Snapshot{} }
    obsmetrics.Register()
    obsmetrics.Runs.Inc()
    obsmetrics.SnapshotWarnings.Set(float64(len(snap.Warnings)))
    for _, w := range snap.Warnings {
        logutil.Warnf(e.Logger, "snapshot section skipped: %s", w)
    }
    ctx, end := tracing.StartSpan(ctx, "analysis.run")
    defer end()

    in := Input{Snapshot: snap, Live: liveness.Build(snap.Supervision.Health)}
    logutil.Debugf(e.Logger, "liveness: %d good servers, %d failed endpoints", len(in.Live.Primaries()), len(in.Live.FailedEndpoints()))
    f := &Findings{}
    for _, a := range e.Analyzers {
        e.runOne(ctx, a, in, f)
    }
    for _, s := range f.Sections() {
        obsmetrics.Findings.WithLabelValues(s.Key).Set(float64(s.Len))
    }
    if f.Infected() {
        obsmetrics.Infected.Set(1)
    } else {
        obsmetrics.Infected.Set(0)
    }
    return f
}

func (e *Engine) runOne(ctx context.Context, a Analyzer, in Input, f *Findings) {
    sctx, end := tracing.StartSpan(ctx, "analyzer."+a.Name)
    defer end()
    start := time.Now()
    before := f.Total()
    defer func() {
        obsmetrics.AnalyzerDuration.WithLabelValues(a.Name).Observe(time.Since(start).Seconds())
        if r := recover(); r != nil {
            obsmetrics.AnalyzerPanics.WithLabelValues(a.Name).Inc()
            logutil.Errorf(e.Logger, "analyzer %s aborted: %v", a.Name, r)
            return
        }
        n := f.Total() - before
        tracing.SetInt(sctx, "findings", n)
        logutil.Debugf(e.Logger, "analyzer %s: %d findings in %s", a.Name, n, time.Since(start))
    }()
    a.Run(in, f)
}

// Analyze runs the default engine with the standard logger.
func Analyze(ctx context.Context, snap *snapshot.Snapshot) *Findings {
    return NewEngine(nil).Run(ctx, snap)
}

// String summarizes the findings for log lines.
func (f *Findings) String() string {
    return fmt.Sprintf("%d findings in %d sections", f.Total(), f.failedSections())
}

func (f *Findings) failedSections() int {
    n := 0
    for _, s := range f.Sections() {
        if !s.Informational && s.Len > 0 { n++ }
    }
    return n
}
