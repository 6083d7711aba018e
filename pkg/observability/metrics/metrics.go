package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    Findings = prometheus.NewGaugeVec(prometheus.GaugeOpts{
        Namespace: "clusterdoctor",
        Name:      "findings",
        Help:      "Number of findings per section in the last analysis run",
    }, []string{"section"})

    Infected = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "clusterdoctor",
        Name:      "infected",
        Help:      "1 if the last analyzed snapshot had any finding, else 0",
    })

    Runs = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "clusterdoctor",
        Name:      "runs_total",
        Help:      "Total number of analysis runs",
    })

    AnalyzerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
        Namespace: "clusterdoctor",
        Name:      "analyzer_duration_seconds",
        Help:      "Time spent in each analyzer",
        Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
    }, []string{"analyzer"})

    AnalyzerPanics = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "clusterdoctor",
        Name:      "analyzer_panics_total",
        Help:      "Analyzers that panicked and were skipped",
    }, []string{"analyzer"})

    SnapshotWarnings = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "clusterdoctor",
        Subsystem: "snapshot",
        Name:      "warnings",
        Help:      "Malformed sections in the last decoded snapshot",
    })

    Artifacts = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "clusterdoctor",
        Subsystem: "remediation",
        Name:      "artifacts_total",
        Help:      "Remediation artifacts written, by sink and result",
    }, []string{"sink", "result"})
)

// Register registers metrics into the default Prometheus registry (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(Findings)
        prometheus.MustRegister(Infected)
        prometheus.MustRegister(Runs)
        prometheus.MustRegister(AnalyzerDuration)
        prometheus.MustRegister(AnalyzerPanics)
        prometheus.MustRegister(SnapshotWarnings)
        prometheus.MustRegister(Artifacts)
    })
}

// WriteTextfile dumps the default registry in the node-exporter textfile
// format.
func WriteTextfile(path string) error {
    Register()
    return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
