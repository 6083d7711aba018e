// Package cli provides the cobra commands of clusterdoctor so they can be
// mounted into other binaries.
package cli

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "os/signal"
    "syscall"
    "text/tabwriter"
    "time"

    "github.com/spf13/cobra"
    "github.com/spf13/pflag"

    "github.com/amirimatin/cluster-doctor/pkg/analysis"
    "github.com/amirimatin/cluster-doctor/pkg/config"
    "github.com/amirimatin/cluster-doctor/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/cluster-doctor/pkg/observability/metrics"
    "github.com/amirimatin/cluster-doctor/pkg/observability/tracing"
    "github.com/amirimatin/cluster-doctor/pkg/remediation"
    "github.com/amirimatin/cluster-doctor/pkg/report"
    tlsx "github.com/amirimatin/cluster-doctor/pkg/security/tlsconfig"
    "github.com/amirimatin/cluster-doctor/pkg/server"
    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// ErrInfected is returned by analyze when at least one check failed. The
// binary maps it to exit code 2.
var ErrInfected = errors.New("cluster is infected")

// AddAll attaches analyze/serve/tasks to the provided root command.
func AddAll(root *cobra.Command) {
    root.AddCommand(NewAnalyzeCmd())
    root.AddCommand(NewServeCmd())
    root.AddCommand(NewStatusCmd())
    root.AddCommand(NewTasksCmd())
}

type common struct {
    snapshot, stores string
    trace, verbose   bool
    logJSON          bool
}

func (c *common) bind(fs *pflag.FlagSet) {
    fs.StringVar(&c.snapshot, "snapshot", "", "agency dump (JSON or YAML, glob picks the newest match) [$"+config.EnvSnapshot+"]")
    fs.StringVar(&c.stores, "stores", "", "optional stores document supplying callbacks [$"+config.EnvStores+"]")
    fs.BoolVar(&c.trace, "trace", false, "enable OpenTelemetry stdout tracing to stderr (dev)")
    fs.BoolVar(&c.verbose, "verbose", false, "debug logging")
    fs.BoolVar(&c.logJSON, "log-json", false, "log JSON lines")
}

// setup loads the configuration, applies flags on top and starts tracing.
func (c *common) setup(cmd *cobra.Command) (*config.Config, func(), error) {
    cfg, err := config.Load()
    if err != nil { return nil, nil, err }
    if cmd.Flags().Changed("snapshot") { cfg.Snapshot = c.snapshot }
    if cmd.Flags().Changed("stores") { cfg.Stores = c.stores }
    if c.verbose { logutil.SetDebug(true) }
    if c.logJSON { logutil.SetJSON(true) }
    done := func() {}
    if c.trace {
        shutdown, err := tracing.Setup(true, cmd.ErrOrStderr())
        if err != nil {
            logutil.Warnf(log.Default(), "tracing setup error: %v", err)
        } else {
            done = func() { _ = shutdown(context.Background()) }
        }
    }
    return cfg, done, nil
}

// NewAnalyzeCmd returns the "analyze" command: one offline run over a dump.
func NewAnalyzeCmd() *cobra.Command {
    var (
        c                              common
        outputDir, format, metricsFile string
        noColor, noArtifacts           bool
    )
    cmd := &cobra.Command{
        Use:   "analyze",
        Short: "Analyze an agency dump and write remediation artifacts",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, done, err := c.setup(cmd)
            if err != nil { return err }
            defer done()
            if cmd.Flags().Changed("output-dir") { cfg.OutputDir = outputDir }
            if cmd.Flags().Changed("format") { cfg.Format = format }
            if cmd.Flags().Changed("metrics-file") { cfg.MetricsFile = metricsFile }
            if noColor { cfg.NoColor = true }
            if err := cfg.Validate(); err != nil { return err }
            if cfg.Snapshot == "" { return fmt.Errorf("missing --snapshot (or $%s)", config.EnvSnapshot) }

            ctx, cancel := signalContext()
            defer cancel()
            logger := log.Default()

            src := snapshot.FileSource{Path: cfg.Snapshot, StoresPath: cfg.Stores}
            snap, err := src.Load(ctx)
            if err != nil { return err }
            f := analysis.NewEngine(logger).Run(ctx, snap)

            rep := report.New(cfg.Format, cfg.NoColor)
            rep.Out = cmd.OutOrStdout()
            infected := rep.RenderWithWarnings(f, snap.Warnings)

            var exportErr error
            if !noArtifacts {
                exp := remediation.NewExporter(cfg.OutputDir, logger)
                if cfg.Artifact.Enabled() {
                    if sink, err := remediation.NewS3Sink(cfg.Artifact); err != nil {
                        logutil.Warnf(logger, "artifact mirror disabled, writing locally only: %v", err)
                    } else {
                        exp.Mirror = sink
                    }
                }
                _, exportErr = exp.Export(ctx, f)
            }
            if cfg.MetricsFile != "" {
                if err := obsmetrics.WriteTextfile(cfg.MetricsFile); err != nil {
                    logutil.Errorf(logger, "metrics file: %v", err)
                }
            }
            if exportErr != nil { return fmt.Errorf("artifacts: %w", exportErr) }
            if infected { return ErrInfected }
            return nil
        },
    }
    c.bind(cmd.Flags())
    cmd.Flags().StringVar(&outputDir, "output-dir", ".", "directory for remediation artifacts [$"+config.EnvOutputDir+"]")
    cmd.Flags().StringVar(&format, "format", report.FormatText, "report format: text|json [$"+config.EnvFormat+"]")
    cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here [$"+config.EnvMetricsFile+"]")
    cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output [$NO_COLOR]")
    cmd.Flags().BoolVar(&noArtifacts, "no-artifacts", false, "report only, write no artifacts")
    return cmd
}

// NewServeCmd returns the "serve" command exposing /report, /healthz and
// /metrics.
func NewServeCmd() *cobra.Command {
    var (
        c                      common
        listen                 string
        tlsCert, tlsKey, tlsCA string
        cacheSize              int
    )
    cmd := &cobra.Command{
        Use:   "serve",
        Short: "Serve analysis reports over HTTP",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, done, err := c.setup(cmd)
            if err != nil { return err }
            defer done()
            if cmd.Flags().Changed("listen") { cfg.Listen = listen }
            if cmd.Flags().Changed("tls-cert") { cfg.TLS.CertFile = tlsCert }
            if cmd.Flags().Changed("tls-key") { cfg.TLS.KeyFile = tlsKey }
            if cmd.Flags().Changed("tls-ca") { cfg.TLS.CAFile = tlsCA }
            if err := cfg.Validate(); err != nil { return err }
            if cfg.Snapshot == "" { return fmt.Errorf("missing --snapshot (or $%s)", config.EnvSnapshot) }

            src, err := snapshot.NewCachedSource(snapshot.FileSource{Path: cfg.Snapshot, StoresPath: cfg.Stores}, cacheSize)
            if err != nil { return err }
            srv := server.New(cfg.Listen, src, log.Default())
            topts := tlsx.Options{CertFile: cfg.TLS.CertFile, KeyFile: cfg.TLS.KeyFile, CAFile: cfg.TLS.CAFile}
            tlsCfg, err := topts.Server()
            if err != nil { return fmt.Errorf("tls server config: %w", err) }
            if tlsCfg != nil { srv.UseTLS(tlsCfg) }

            ctx, cancel := signalContext()
            defer cancel()
            if err := srv.Start(ctx); err != nil { return err }
            fmt.Fprintln(cmd.OutOrStdout(), "clusterdoctor serving on", srv.Addr(), "- press Ctrl+C to exit.")
            <-ctx.Done()
            return srv.Stop(context.Background())
        },
    }
    c.bind(cmd.Flags())
    cmd.Flags().StringVar(&listen, "listen", ":17960", "HTTP listen address [$"+config.EnvListen+"]")
    cmd.Flags().StringVar(&tlsCert, "tls-cert", "", "server certificate (PEM) [$"+config.EnvTLSCert+"]")
    cmd.Flags().StringVar(&tlsKey, "tls-key", "", "server private key (PEM) [$"+config.EnvTLSKey+"]")
    cmd.Flags().StringVar(&tlsCA, "tls-ca", "", "CA for client certificates (PEM); enables mTLS [$"+config.EnvTLSCA+"]")
    cmd.Flags().IntVar(&cacheSize, "cache-size", 8, "number of decoded snapshots kept in memory")
    return cmd
}

// NewStatusCmd returns the "status" command: fetch the report of a running
// server, over TLS when a CA, client certificate or server name is given.
func NewStatusCmd() *cobra.Command {
    var (
        addr                   string
        timeout                time.Duration
        tlsCA, tlsCert, tlsKey string
        tlsServerName          string
    )
    cmd := &cobra.Command{
        Use:   "status",
        Short: "Fetch the JSON report from a running clusterdoctor server",
        RunE: func(cmd *cobra.Command, args []string) error {
            client := server.NewClient(timeout)
            topts := tlsx.Options{CertFile: tlsCert, KeyFile: tlsKey, CAFile: tlsCA, ServerName: tlsServerName}
            tlsCfg, err := topts.Client()
            if err != nil { return fmt.Errorf("tls client config: %w", err) }
            if tlsCfg != nil { client.UseTLS(tlsCfg) }

            ctx, cancel := context.WithTimeout(context.Background(), timeout)
            defer cancel()
            data, err := client.GetReport(ctx, addr)
            if err != nil { return fmt.Errorf("status error: %w", err) }
            out := cmd.OutOrStdout()
            _, _ = out.Write(data)
            if len(data) == 0 || data[len(data)-1] != '\n' { _, _ = out.Write([]byte("\n")) }
            var doc struct{ Infected bool `json:"infected"` }
            if err := json.Unmarshal(data, &doc); err != nil { return fmt.Errorf("status: decode: %w", err) }
            if doc.Infected { return ErrInfected }
            return nil
        },
    }
    cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:17960", "address of a clusterdoctor server (host:port)")
    cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
    cmd.Flags().StringVar(&tlsCA, "tls-ca", "", "CA verifying the server certificate (PEM); enables TLS")
    cmd.Flags().StringVar(&tlsCert, "tls-cert", "", "client certificate for mTLS (PEM)")
    cmd.Flags().StringVar(&tlsKey, "tls-key", "", "client private key for mTLS (PEM)")
    cmd.Flags().StringVar(&tlsServerName, "tls-server-name", "", "server name to verify instead of the host in --addr")
    return cmd
}

// NewTasksCmd returns the "tasks" command listing artifacts and the repair
// task consuming each of them.
func NewTasksCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "tasks",
        Short: "List remediation artifacts and their repair tasks",
        RunE: func(cmd *cobra.Command, args []string) error {
            tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
            fmt.Fprintln(tw, "SECTION\tARTIFACT\tTASK")
            for _, t := range remediation.Tasks() {
                fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Section, t.Artifact, t.Name)
            }
            return tw.Flush()
        },
    }
}

func signalContext() (context.Context, context.CancelFunc) {
    return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
