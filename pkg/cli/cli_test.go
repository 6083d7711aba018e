package cli

import (
    "bytes"
    "encoding/pem"
    "errors"
    "io"
    "log"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/spf13/cobra"

    "github.com/amirimatin/cluster-doctor/pkg/server"
    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

func execute(t *testing.T, args ...string) (string, error) {
    t.Helper()
    root := &cobra.Command{Use: "clusterdoctor", SilenceUsage: true, SilenceErrors: true}
    AddAll(root)
    var out bytes.Buffer
    root.SetOut(&out)
    root.SetErr(&out)
    root.SetArgs(args)
    err := root.Execute()
    return out.String(), err
}

func isolate(t *testing.T) string {
    t.Helper()
    dir := t.TempDir()
    chdir(t, dir)
    for _, k := range []string{"DOCTOR_SNAPSHOT", "DOCTOR_STORES", "DOCTOR_OUTPUT_DIR", "DOCTOR_FORMAT", "DOCTOR_ARTIFACT_S3_ENDPOINT"} {
        t.Setenv(k, "")
    }
    return dir
}

func TestAnalyzeInfected(t *testing.T) {
    dir := isolate(t)
    dump := filepath.Join(dir, "dump.json")
    body := `{"arango":{"Current":{"Coordinators":{"CRDN-7":{}}},"Supervision":{"Health":{}}}}`
    if err := os.WriteFile(dump, []byte(body), 0o644); err != nil { t.Fatal(err) }
    outDir := filepath.Join(dir, "out")
    metrics := filepath.Join(dir, "doctor.prom")

    out, err := execute(t, "analyze", "--snapshot", dump, "--output-dir", outDir, "--no-color", "--metrics-file", metrics)
    if !errors.Is(err, ErrInfected) { t.Fatalf("want ErrInfected, got %v\n%s", err, out) }
    if !strings.Contains(out, "[FAIL] Coordinators running without a plan entry (1)") { t.Fatalf("report:\n%s", out) }
    if _, err := os.Stat(filepath.Join(outDir, "zombie-coordinators.json")); err != nil { t.Fatalf("artifact: %v", err) }
    prom, err := os.ReadFile(metrics)
    if err != nil { t.Fatalf("metrics: %v", err) }
    if !strings.Contains(string(prom), "clusterdoctor_infected 1") { t.Fatalf("metrics:\n%s", prom) }
}

func TestAnalyzeWritesLocallyWhenMirrorUnusable(t *testing.T) {
    dir := isolate(t)
    t.Setenv("DOCTOR_ARTIFACT_S3_ENDPOINT", "bad!host:9000")
    t.Setenv("DOCTOR_ARTIFACT_S3_ACCESS_KEY", "doctor")
    t.Setenv("DOCTOR_ARTIFACT_S3_SECRET_KEY", "secret")
    dump := filepath.Join(dir, "dump.json")
    if err := os.WriteFile(dump, []byte(`{"Current":{"Coordinators":{"CRDN-7":{}}}}`), 0o644); err != nil { t.Fatal(err) }

    out, err := execute(t, "analyze", "--snapshot", dump, "--output-dir", dir, "--no-color")
    if !errors.Is(err, ErrInfected) { t.Fatalf("want ErrInfected, got %v\n%s", err, out) }
    if _, err := os.Stat(filepath.Join(dir, "zombie-coordinators.json")); err != nil { t.Fatalf("artifact: %v", err) }
}

func TestAnalyzeHealthyJSON(t *testing.T) {
    dir := isolate(t)
    dump := filepath.Join(dir, "dump.yaml")
    if err := os.WriteFile(dump, []byte("Supervision:\n  Health: {}\n"), 0o644); err != nil { t.Fatal(err) }
    out, err := execute(t, "analyze", "--snapshot", dump, "--format", "json", "--no-artifacts")
    if err != nil { t.Fatalf("analyze: %v", err) }
    if !strings.Contains(out, `"infected": false`) { t.Fatalf("report:\n%s", out) }
}

func TestAnalyzeNeedsSnapshot(t *testing.T) {
    isolate(t)
    if _, err := execute(t, "analyze"); err == nil || errors.Is(err, ErrInfected) { t.Fatalf("want usage error, got %v", err) }
    if _, err := execute(t, "analyze", "--snapshot", "x.json", "--format", "xml"); err == nil { t.Fatalf("bad format accepted") }
}

func TestTasks(t *testing.T) {
    out, err := execute(t, "tasks")
    if err != nil { t.Fatalf("tasks: %v", err) }
    for _, want := range []string{"forced-failover-candidates.json", "force-failover", "remove-zombie-callbacks"} {
        if !strings.Contains(out, want) { t.Fatalf("missing %q in:\n%s", want, out) }
    }
}

func TestStatusFromServer(t *testing.T) {
    dir := isolate(t)
    dump := filepath.Join(dir, "dump.json")
    if err := os.WriteFile(dump, []byte(`{"Current":{"Coordinators":{"CRDN-7":{}}}}`), 0o644); err != nil { t.Fatal(err) }
    ts := httptest.NewServer(server.New("", snapshot.FileSource{Path: dump}, log.New(io.Discard, "", 0)).Handler())
    defer ts.Close()

    out, err := execute(t, "status", "--addr", strings.TrimPrefix(ts.URL, "http://"))
    if !errors.Is(err, ErrInfected) { t.Fatalf("want ErrInfected, got %v", err) }
    if !strings.Contains(out, `"CRDN-7"`) { t.Fatalf("output: %s", out) }
}

func TestStatusOverTLS(t *testing.T) {
    dir := isolate(t)
    dump := filepath.Join(dir, "dump.json")
    if err := os.WriteFile(dump, []byte(`{"Supervision":{"Health":{}}}`), 0o644); err != nil { t.Fatal(err) }
    ts := httptest.NewTLSServer(server.New("", snapshot.FileSource{Path: dump}, log.New(io.Discard, "", 0)).Handler())
    defer ts.Close()
    ca := filepath.Join(dir, "ca.pem")
    if err := os.WriteFile(ca, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw}), 0o600); err != nil { t.Fatal(err) }
    addr := strings.TrimPrefix(ts.URL, "https://")

    out, err := execute(t, "status", "--addr", addr, "--tls-ca", ca, "--tls-server-name", "example.com", "--timeout", "2s")
    if err != nil { t.Fatalf("status: %v\n%s", err, out) }
    if !strings.Contains(out, `"infected":false`) { t.Fatalf("output: %s", out) }

    if _, err := execute(t, "status", "--addr", addr, "--tls-ca", ca, "--tls-server-name", "other.invalid", "--timeout", "2s"); err == nil {
        t.Fatalf("want verification error for a wrong server name")
    }
    if _, err := execute(t, "status", "--addr", addr, "--tls-cert", ca); err == nil || !strings.Contains(err.Error(), "tls client config") {
        t.Fatalf("want tls config error, got %v", err)
    }
}

// chdir mirrors testing.T.Chdir (Go 1.24+): switch the working directory for
// the duration of the test and restore it on cleanup.
func chdir(t *testing.T, dir string) {
    t.Helper()
    prev, err := os.Getwd()
    if err != nil { t.Fatalf("getwd: %v", err) }
    if err := os.Chdir(dir); err != nil { t.Fatalf("chdir: %v", err) }
    t.Cleanup(func() {
        if err := os.Chdir(prev); err != nil { t.Fatalf("restore cwd: %v", err) }
    })
}
