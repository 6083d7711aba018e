package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestLoadDefaults(t *testing.T) {
    chdir(t, t.TempDir())
    for _, k := range []string{EnvSnapshot, EnvOutputDir, EnvFormat, EnvNoColor, "NO_COLOR", "DOCTOR_ARTIFACT_S3_ENDPOINT"} {
        t.Setenv(k, "")
    }
    cfg, err := Load()
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.OutputDir != "." || cfg.Format != "text" || cfg.NoColor || cfg.Artifact.Enabled() {
        t.Fatalf("unexpected defaults: %+v", cfg)
    }
    if err := cfg.Validate(); err != nil { t.Fatalf("validate: %v", err) }
}

func TestLoadEnvAndDotenv(t *testing.T) {
    dir := t.TempDir()
    chdir(t, dir)
    body := "DOCTOR_SNAPSHOT=/dumps/agency.json\nDOCTOR_FORMAT=json\nDOCTOR_ARTIFACT_S3_ENDPOINT=minio:9000\n"
    if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(body), 0o600); err != nil { t.Fatalf("write: %v", err) }
    for _, k := range []string{EnvSnapshot, "DOCTOR_ARTIFACT_S3_ENDPOINT"} {
        t.Setenv(k, "")
        os.Unsetenv(k)
    }
    t.Setenv(EnvFormat, "text")
    t.Setenv("NO_COLOR", "1")
    t.Setenv("DOCTOR_ARTIFACT_S3_ACCESS_KEY", "ak")
    t.Setenv("DOCTOR_ARTIFACT_S3_SECRET_KEY", "sk")
    t.Setenv("DOCTOR_ARTIFACT_S3_USE_SSL", "false")

    cfg, err := Load()
    if err != nil { t.Fatalf("load: %v", err) }
    if cfg.Snapshot != "/dumps/agency.json" { t.Fatalf("snapshot from .env: %q", cfg.Snapshot) }
    if cfg.Format != "text" { t.Fatalf("environment must win over .env: %q", cfg.Format) }
    if !cfg.NoColor { t.Fatalf("NO_COLOR ignored") }
    if !cfg.Artifact.Enabled() || cfg.Artifact.UseSSL || cfg.Artifact.Bucket != "clusterdoctor" {
        t.Fatalf("artifact config: %+v", cfg.Artifact)
    }
    if err := cfg.Validate(); err != nil { t.Fatalf("validate: %v", err) }
}

func TestValidate(t *testing.T) {
    cases := []struct {
        name string
        cfg  Config
        ok   bool
    }{
        {"text", Config{Format: "text"}, true},
        {"bad format", Config{Format: "xml"}, false},
        {"cert without key", Config{Format: "json", TLS: TLSConfig{CertFile: "c.pem"}}, false},
    }
    for _, tc := range cases {
        if err := tc.cfg.Validate(); (err == nil) != tc.ok { t.Fatalf("%s: err=%v", tc.name, err) }
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
