// Package config resolves runtime settings from the environment and an
// optional .env file. Command-line flags default to these values.
package config

import (
    "errors"
    "os"
    "strconv"
    "strings"

    "github.com/joho/godotenv"

    "github.com/amirimatin/cluster-doctor/pkg/remediation"
    "github.com/amirimatin/cluster-doctor/pkg/report"
)

// Environment variables understood by Load.
const (
    EnvSnapshot    = "DOCTOR_SNAPSHOT"
    EnvStores      = "DOCTOR_STORES"
    EnvOutputDir   = "DOCTOR_OUTPUT_DIR"
    EnvFormat      = "DOCTOR_FORMAT"
    EnvNoColor     = "DOCTOR_NO_COLOR"
    EnvMetricsFile = "DOCTOR_METRICS_FILE"
    EnvListen      = "DOCTOR_LISTEN"
    EnvTLSCert     = "DOCTOR_TLS_CERT"
    EnvTLSKey      = "DOCTOR_TLS_KEY"
    EnvTLSCA       = "DOCTOR_TLS_CA"
)

// Config carries everything the commands need.
type Config struct {
    Snapshot    string
    Stores      string
    OutputDir   string
    Format      string
    NoColor     bool
    MetricsFile string
    Listen      string
    TLS         TLSConfig
    Artifact    remediation.S3Config
}

// TLSConfig enables TLS on the report server when CertFile is set.
type TLSConfig struct {
    CertFile string
    KeyFile  string
    CAFile   string
}

// Load reads .env (if present) and the environment. Values already set in
// the environment win over .env.
func Load() (*Config, error) {
    _ = godotenv.Load()

    cfg := &Config{
        Snapshot:    env(EnvSnapshot),
        Stores:      env(EnvStores),
        OutputDir:   firstNonEmpty(env(EnvOutputDir), "."),
        Format:      firstNonEmpty(strings.ToLower(env(EnvFormat)), report.FormatText),
        NoColor:     flag(EnvNoColor) || os.Getenv("NO_COLOR") != "",
        MetricsFile: env(EnvMetricsFile),
        Listen:      firstNonEmpty(env(EnvListen), ":17960"),
        TLS: TLSConfig{
            CertFile: env(EnvTLSCert),
            KeyFile:  env(EnvTLSKey),
            CAFile:   env(EnvTLSCA),
        },
        Artifact: loadArtifactConfig(),
    }
    return cfg, nil
}

func loadArtifactConfig() remediation.S3Config {
    return remediation.S3Config{
        Endpoint:  env("DOCTOR_ARTIFACT_S3_ENDPOINT"),
        Region:    firstNonEmpty(env("DOCTOR_ARTIFACT_S3_REGION"), "us-east-1"),
        AccessKey: firstNonEmpty(env("DOCTOR_ARTIFACT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
        SecretKey: firstNonEmpty(env("DOCTOR_ARTIFACT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
        Bucket:    firstNonEmpty(env("DOCTOR_ARTIFACT_S3_BUCKET"), "clusterdoctor"),
        Prefix:    env("DOCTOR_ARTIFACT_S3_PREFIX"),
        UseSSL:    boolOr("DOCTOR_ARTIFACT_S3_USE_SSL", true),
    }
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
    switch c.Format {
    case report.FormatText, report.FormatJSON:
    default:
        return errors.New("config: format must be text or json")
    }
    if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
        return errors.New("config: tls cert and key must be set together")
    }
    if c.Artifact.Enabled() && (c.Artifact.AccessKey == "" || c.Artifact.SecretKey == "") {
        return errors.New("config: s3 mirror needs access and secret key")
    }
    return nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func flag(key string) bool { return boolOr(key, false) }

func boolOr(key string, def bool) bool {
    raw := env(key)
    if raw == "" { return def }
    v, err := strconv.ParseBool(raw)
    if err != nil { return def }
    return v
}

func firstNonEmpty(values ...string) string {
    for _, v := range values {
        if v != "" { return v }
    }
    return ""
}
