// Package tlsconfig builds the TLS settings of the report server and of the
// clients querying it.
package tlsconfig

import (
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "os"
    "sync"
    "time"
)

// Options names the PEM files. TLS is off when CertFile is empty; a CAFile
// additionally requires client certificates signed by that CA.
type Options struct {
    CertFile string
    KeyFile  string
    CAFile   string
    // ServerName overrides the host name a client verifies.
    ServerName string
    // Reload is how long a loaded certificate is reused before the files
    // are read again (10s when zero).
    Reload time.Duration
}

// Enabled reports whether a certificate is configured.
func (o Options) Enabled() bool { return o.CertFile != "" }

// Server returns a server tls.Config, or nil when TLS is disabled. The
// key pair is re-read lazily on handshakes so rotated files are picked up
// without a restart.
func (o Options) Server() (*tls.Config, error) {
    if !o.Enabled() { return nil, nil }
    if o.KeyFile == "" { return nil, errors.New("tls: key file required with cert file") }
    r, err := o.reloader()
    if err != nil { return nil, err }

    cfg := &tls.Config{MinVersion: tls.VersionTLS12}
    cfg.GetCertificate = func(*tls.ClientHelloInfo) (*tls.Certificate, error) { return r.get() }
    if o.CAFile != "" {
        pool, err := loadPool(o.CAFile)
        if err != nil { return nil, err }
        cfg.ClientCAs = pool
        cfg.ClientAuth = tls.RequireAndVerifyClientCert
    }
    return cfg, nil
}

// Client returns a client tls.Config, or nil when neither a file nor a
// server name is configured. CAFile replaces the system roots; a key pair
// is presented to servers that require client certificates and is re-read
// like the server's.
func (o Options) Client() (*tls.Config, error) {
    if o.CAFile == "" && o.CertFile == "" && o.ServerName == "" { return nil, nil }
    cfg := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: o.ServerName}
    if o.CAFile != "" {
        pool, err := loadPool(o.CAFile)
        if err != nil { return nil, err }
        cfg.RootCAs = pool
    }
    if o.CertFile != "" {
        if o.KeyFile == "" { return nil, errors.New("tls: key file required with cert file") }
        r, err := o.reloader()
        if err != nil { return nil, err }
        cfg.GetClientCertificate = func(*tls.CertificateRequestInfo) (*tls.Certificate, error) { return r.get() }
    }
    return cfg, nil
}

func (o Options) reloader() (*reloader, error) {
    r := &reloader{cert: o.CertFile, key: o.KeyFile, ttl: o.Reload}
    if r.ttl <= 0 { r.ttl = 10 * time.Second }
    if _, err := r.get(); err != nil { return nil, fmt.Errorf("tls: %w", err) }
    return r, nil
}

func loadPool(file string) (*x509.CertPool, error) {
    ca, err := os.ReadFile(file)
    if err != nil { return nil, err }
    pool := x509.NewCertPool()
    if !pool.AppendCertsFromPEM(ca) { return nil, fmt.Errorf("tls: no certificates in %s", file) }
    return pool, nil
}

type reloader struct {
    cert, key string
    ttl       time.Duration

    mu       sync.RWMutex
    cached   *tls.Certificate
    lastLoad time.Time
}

func (r *reloader) get() (*tls.Certificate, error) {
    r.mu.RLock()
    if r.cached != nil && time.Since(r.lastLoad) < r.ttl {
        c := r.cached
        r.mu.RUnlock()
        return c, nil
    }
    r.mu.RUnlock()
    cert, err := tls.LoadX509KeyPair(r.cert, r.key)
    if err != nil { return nil, err }
    r.mu.Lock()
    r.cached = &cert
    r.lastLoad = time.Now()
    r.mu.Unlock()
    return &cert, nil
}
