package snapshot

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"
)

// Source yields a snapshot. Implementations read it once per call; the
// analysis itself never touches the source again.
type Source interface {
    Load(ctx context.Context) (*Snapshot, error)
}

// FileSource loads a dump from disk.
type FileSource struct {
    // Path to the dump. May be a glob, in which case the most recently
    // modified match is used.
    Path string
    // StoresPath optionally names a stores document supplying callbacks.
    StoresPath string
    // Env, when it names a non-empty environment variable, overrides Path.
    Env string
}

// Resolve returns the concrete dump file this source points at.
func (f FileSource) Resolve() (string, error) {
    path := f.Path
    if f.Env != "" {
        if v := strings.TrimSpace(os.Getenv(f.Env)); v != "" { path = v }
    }
    if path == "" { return "", errors.New("snapshot: no dump path configured") }
    if _, err := os.Stat(path); err == nil { return path, nil }
    matches, err := filepath.Glob(path)
    if err != nil { return "", fmt.Errorf("snapshot: bad pattern %q: %w", path, err) }
    var (
        best    string
        bestMod time.Time
    )
    for _, m := range matches {
        st, err := os.Stat(m)
        if err != nil || st.IsDir() { continue }
        if best == "" || st.ModTime().After(bestMod) {
            best, bestMod = m, st.ModTime()
        }
    }
    if best == "" { return "", fmt.Errorf("snapshot: %s: %w", path, os.ErrNotExist) }
    return best, nil
}

// Load reads and decodes the dump, and the stores document when configured.
func (f FileSource) Load(ctx context.Context) (*Snapshot, error) {
    if err := ctx.Err(); err != nil { return nil, err }
    path, err := f.Resolve()
    if err != nil { return nil, err }
    return loadFiles(path, f.StoresPath)
}

func loadFiles(path, storesPath string) (*Snapshot, error) {
    data, err := os.ReadFile(path)
    if err != nil { return nil, err }
    if isYAML(path) {
        data, err = yamlToJSON(data)
        if err != nil { return nil, fmt.Errorf("decode snapshot %s: %w", path, err) }
    }
    var stores []byte
    if storesPath != "" {
        stores, err = os.ReadFile(storesPath)
        if err != nil { return nil, err }
        if isYAML(storesPath) {
            stores, err = yamlToJSON(stores)
            if err != nil { return nil, fmt.Errorf("decode stores %s: %w", storesPath, err) }
        }
    }
    s, err := DecodePair(data, stores)
    if err != nil { return nil, fmt.Errorf("decode snapshot %s: %w", path, err) }
    return s, nil
}

func isYAML(path string) bool {
    switch strings.ToLower(filepath.Ext(path)) {
    case ".yaml", ".yml":
        return true
    }
    return false
}
