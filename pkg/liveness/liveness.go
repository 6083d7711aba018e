// Package liveness derives the set of reachable servers from the
// supervision health records of a snapshot.
package liveness

import (
    "sort"
    "strings"

    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// Index is the liveness oracle for a single analysis run. A server is alive
// only if its health status is GOOD; servers without a health record are
// dead.
type Index struct {
    primaries       map[string]struct{}
    failedEndpoints []string
}

// Build derives the index from Supervision/Health. A nil or empty map yields
// an index in which every server is dead.
func Build(health map[string]snapshot.HealthRecord) *Index {
    idx := &Index{primaries: make(map[string]struct{})}
    for id, h := range health {
        switch h.Status {
        case snapshot.StatusGood:
            idx.primaries[id] = struct{}{}
        case snapshot.StatusFailed:
            if ep := NormalizeEndpoint(h.Endpoint); ep != "" {
                idx.failedEndpoints = append(idx.failedEndpoints, ep)
            }
        }
    }
    sort.Strings(idx.failedEndpoints)
    return idx
}

// Alive reports whether id is a GOOD server.
func (i *Index) Alive(id string) bool {
    if i == nil { return false }
    _, ok := i.primaries[id]
    return ok
}

// Dead is the negation of Alive.
func (i *Index) Dead(id string) bool { return !i.Alive(id) }

// Primaries returns the GOOD servers in natural order.
func (i *Index) Primaries() []string {
    if i == nil { return nil }
    return snapshot.SortedKeys(i.primaries)
}

// FailedEndpoints returns the normalized endpoints of FAILED servers.
func (i *Index) FailedEndpoints() []string {
    if i == nil { return nil }
    return append([]string(nil), i.failedEndpoints...)
}

// NormalizeEndpoint maps agency endpoint schemes to URL schemes:
// ssl:// -> https://, tcp:// -> http://.
func NormalizeEndpoint(ep string) string {
    ep = strings.TrimSpace(ep)
    switch {
    case strings.HasPrefix(ep, "ssl:"):
        return "https:" + strings.TrimPrefix(ep, "ssl:")
    case strings.HasPrefix(ep, "tcp:"):
        return "http:" + strings.TrimPrefix(ep, "tcp:")
    }
    return ep
}
