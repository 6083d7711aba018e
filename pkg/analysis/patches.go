package analysis

import (
    "strings"

    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// AgencyPath joins agency key segments below the agency root.
func AgencyPath(parts ...string) string {
    return "/" + snapshot.AgencyPrefix + "/" + strings.Join(parts, "/")
}

// cleanedFailoverCandidates finds failoverCandidates lists that still name
// servers listed in Target/CleanedServers and records the corrected list.
func cleanedFailoverCandidates(in Input, f *Findings) {
    snap := in.Snapshot
    if len(snap.Target.CleanedServers) == 0 { return }
    cleaned := make(map[string]struct{}, len(snap.Target.CleanedServers))
    for _, s := range snap.Target.CleanedServers { cleaned[s] = struct{}{} }

    for _, db := range snapshot.SortedKeys(snap.Current.Collections) {
        cols := snap.Current.Collections[db]
        for _, cid := range snapshot.SortedKeys(cols) {
            shards := cols[cid]
            for _, shard := range snapshot.SortedKeys(shards) {
                orig := shards[shard].FailoverCandidates
                corrected := make([]string, 0, len(orig))
                for _, srv := range orig {
                    if _, bad := cleaned[srv]; !bad { corrected = append(corrected, srv) }
                }
                if len(corrected) == len(orig) { continue }
                f.CleanedFailoverCandidates = append(f.CleanedFailoverCandidates, CandidatePatch{
                    Path:      AgencyPath("Current", "Collections", db, cid, shard, "failoverCandidates"),
                    Corrected: corrected,
                    Original:  clone(orig),
                })
            }
        }
    }
}

// Edge index type and the ids of the two canonical edge indexes.
const (
    EdgeIndexType = "edge"
    edgeFromID    = "1"
    edgeToID      = "2"
)

// IsBrokenEdgeIndex reports whether ix is the legacy combined edge index.
func IsBrokenEdgeIndex(ix snapshot.Index) bool {
    return ix.ID == edgeFromID && ix.Type == EdgeIndexType && len(ix.Fields) > 1
}

// FixEdgeIndexes returns indexes with a broken combined edge index replaced
// in place by the _from and _to edge indexes. Other indexes are kept; a
// stale id "2" edge index is dropped since its replacement is synthesized.
// ok is false when there was nothing to fix.
func FixEdgeIndexes(indexes []snapshot.Index) (good []snapshot.Index, ok bool) {
    at := -1
    for i, ix := range indexes {
        if IsBrokenEdgeIndex(ix) { at = i; break }
    }
    if at < 0 { return nil, false }
    bad := indexes[at]
    good = make([]snapshot.Index, 0, len(indexes)+1)
    for i, ix := range indexes {
        switch {
        case i == at:
            good = append(good,
                snapshot.Index{ID: edgeFromID, Type: EdgeIndexType, Name: EdgeIndexType, Fields: []string{"_from"}, Extra: copyExtra(bad.Extra)},
                snapshot.Index{ID: edgeToID, Type: EdgeIndexType, Name: EdgeIndexType, Fields: []string{"_to"}, Extra: copyExtra(bad.Extra)},
            )
        case ix.ID == edgeToID && ix.Type == EdgeIndexType:
        default:
            good = append(good, ix)
        }
    }
    return good, true
}

func copyExtra[V any](m map[string]V) map[string]V {
    if m == nil { return nil }
    out := make(map[string]V, len(m))
    for k, v := range m { out[k] = v }
    return out
}

// brokenEdgeIndexes detects collections carrying the combined edge index.
func brokenEdgeIndexes(in Input, f *Findings) {
    snap := in.Snapshot
    for _, db := range snapshot.SortedKeys(snap.Plan.Collections) {
        cols := snap.Plan.Collections[db]
        for _, cid := range snapshot.SortedKeys(cols) {
            col := cols[cid]
            good, ok := FixEdgeIndexes(col.Indexes)
            if !ok { continue }
            f.BrokenEdgeIndexes = append(f.BrokenEdgeIndexes, EdgeIndexFix{
                CollectionRef: CollectionRef{Database: db, CollectionID: cid, Collection: col.Name},
                Path:          AgencyPath("Plan", "Collections", db, cid, "indexes"),
                Bad:           append([]snapshot.Index(nil), col.Indexes...),
                Good:          good,
            })
        }
    }
}

// zombieCallbacks reports pending callbacks addressed to failed servers.
func zombieCallbacks(in Input, f *Findings) {
    failed := in.Live.FailedEndpoints()
    if len(failed) == 0 { return }
    for _, cb := range in.Snapshot.Callbacks {
        for _, ep := range failed {
            if !addressedTo(cb.URL, ep) { continue }
            f.ZombieCallbacks = append(f.ZombieCallbacks, ZombieCallback{Key: cb.Key, URL: cb.URL, Endpoint: ep})
            break
        }
    }
}

func addressedTo(url, endpoint string) bool {
    if !strings.HasPrefix(url, endpoint) { return false }
    rest := url[len(endpoint):]
    return rest == "" || rest[0] == '/' || rest[0] == '?'
}
