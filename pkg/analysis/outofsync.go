package analysis

import (
    "sort"

    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// outOfSyncFollowers compares every planned replica set against the one
// reported in Current and tallies under-replicated shards per current
// leader.
func outOfSyncFollowers(in Input, f *Findings) {
    snap := in.Snapshot
    risk := make(map[string]int)
    for _, db := range snapshot.SortedKeys(snap.Plan.Collections) {
        cols := snap.Plan.Collections[db]
        for _, cid := range snapshot.SortedKeys(cols) {
            col := cols[cid]
            for _, shard := range col.SortedShards() {
                planned := col.Shards[shard]
                if len(planned) == 0 { continue }
                cur, ok := snap.CurrentShard(db, cid, shard)
                if !ok { continue }
                leader := cur.Leader()
                var missing []string
                if col.EffectiveReplicationFactor(planned) > 1 {
                    var followers []string
                    if len(cur.Servers) > 1 { followers = cur.Servers[1:] }
                    for _, p := range planned[1:] {
                        if !contains(followers, p) { missing = append(missing, p) }
                    }
                }
                if leader == planned[0] && len(missing) == 0 { continue }
                f.OutOfSyncFollowers = append(f.OutOfSyncFollowers, OutOfSync{
                    CollectionRef: CollectionRef{Database: db, CollectionID: cid, Collection: col.Name},
                    Shard:         shard,
                    PlannedLeader: planned[0],
                    CurrentLeader: leader,
                    Missing:       clone(missing),
                    Planned:       clone(planned),
                    Current:       clone(cur.Servers),
                })
                if len(missing) > 0 && leader != "" { risk[leader]++ }
            }
        }
    }
    for _, srv := range snapshot.SortedKeys(risk) {
        f.ServerRisk = append(f.ServerRisk, ServerRisk{Server: srv, Shards: risk[srv]})
    }
    sort.SliceStable(f.ServerRisk, func(i, j int) bool { return f.ServerRisk[i].Shards > f.ServerRisk[j].Shards })
}
