package analysis

import (
    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// zombieCoordinators reports coordinators running in Current but absent
// from Plan.
func zombieCoordinators(in Input, f *Findings) {
    planned := in.Snapshot.Plan.Coordinators
    for _, id := range snapshot.SortedKeys(in.Snapshot.Current.Coordinators) {
        if _, ok := planned[id]; ok { continue }
        f.ZombieCoordinators = append(f.ZombieCoordinators, ZombieCoordinator{Coordinator: id})
    }
}

// collectionIntegrity walks every planned collection once: orphaned
// collections, shardless collections, dangling distributeShardsLike
// pointers and shard placements on dead servers.
func collectionIntegrity(in Input, f *Findings) {
    snap := in.Snapshot
    placements := newRecordSet[ShardServer]()
    for _, db := range snapshot.SortedKeys(snap.Plan.Collections) {
        cols := snap.Plan.Collections[db]
        for _, cid := range snapshot.SortedKeys(cols) {
            col := cols[cid]
            ref := CollectionRef{Database: db, CollectionID: cid, Collection: col.Name}
            if !snap.PlanDatabaseExists(db) {
                f.NoPlanDatabases = append(f.NoPlanDatabases, ref)
                continue
            }
            if !col.HasShards() && !col.IsSmart {
                f.NoShardCollections = append(f.NoShardCollections, ref)
                continue
            }
            if dsl := col.DistributeShardsLike; dsl != "" {
                if _, ok := cols[dsl]; !ok {
                    f.RealLeaderMissing = append(f.RealLeaderMissing, RealLeaderMissing{CollectionRef: ref, DistributeShardsLike: dsl})
                }
            }
            for _, shard := range col.SortedShards() {
                for i, srv := range col.Shards[shard] {
                    if in.Live.Alive(srv) { continue }
                    rec := ShardServer{CollectionRef: ref, Shard: shard, Server: srv, Position: i}
                    if !placements.Add(rec) { continue }
                    if i == 0 {
                        f.LeaderOnDeadServer = append(f.LeaderOnDeadServer, rec)
                    } else {
                        f.FollowerOnDeadServer = append(f.FollowerOnDeadServer, rec)
                    }
                }
            }
        }
    }
}
