package analysis

import (
    "sort"

    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

type groupKey struct {
    db         string
    realLeader string
}

type groupMember struct {
    cid    string
    col    snapshot.Collection
    shards []string // natural order
}

// distGroup is the set of collections sharing placement through
// distributeShardsLike.
type distGroup struct {
    key      groupKey
    members  []groupMember // natural order of cid
    baseline int
}

// searchKey identifies a shard needing a failover recommendation.
type searchKey struct {
    db    string
    cid   string
    shard string
}

type failoverSearch struct {
    searchKey
    group    *distGroup
    member   int
    position int
    leader   string
}

// buildGroups groups planned collections by (database, real leader). The
// baseline of each group is the real leader itself when it is a member,
// otherwise the member with the lowest id.
func buildGroups(snap *snapshot.Snapshot) []*distGroup {
    byKey := make(map[groupKey]*distGroup)
    var keys []groupKey
    for _, db := range snapshot.SortedKeys(snap.Plan.Collections) {
        cols := snap.Plan.Collections[db]
        for _, cid := range snapshot.SortedKeys(cols) {
            col := cols[cid]
            if !col.HasShards() { continue }
            k := groupKey{db: db, realLeader: col.RealLeader()}
            g, ok := byKey[k]
            if !ok {
                g = &distGroup{key: k}
                byKey[k] = g
                keys = append(keys, k)
            }
            g.members = append(g.members, groupMember{cid: cid, col: col, shards: col.SortedShards()})
        }
    }
    sort.SliceStable(keys, func(i, j int) bool {
        if keys[i].db != keys[j].db { return snapshot.CompareNatural(keys[i].db, keys[j].db) < 0 }
        return snapshot.CompareNatural(keys[i].realLeader, keys[j].realLeader) < 0
    })
    out := make([]*distGroup, 0, len(keys))
    for _, k := range keys {
        g := byKey[k]
        for i, m := range g.members {
            if m.cid == k.realLeader { g.baseline = i; break }
        }
        out = append(out, g)
    }
    return out
}

// distributionGroups checks placement equality within every group and the
// in-sync state of every shard, then ranks failover candidates for shards
// whose dead leader has no in-sync follower.
func distributionGroups(in Input, f *Findings) {
    snap := in.Snapshot
    searches := newRecordSet[searchKey]()
    var pending []failoverSearch
    for _, g := range buildGroups(snap) {
        base := g.members[g.baseline]
        for mi, m := range g.members {
            ref := CollectionRef{Database: g.key.db, CollectionID: m.cid, Collection: m.col.Name}
            if mi != g.baseline {
                f.ViolatedDistShardLike = append(f.ViolatedDistShardLike, compareLayout(g, ref, m, base)...)
            }
            for p, shard := range m.shards {
                planned := m.col.Shards[shard]
                cur, ok := snap.CurrentShard(g.key.db, m.cid, shard)
                if !ok || len(planned) == 0 { continue }
                if l := cur.Leader(); l != "" && l != planned[0] {
                    f.UnplannedLeader = append(f.UnplannedLeader, UnplannedLeader{CollectionRef: ref, Shard: shard, Planned: planned[0], Current: l})
                }
                rf := m.col.EffectiveReplicationFactor(planned)
                if rf <= 1 || len(cur.Servers) > 1 { continue }
                gap := InsyncGap{
                    CollectionRef:     ref,
                    RealLeader:        g.key.realLeader,
                    Shard:             shard,
                    ReplicationFactor: rf,
                    Planned:           clone(planned),
                    Current:           clone(cur.Servers),
                }
                f.NoInsyncFollower = append(f.NoInsyncFollower, gap)
                if in.Live.Alive(cur.Leader()) { continue }
                k := searchKey{db: g.key.db, cid: m.cid, shard: shard}
                if !searches.Add(k) { continue }
                f.NoInsyncAndDeadLeader = append(f.NoInsyncAndDeadLeader, gap)
                pending = append(pending, failoverSearch{searchKey: k, group: g, member: mi, position: p, leader: cur.Leader()})
            }
        }
    }
    for _, s := range pending {
        f.FailoverCandidates = append(f.FailoverCandidates, rankFailover(in, s))
    }
}

func compareLayout(g *distGroup, ref CollectionRef, m, base groupMember) []DistViolation {
    var out []DistViolation
    n := len(m.shards)
    if len(base.shards) > n { n = len(base.shards) }
    for p := 0; p < n; p++ {
        var shard, baseShard string
        var servers, baseServers []string
        if p < len(m.shards) { shard = m.shards[p]; servers = m.col.Shards[shard] }
        if p < len(base.shards) { baseShard = base.shards[p]; baseServers = base.col.Shards[baseShard] }
        if shard != "" && baseShard != "" && equalStrings(servers, baseServers) { continue }
        out = append(out, DistViolation{
            CollectionRef:      ref,
            RealLeader:         g.key.realLeader,
            Shard:              shard,
            Servers:            clone(servers),
            BaselineCollection: base.cid,
            BaselineShard:      baseShard,
            BaselineServers:    clone(baseServers),
        })
    }
    return out
}

// rankFailover scores every live planned server of the shard by the number
// of sibling shards (same group, same position) that currently list it as a
// replica. Ties keep the planned order.
func rankFailover(in Input, s failoverSearch) FailoverRecommendation {
    m := s.group.members[s.member]
    rec := FailoverRecommendation{
        CollectionRef: CollectionRef{Database: s.db, CollectionID: s.cid, Collection: m.col.Name},
        Shard:         s.shard,
        Leader:        s.leader,
        Candidates:    []FailoverCandidate{},
    }
    type sibling struct{ cid, shard string }
    var siblings []sibling
    for i, o := range s.group.members {
        if i == s.member || s.position >= len(o.shards) { continue }
        siblings = append(siblings, sibling{cid: o.cid, shard: o.shards[s.position]})
    }
    rec.Siblings = len(siblings)
    seen := newRecordSet[string]()
    for _, srv := range m.col.Shards[s.shard] {
        if !in.Live.Alive(srv) || !seen.Add(srv) { continue }
        c := FailoverCandidate{Server: srv, Missing: []string{}}
        for _, sib := range siblings {
            cur, ok := in.Snapshot.CurrentShard(s.db, sib.cid, sib.shard)
            if ok && contains(cur.Servers, srv) {
                c.InSync++
            } else {
                c.Missing = append(c.Missing, sib.shard)
            }
        }
        rec.Candidates = append(rec.Candidates, c)
    }
    sort.SliceStable(rec.Candidates, func(i, j int) bool { return rec.Candidates[i].InSync > rec.Candidates[j].InSync })
    return rec
}
