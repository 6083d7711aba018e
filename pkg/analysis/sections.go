package analysis

import (
    "strconv"
    "strings"
)

// Section is a uniform view of one finding collection, shared by the
// reporter and the remediation exporter.
type Section struct {
    Key   string
    Title string
    // Columns and Rows are the tabular rendering of the records.
    Columns []string
    Rows    [][]string
    Len     int
    // Informational sections are rendered but never make a run infected and
    // never produce an artifact.
    Informational bool
    // Artifact is the file name of the remediation artifact and Task the
    // repair task that consumes it.
    Artifact string
    Task     string
    Payload  any
}

// Sections returns every finding collection in report order.
func (f *Findings) Sections() []Section {
    return []Section{
        {
            Key: "zombieCoordinators", Title: "Coordinators running without a plan entry",
            Columns: []string{"coordinator"}, Rows: rowsOf(f.ZombieCoordinators, func(r ZombieCoordinator) []string { return []string{r.Coordinator} }),
            Len: len(f.ZombieCoordinators), Artifact: "zombie-coordinators.json", Task: "remove-zombie-coordinators", Payload: f.ZombieCoordinators,
        },
        {
            Key: "noPlanDatabases", Title: "Collections whose database is not planned",
            Columns: refColumns(), Rows: rowsOf(f.NoPlanDatabases, refRow),
            Len: len(f.NoPlanDatabases), Artifact: "zombie-collections.json", Task: "remove-zombie-collections", Payload: f.NoPlanDatabases,
        },
        {
            Key: "noShardCollections", Title: "Collections without shards",
            Columns: refColumns(), Rows: rowsOf(f.NoShardCollections, refRow),
            Len: len(f.NoShardCollections), Artifact: "shardless-collections.json", Task: "remove-shardless-collections", Payload: f.NoShardCollections,
        },
        {
            Key: "realLeaderMissing", Title: "Collections following a missing distributeShardsLike leader",
            Columns: append(refColumns(), "distributeShardsLike"),
            Rows: rowsOf(f.RealLeaderMissing, func(r RealLeaderMissing) []string { return append(refRow(r.CollectionRef), r.DistributeShardsLike) }),
            Len: len(f.RealLeaderMissing), Artifact: "missing-real-leaders.json", Task: "repair-distribute-shards-like", Payload: f.RealLeaderMissing,
        },
        {
            Key: "leaderOnDeadServer", Title: "Shard leaders planned on dead servers",
            Columns: append(refColumns(), "shard", "server"), Rows: rowsOf(f.LeaderOnDeadServer, shardServerRow),
            Len: len(f.LeaderOnDeadServer), Artifact: "leaders-on-dead-servers.json", Task: "move-leaders-off-dead-servers", Payload: f.LeaderOnDeadServer,
        },
        {
            Key: "followerOnDeadServer", Title: "Shard followers planned on dead servers",
            Columns: append(refColumns(), "shard", "server"), Rows: rowsOf(f.FollowerOnDeadServer, shardServerRow),
            Len: len(f.FollowerOnDeadServer), Artifact: "followers-on-dead-servers.json", Task: "remove-dead-followers", Payload: f.FollowerOnDeadServer,
        },
        {
            Key: "violatedDistShardLike", Title: "Shard groups whose placement differs from the group baseline",
            Columns: append(refColumns(), "shard", "servers", "baseline", "baseline servers"),
            Rows: rowsOf(f.ViolatedDistShardLike, func(r DistViolation) []string {
                return append(refRow(r.CollectionRef), dash(r.Shard), list(r.Servers), r.BaselineCollection+"/"+dash(r.BaselineShard), list(r.BaselineServers))
            }),
            Len: len(f.ViolatedDistShardLike), Artifact: "violated-distribute-shards-like.json", Task: "realign-shard-groups", Payload: f.ViolatedDistShardLike,
        },
        {
            Key: "unplannedLeader", Title: "Shards led by an unplanned server",
            Columns: append(refColumns(), "shard", "planned", "current"),
            Rows: rowsOf(f.UnplannedLeader, func(r UnplannedLeader) []string { return append(refRow(r.CollectionRef), r.Shard, r.Planned, r.Current) }),
            Len: len(f.UnplannedLeader), Artifact: "unplanned-leaders.json", Task: "restore-planned-leaders", Payload: f.UnplannedLeader,
        },
        {
            Key: "noInsyncFollower", Title: "Replicated shards without an in-sync follower",
            Columns: append(refColumns(), "shard", "rf", "planned", "current"), Rows: rowsOf(f.NoInsyncFollower, gapRow),
            Len: len(f.NoInsyncFollower), Artifact: "no-insync-followers.json", Task: "resync-followers", Payload: f.NoInsyncFollower,
        },
        {
            Key: "noInsyncAndDeadLeader", Title: "Shards with a dead leader and no in-sync follower",
            Columns: append(refColumns(), "shard", "rf", "planned", "current"), Rows: rowsOf(f.NoInsyncAndDeadLeader, gapRow),
            Len: len(f.NoInsyncAndDeadLeader), Artifact: "forced-failover-candidates.json", Task: "force-failover", Payload: f.FailoverCandidates,
        },
        {
            Key: "failoverCandidates", Title: "Forced failover candidates (most in-sync siblings first)",
            Columns: append(refColumns(), "shard", "candidate", "in sync", "missing"),
            Rows: candidateRows(f.FailoverCandidates),
            Len: len(f.FailoverCandidates), Informational: true,
        },
        {
            Key: "outOfSyncFollowers", Title: "Shards out of sync with their plan",
            Columns: append(refColumns(), "shard", "planned leader", "current leader", "missing followers"),
            Rows: rowsOf(f.OutOfSyncFollowers, func(r OutOfSync) []string {
                return append(refRow(r.CollectionRef), r.Shard, r.PlannedLeader, dash(r.CurrentLeader), list(r.Missing))
            }),
            Len: len(f.OutOfSyncFollowers), Artifact: "out-of-sync-followers.json", Task: "resync-followers", Payload: f.OutOfSyncFollowers,
        },
        {
            Key: "serverRisk", Title: "Under-replicated shards per leader",
            Columns: []string{"server", "shards"},
            Rows: rowsOf(f.ServerRisk, func(r ServerRisk) []string { return []string{r.Server, strconv.Itoa(r.Shards)} }),
            Len: len(f.ServerRisk), Informational: true,
        },
        {
            Key: "deadPrimaries", Title: "Dead servers still registered in Current/Databases",
            Columns: []string{"database", "server"},
            Rows: rowsOf(f.DeadPrimaries, func(r DeadPrimary) []string { return []string{r.Database, r.Server} }),
            Len: len(f.DeadPrimaries), Artifact: "dead-primaries.json", Task: "remove-dead-primaries", Payload: f.DeadPrimaries,
        },
        {
            Key: "emptyDatabases", Title: "Databases without collections or shards",
            Columns: []string{"database", "in plan", "in current"},
            Rows: rowsOf(f.EmptyDatabases, func(r EmptyDatabase) []string {
                return []string{r.Database, strconv.FormatBool(r.InPlan), strconv.FormatBool(r.InCurrent)}
            }),
            Len: len(f.EmptyDatabases), Artifact: "empty-databases.json", Task: "remove-empty-databases", Payload: f.EmptyDatabases,
        },
        {
            Key: "missingSystemCollections", Title: "Missing system collections",
            Columns: []string{"database", "collection"},
            Rows: rowsOf(f.MissingSystemCollections, func(r MissingSystemCollection) []string { return []string{r.Database, r.Collection} }),
            Len: len(f.MissingSystemCollections), Artifact: "missing-system-collections.json", Task: "create-missing-system-collections", Payload: f.MissingSystemCollections,
        },
        {
            Key: "cleanedFailoverCandidates", Title: "Failover candidates naming cleaned-out servers",
            Columns: []string{"path", "corrected", "original"},
            Rows: rowsOf(f.CleanedFailoverCandidates, func(r CandidatePatch) []string { return []string{r.Path, list(r.Corrected), list(r.Original)} }),
            Len: len(f.CleanedFailoverCandidates), Artifact: "cleaned-failover-candidates.json", Task: "remove-cleaned-failover-candidates",
            Payload: candidatePatchPayload(f.CleanedFailoverCandidates),
        },
        {
            Key: "brokenEdgeIndexes", Title: "Collections with a combined edge index",
            Columns: append(refColumns(), "indexes (bad)", "indexes (good)"),
            Rows: rowsOf(f.BrokenEdgeIndexes, func(r EdgeIndexFix) []string {
                return append(refRow(r.CollectionRef), strconv.Itoa(len(r.Bad)), strconv.Itoa(len(r.Good)))
            }),
            Len: len(f.BrokenEdgeIndexes), Artifact: "broken-edge-indexes.json", Task: "fix-broken-edge-indexes", Payload: f.BrokenEdgeIndexes,
        },
        {
            Key: "zombieCallbacks", Title: "Callbacks registered on failed servers",
            Columns: []string{"key", "url"},
            Rows: rowsOf(f.ZombieCallbacks, func(r ZombieCallback) []string { return []string{r.Key, r.URL} }),
            Len: len(f.ZombieCallbacks), Artifact: "zombie-callbacks.json", Task: "remove-zombie-callbacks", Payload: f.ZombieCallbacks,
        },
    }
}

// candidatePatchPayload keys each patch by its agency path; the value is
// [corrected, original].
func candidatePatchPayload(patches []CandidatePatch) map[string][2][]string {
    out := make(map[string][2][]string, len(patches))
    for _, p := range patches {
        out[p.Path] = [2][]string{clone(p.Corrected), clone(p.Original)}
    }
    return out
}

func candidateRows(recs []FailoverRecommendation) [][]string {
    var rows [][]string
    for _, r := range recs {
        if len(r.Candidates) == 0 {
            rows = append(rows, append(refRow(r.CollectionRef), r.Shard, "-", "-", "-"))
            continue
        }
        for _, c := range r.Candidates {
            rows = append(rows, append(refRow(r.CollectionRef), r.Shard, c.Server,
                strconv.Itoa(c.InSync)+"/"+strconv.Itoa(r.Siblings), list(c.Missing)))
        }
    }
    return rows
}

func rowsOf[T any](recs []T, row func(T) []string) [][]string {
    rows := make([][]string, 0, len(recs))
    for _, r := range recs { rows = append(rows, row(r)) }
    return rows
}

func refColumns() []string { return []string{"database", "cid", "name"} }

func refRow(r CollectionRef) []string { return []string{r.Database, r.CollectionID, r.Collection} }

func shardServerRow(r ShardServer) []string { return append(refRow(r.CollectionRef), r.Shard, r.Server) }

func gapRow(r InsyncGap) []string {
    return append(refRow(r.CollectionRef), r.Shard, strconv.Itoa(r.ReplicationFactor), list(r.Planned), list(r.Current))
}

func list(s []string) string {
    if len(s) == 0 { return "-" }
    return strings.Join(s, ",")
}

func dash(s string) string {
    if s == "" { return "-" }
    return s
}
