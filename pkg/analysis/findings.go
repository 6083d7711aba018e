package analysis

import (
    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// CollectionRef names a planned collection.
type CollectionRef struct {
    Database     string `json:"database"`
    CollectionID string `json:"cid"`
    Collection   string `json:"name"`
}

// ZombieCoordinator is a coordinator running without being planned.
type ZombieCoordinator struct {
    Coordinator string `json:"coordinator"`
}

// RealLeaderMissing is a collection whose distributeShardsLike target does
// not exist in its database.
type RealLeaderMissing struct {
    CollectionRef
    DistributeShardsLike string `json:"distributeShardsLike"`
}

// ShardServer is a planned shard placement on a dead server.
type ShardServer struct {
    CollectionRef
    Shard    string `json:"shard"`
    Server   string `json:"server"`
    Position int    `json:"position"`
}

// DistViolation is a shard whose planned servers differ from the shard at
// the same position of its group's baseline collection.
type DistViolation struct {
    CollectionRef
    RealLeader         string   `json:"realLeader"`
    Shard              string   `json:"shard"`
    Servers            []string `json:"servers"`
    BaselineCollection string   `json:"baselineCid"`
    BaselineShard      string   `json:"baselineShard"`
    BaselineServers    []string `json:"baselineServers"`
}

// UnplannedLeader is a shard led by a server other than the planned one.
type UnplannedLeader struct {
    CollectionRef
    Shard   string `json:"shard"`
    Planned string `json:"plannedLeader"`
    Current string `json:"currentLeader"`
}

// InsyncGap is a replicated shard with no in-sync follower.
type InsyncGap struct {
    CollectionRef
    RealLeader        string   `json:"realLeader"`
    Shard             string   `json:"shard"`
    ReplicationFactor int      `json:"replicationFactor"`
    Planned           []string `json:"planned"`
    Current           []string `json:"current"`
}

// FailoverCandidate is a live server ranked by how many sibling shards of
// the same distribution group it is currently in sync for.
type FailoverCandidate struct {
    Server  string   `json:"server"`
    InSync  int      `json:"inSync"`
    Missing []string `json:"missing"`
}

// FailoverRecommendation ranks failover targets for a shard whose leader is
// dead and which has no in-sync follower.
type FailoverRecommendation struct {
    CollectionRef
    Shard      string              `json:"shard"`
    Leader     string              `json:"deadLeader"`
    Siblings   int                 `json:"siblings"`
    Candidates []FailoverCandidate `json:"candidates"`
}

// OutOfSync is a shard whose observed replica set diverges from the plan.
type OutOfSync struct {
    CollectionRef
    Shard         string   `json:"shard"`
    PlannedLeader string   `json:"plannedLeader"`
    CurrentLeader string   `json:"currentLeader"`
    Missing       []string `json:"missingFollowers"`
    Planned       []string `json:"planned"`
    Current       []string `json:"current"`
}

// ServerRisk counts under-replicated shards led by a server.
type ServerRisk struct {
    Server string `json:"server"`
    Shards int    `json:"shards"`
}

// DeadPrimary is a dead server still holding a slot in Current/Databases.
type DeadPrimary struct {
    Database string `json:"database"`
    Server   string `json:"server"`
}

// EmptyDatabase is a database without collections or shards.
type EmptyDatabase struct {
    Database  string `json:"database"`
    InPlan    bool   `json:"inPlan"`
    InCurrent bool   `json:"inCurrent"`
}

// MissingSystemCollection is a required system collection absent from Plan.
type MissingSystemCollection struct {
    Database   string `json:"database"`
    Collection string `json:"collection"`
}

// CandidatePatch replaces a failoverCandidates list that still names
// cleaned-out servers.
type CandidatePatch struct {
    Path      string   `json:"path"`
    Corrected []string `json:"corrected"`
    Original  []string `json:"original"`
}

// EdgeIndexFix replaces a corrupted combined edge index with the two
// canonical ones.
type EdgeIndexFix struct {
    CollectionRef
    Path string           `json:"path"`
    Bad  []snapshot.Index `json:"bad"`
    Good []snapshot.Index `json:"good"`
}

// ZombieCallback is a pending agency callback addressed to a failed server.
type ZombieCallback struct {
    Key      string `json:"key"`
    URL      string `json:"url"`
    Endpoint string `json:"endpoint"`
}

// Findings accumulates the results of one analysis run. Every slice is
// appended to by exactly one analyzer and never modified afterwards.
type Findings struct {
    ZombieCoordinators        []ZombieCoordinator       `json:"zombieCoordinators"`
    NoPlanDatabases           []CollectionRef           `json:"noPlanDatabases"`
    NoShardCollections        []CollectionRef           `json:"noShardCollections"`
    RealLeaderMissing         []RealLeaderMissing       `json:"realLeaderMissing"`
    LeaderOnDeadServer        []ShardServer             `json:"leaderOnDeadServer"`
    FollowerOnDeadServer      []ShardServer             `json:"followerOnDeadServer"`
    ViolatedDistShardLike     []DistViolation           `json:"violatedDistShardLike"`
    UnplannedLeader           []UnplannedLeader         `json:"unplannedLeader"`
    NoInsyncFollower          []InsyncGap               `json:"noInsyncFollower"`
    NoInsyncAndDeadLeader     []InsyncGap               `json:"noInsyncAndDeadLeader"`
    FailoverCandidates        []FailoverRecommendation  `json:"failoverCandidates"`
    OutOfSyncFollowers        []OutOfSync               `json:"outOfSyncFollowers"`
    ServerRisk                []ServerRisk              `json:"serverRisk"`
    DeadPrimaries             []DeadPrimary             `json:"deadPrimaries"`
    EmptyDatabases            []EmptyDatabase           `json:"emptyDatabases"`
    MissingSystemCollections  []MissingSystemCollection `json:"missingSystemCollections"`
    CleanedFailoverCandidates []CandidatePatch          `json:"cleanedFailoverCandidates"`
    BrokenEdgeIndexes         []EdgeIndexFix            `json:"brokenEdgeIndexes"`
    ZombieCallbacks           []ZombieCallback          `json:"zombieCallbacks"`
}

// Infected reports whether any non-informational section has findings.
func (f *Findings) Infected() bool {
    for _, s := range f.Sections() {
        if !s.Informational && s.Len > 0 { return true }
    }
    return false
}

// Total counts findings over all non-informational sections.
func (f *Findings) Total() int {
    n := 0
    for _, s := range f.Sections() {
        if !s.Informational { n += s.Len }
    }
    return n
}
