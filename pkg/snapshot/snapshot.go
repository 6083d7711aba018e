package snapshot

import (
    "encoding/json"
)

// Health statuses reported by the supervision job.
const (
    StatusGood   = "GOOD"
    StatusBad    = "BAD"
    StatusFailed = "FAILED"
)

// Collection types as stored in Plan.
const (
    TypeDocument = 2
    TypeEdge     = 3
)

// Snapshot is a read-only, point-in-time copy of the agency tree. Sections
// that were absent or could not be decoded are left empty and noted in
// Warnings, so every analyzer can still run against the remaining data.
type Snapshot struct {
    Plan        Plan
    Current     Current
    Supervision Supervision
    Target      Target
    // Callbacks are the pending agency callbacks taken from the stores
    // document, if one was supplied.
    Callbacks []Callback
    // Warnings lists sections that were present but malformed.
    Warnings []string
}

// Plan is the desired topology.
type Plan struct {
    Databases    map[string]json.RawMessage
    Collections  map[string]map[string]Collection
    Coordinators map[string]json.RawMessage
}

// Current is the topology as last reported by the servers.
type Current struct {
    Databases    map[string]map[string]json.RawMessage
    Collections  map[string]map[string]map[string]CurrentShard
    Coordinators map[string]json.RawMessage
}

// Supervision carries the liveness view of the agency supervision.
type Supervision struct {
    Health map[string]HealthRecord
}

// Target holds pending administrative intent.
type Target struct {
    CleanedServers []string
}

// HealthRecord is one entry of Supervision/Health.
type HealthRecord struct {
    Status    string `json:"Status"`
    Endpoint  string `json:"Endpoint"`
    ShortName string `json:"ShortName,omitempty"`
}

// CurrentShard is the reported state of one shard.
type CurrentShard struct {
    Servers            []string `json:"servers"`
    FailoverCandidates []string `json:"failoverCandidates,omitempty"`
}

// Leader returns the reported leader, or "" when no server reported.
func (c CurrentShard) Leader() string {
    if len(c.Servers) == 0 { return "" }
    return c.Servers[0]
}

// Callback is a registered agency observer.
type Callback struct {
    Key string `json:"key"`
    URL string `json:"url"`
}

// PlanDatabaseExists reports whether Plan/Databases has an entry for db.
func (s *Snapshot) PlanDatabaseExists(db string) bool {
    if s == nil { return false }
    _, ok := s.Plan.Databases[db]
    return ok
}

// PlanCollection looks up a planned collection by database and id.
func (s *Snapshot) PlanCollection(db, cid string) (Collection, bool) {
    if s == nil { return Collection{}, false }
    cols, ok := s.Plan.Collections[db]
    if !ok { return Collection{}, false }
    c, ok := cols[cid]
    return c, ok
}

// CurrentShard looks up the reported state of a shard. A miss means the shard
// has not been observed yet.
func (s *Snapshot) CurrentShard(db, cid, shard string) (CurrentShard, bool) {
    if s == nil { return CurrentShard{}, false }
    shards, ok := s.Current.Collections[db][cid]
    if !ok { return CurrentShard{}, false }
    cs, ok := shards[shard]
    return cs, ok
}

// DatabaseNames returns the union of database names seen in Plan and Current,
// in natural order.
func (s *Snapshot) DatabaseNames() []string {
    if s == nil { return nil }
    set := make(map[string]struct{})
    for db := range s.Plan.Databases { set[db] = struct{}{} }
    for db := range s.Plan.Collections { set[db] = struct{}{} }
    for db := range s.Current.Databases { set[db] = struct{}{} }
    for db := range s.Current.Collections { set[db] = struct{}{} }
    return SortedKeys(set)
}

// ShardCount returns the number of shards reported in Current for db.
func (s *Snapshot) ShardCount(db string) int {
    if s == nil { return 0 }
    n := 0
    for _, shards := range s.Current.Collections[db] { n += len(shards) }
    return n
}
