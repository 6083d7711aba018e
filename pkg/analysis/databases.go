package analysis

import (
    "strings"

    "github.com/amirimatin/cluster-doctor/pkg/snapshot"
)

// SystemDatabase is the database that carries the server-wide system
// collections.
const SystemDatabase = "_system"

// SystemPrefix marks system collection names.
const SystemPrefix = "_"

// RequiredSystemCollections exist in every database.
var RequiredSystemCollections = []string{
    "_analyzers", "_appbundles", "_apps", "_aqlfunctions",
    "_frontend", "_graphs", "_jobs", "_queues",
}

// SystemOnlyCollections exist only in the _system database.
var SystemOnlyCollections = []string{
    "_statistics", "_statistics15", "_statisticsRaw", "_users",
}

// deadPrimaries reports dead servers still listed under a database in
// Current/Databases.
func deadPrimaries(in Input, f *Findings) {
    dbs := in.Snapshot.Current.Databases
    for _, db := range snapshot.SortedKeys(dbs) {
        for _, srv := range snapshot.SortedKeys(dbs[db]) {
            if in.Live.Alive(srv) { continue }
            f.DeadPrimaries = append(f.DeadPrimaries, DeadPrimary{Database: db, Server: srv})
        }
    }
}

// emptyDatabases reports databases with neither planned collections nor
// reported shards.
func emptyDatabases(in Input, f *Findings) {
    snap := in.Snapshot
    for _, db := range snap.DatabaseNames() {
        if len(snap.Plan.Collections[db]) > 0 || snap.ShardCount(db) > 0 { continue }
        _, inCurrent := snap.Current.Databases[db]
        f.EmptyDatabases = append(f.EmptyDatabases, EmptyDatabase{
            Database:  db,
            InPlan:    snap.PlanDatabaseExists(db),
            InCurrent: inCurrent,
        })
    }
}

// missingSystemCollections compares the system collections planned for
// each database against the required set.
func missingSystemCollections(in Input, f *Findings) {
    snap := in.Snapshot
    for _, db := range snapshot.SortedKeys(snap.Plan.Databases) {
        have := make(map[string]struct{})
        for _, col := range snap.Plan.Collections[db] {
            if strings.HasPrefix(col.Name, SystemPrefix) { have[col.Name] = struct{}{} }
        }
        for _, name := range requiredFor(db) {
            if _, ok := have[name]; ok { continue }
            f.MissingSystemCollections = append(f.MissingSystemCollections, MissingSystemCollection{Database: db, Collection: name})
        }
    }
}

func requiredFor(db string) []string {
    out := append([]string(nil), RequiredSystemCollections...)
    if db == SystemDatabase { out = append(out, SystemOnlyCollections...) }
    return out
}
