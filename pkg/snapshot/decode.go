package snapshot

import (
    "bytes"
    "encoding/json"
    "errors"
    "fmt"
    "sort"

    "sigs.k8s.io/yaml"
)

var (
    ErrEmptyInput = errors.New("snapshot: empty input")
    ErrNoSnapshot = errors.New("snapshot: no Plan, Current, Supervision or Target section found")
)

// AgencyPrefix is the root key of the agency tree in dumps.
const AgencyPrefix = "arango"

// Decode parses an agency dump. It accepts a tree rooted at {"arango": ...},
// a bare tree with Plan/Current/Supervision/Target at the top, or a stores
// document whose read_db holds the tree and the observer table.
func Decode(data []byte) (*Snapshot, error) {
    root, callbacks, err := unwrap(data)
    if err != nil { return nil, err }
    s, err := decodeTree(root)
    if err != nil { return nil, err }
    s.Callbacks = callbacks
    return s, nil
}

// DecodePair parses a dump together with a separate stores document from
// which only the pending callbacks are taken.
func DecodePair(dump, stores []byte) (*Snapshot, error) {
    s, err := Decode(dump)
    if err != nil { return nil, err }
    if len(bytes.TrimSpace(stores)) == 0 { return s, nil }
    _, callbacks, err := unwrap(stores)
    if err != nil && !errors.Is(err, ErrNoSnapshot) {
        return nil, fmt.Errorf("stores: %w", err)
    }
    s.Callbacks = callbacks
    return s, nil
}

// FromYAML converts a YAML document to JSON and decodes it.
func FromYAML(data []byte) (*Snapshot, error) {
    js, err := yamlToJSON(data)
    if err != nil { return nil, err }
    return Decode(js)
}

func yamlToJSON(data []byte) ([]byte, error) {
    js, err := yaml.YAMLToJSON(data)
    if err != nil { return nil, fmt.Errorf("snapshot: yaml: %w", err) }
    return js, nil
}

func unwrap(data []byte) (map[string]json.RawMessage, []Callback, error) {
    if len(bytes.TrimSpace(data)) == 0 { return nil, nil, ErrEmptyInput }
    var top map[string]json.RawMessage
    if err := json.Unmarshal(data, &top); err != nil {
        return nil, nil, fmt.Errorf("snapshot: decode: %w", err)
    }
    var callbacks []Callback
    if rdb, ok := top["read_db"]; ok {
        var parts []json.RawMessage
        if err := json.Unmarshal(rdb, &parts); err != nil {
            return nil, nil, fmt.Errorf("snapshot: decode read_db: %w", err)
        }
        if len(parts) == 0 { return nil, nil, ErrNoSnapshot }
        if len(parts) > 1 { callbacks = decodeCallbacks(parts[1]) }
        top = nil
        if err := json.Unmarshal(parts[0], &top); err != nil {
            return nil, nil, fmt.Errorf("snapshot: decode read_db tree: %w", err)
        }
    }
    if inner, ok := top[AgencyPrefix]; ok {
        var root map[string]json.RawMessage
        if err := json.Unmarshal(inner, &root); err != nil {
            return nil, nil, fmt.Errorf("snapshot: decode %s: %w", AgencyPrefix, err)
        }
        top = root
    }
    for _, k := range []string{"Plan", "Current", "Supervision", "Target"} {
        if _, ok := top[k]; ok { return top, callbacks, nil }
    }
    return nil, callbacks, ErrNoSnapshot
}

// decodeCallbacks reads the observer table: agency key -> callback URLs.
func decodeCallbacks(raw json.RawMessage) []Callback {
    var table map[string][]string
    if err := json.Unmarshal(raw, &table); err != nil { return nil }
    var out []Callback
    for _, key := range SortedKeys(table) {
        urls := append([]string(nil), table[key]...)
        sort.Strings(urls)
        for _, u := range urls { out = append(out, Callback{Key: key, URL: u}) }
    }
    return out
}

// decodeTree decodes each section on its own; a malformed section is
// recorded in Warnings and left empty.
func decodeTree(root map[string]json.RawMessage) (*Snapshot, error) {
    s := &Snapshot{}
    plan := s.section(root, "Plan")
    s.field(plan, "Plan", "Databases", &s.Plan.Databases)
    s.field(plan, "Plan", "Coordinators", &s.Plan.Coordinators)
    s.Plan.Collections = s.planCollections(plan)

    cur := s.section(root, "Current")
    s.field(cur, "Current", "Databases", &s.Current.Databases)
    s.Current.Collections = s.currentCollections(cur)
    s.field(cur, "Current", "Coordinators", &s.Current.Coordinators)

    sup := s.section(root, "Supervision")
    s.field(sup, "Supervision", "Health", &s.Supervision.Health)

    tgt := s.section(root, "Target")
    s.field(tgt, "Target", "CleanedServers", &s.Target.CleanedServers)
    return s, nil
}

func (s *Snapshot) section(root map[string]json.RawMessage, name string) map[string]json.RawMessage {
    raw, ok := root[name]
    if !ok { return nil }
    var out map[string]json.RawMessage
    if err := json.Unmarshal(raw, &out); err != nil {
        s.warnf("%s: %v", name, err)
        return nil
    }
    return out
}

func (s *Snapshot) field(sec map[string]json.RawMessage, secName, name string, dst any) {
    raw, ok := sec[name]
    if !ok { return }
    if err := json.Unmarshal(raw, dst); err != nil {
        s.warnf("%s/%s: %v", secName, name, err)
        _ = json.Unmarshal([]byte("null"), dst)
    }
}

// object decodes raw as a JSON object. A value of another type is recorded
// in Warnings under path.
func (s *Snapshot) object(path string, raw json.RawMessage) (map[string]json.RawMessage, bool) {
    var out map[string]json.RawMessage
    if err := json.Unmarshal(raw, &out); err != nil {
        s.warnf("%s: %v", path, err)
        return nil, false
    }
    return out, true
}

// planCollections decodes Plan/Collections one collection at a time. A
// collection with malformed attributes is kept with those attributes zeroed.
func (s *Snapshot) planCollections(plan map[string]json.RawMessage) map[string]map[string]Collection {
    raw, ok := plan["Collections"]
    if !ok { return nil }
    dbs, ok := s.object("Plan/Collections", raw)
    if !ok || dbs == nil { return nil }
    out := make(map[string]map[string]Collection, len(dbs))
    for _, db := range SortedKeys(dbs) {
        path := "Plan/Collections/" + db
        entries, ok := s.object(path, dbs[db])
        if !ok { continue }
        cols := make(map[string]Collection, len(entries))
        for _, cid := range SortedKeys(entries) {
            c, attrErrs, err := decodeCollection(entries[cid])
            if err != nil {
                s.warnf("%s/%s: %v", path, cid, err)
                continue
            }
            for _, e := range attrErrs { s.warnf("%s/%s/%v", path, cid, e) }
            if c.ID == "" { c.ID = cid }
            cols[cid] = c
        }
        out[db] = cols
    }
    return out
}

// currentCollections decodes Current/Collections one shard at a time.
func (s *Snapshot) currentCollections(cur map[string]json.RawMessage) map[string]map[string]map[string]CurrentShard {
    raw, ok := cur["Collections"]
    if !ok { return nil }
    dbs, ok := s.object("Current/Collections", raw)
    if !ok || dbs == nil { return nil }
    out := make(map[string]map[string]map[string]CurrentShard, len(dbs))
    for _, db := range SortedKeys(dbs) {
        entries, ok := s.object("Current/Collections/"+db, dbs[db])
        if !ok { continue }
        cols := make(map[string]map[string]CurrentShard, len(entries))
        for _, cid := range SortedKeys(entries) {
            path := "Current/Collections/" + db + "/" + cid
            shards, ok := s.object(path, entries[cid])
            if !ok { continue }
            states := make(map[string]CurrentShard, len(shards))
            for _, shard := range SortedKeys(shards) {
                var cs CurrentShard
                if err := json.Unmarshal(shards[shard], &cs); err != nil {
                    s.warnf("%s/%s: %v", path, shard, err)
                    continue
                }
                states[shard] = cs
            }
            cols[cid] = states
        }
        out[db] = cols
    }
    return out
}

func (s *Snapshot) warnf(format string, args ...any) {
    s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}
