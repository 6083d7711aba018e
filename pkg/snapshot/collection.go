package snapshot

import (
    "bytes"
    "encoding/json"
    "errors"
    "fmt"
    "strconv"
    "strings"
)

// Collection is a planned collection.
type Collection struct {
    ID                   string
    Name                 string
    ReplicationFactor    ReplicationFactor
    NumberOfShards       int
    Type                 int
    IsSmart              bool
    DistributeShardsLike string
    // Shards maps shard name to its planned servers, leader first.
    Shards map[string][]string
    // ShardsMalformed is set when the shards attribute was present but not a
    // mapping of server lists.
    ShardsMalformed bool
    Indexes         []Index
}

// AttrError reports one attribute of a planned collection that could not be
// decoded. The attribute is left at its zero value.
type AttrError struct {
    Attr string
    Err  error
}

func (e *AttrError) Error() string { return e.Attr + ": " + e.Err.Error() }

func (e *AttrError) Unwrap() error { return e.Err }

// decodeCollection decodes a planned collection attribute by attribute so
// that one malformed attribute does not hide the placement of the rest. It
// fails only when data is not an object.
func decodeCollection(data []byte) (Collection, []error, error) {
    var raw map[string]json.RawMessage
    if err := json.Unmarshal(data, &raw); err != nil { return Collection{}, nil, err }
    var (
        c    Collection
        errs []error
    )
    attr := func(name string, dst any) {
        v, ok := raw[name]
        if !ok { return }
        if err := json.Unmarshal(v, dst); err != nil {
            errs = append(errs, &AttrError{Attr: name, Err: err})
        }
    }
    c.ID = rawID(raw["id"])
    attr("name", &c.Name)
    attr("replicationFactor", &c.ReplicationFactor)
    attr("numberOfShards", &c.NumberOfShards)
    attr("type", &c.Type)
    attr("isSmart", &c.IsSmart)
    attr("distributeShardsLike", &c.DistributeShardsLike)

    if v := raw["shards"]; len(v) > 0 && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
        if err := json.Unmarshal(v, &c.Shards); err != nil {
            c.Shards = nil
            c.ShardsMalformed = true
        }
    }

    var indexes []json.RawMessage
    attr("indexes", &indexes)
    for i, v := range indexes {
        var ix Index
        if err := json.Unmarshal(v, &ix); err != nil {
            errs = append(errs, &AttrError{Attr: fmt.Sprintf("indexes/%d", i), Err: err})
            continue
        }
        c.Indexes = append(c.Indexes, ix)
    }
    return c, errs, nil
}

// UnmarshalJSON decodes a collection, tolerating a malformed shards
// attribute. Other malformed attributes are zeroed and reported together
// after the rest of the collection has been decoded.
func (c *Collection) UnmarshalJSON(data []byte) error {
    out, errs, err := decodeCollection(data)
    if err != nil { return err }
    *c = out
    return errors.Join(errs...)
}

// MarshalJSON emits the collection in the agency layout.
func (c Collection) MarshalJSON() ([]byte, error) {
    return json.Marshal(struct {
        ID                   string              `json:"id"`
        Name                 string              `json:"name"`
        ReplicationFactor    ReplicationFactor   `json:"replicationFactor"`
        NumberOfShards       int                 `json:"numberOfShards"`
        Type                 int                 `json:"type"`
        IsSmart              bool                `json:"isSmart,omitempty"`
        DistributeShardsLike string              `json:"distributeShardsLike,omitempty"`
        Shards               map[string][]string `json:"shards"`
        Indexes              []Index             `json:"indexes"`
    }{c.ID, c.Name, c.ReplicationFactor, c.NumberOfShards, c.Type, c.IsSmart, c.DistributeShardsLike, c.Shards, c.Indexes})
}

// HasShards reports whether the collection has a usable shard map.
func (c Collection) HasShards() bool { return !c.ShardsMalformed && len(c.Shards) > 0 }

// RealLeader returns the id of the collection whose shard placement this
// collection follows; a collection without distributeShardsLike leads itself.
func (c Collection) RealLeader() string {
    if c.DistributeShardsLike != "" { return c.DistributeShardsLike }
    return c.ID
}

// SortedShards returns the shard names in natural order.
func (c Collection) SortedShards() []string { return SortedKeys(c.Shards) }

// EffectiveReplicationFactor resolves satellite collections, and collections
// without a replicationFactor, to the number of planned servers of a shard.
func (c Collection) EffectiveReplicationFactor(planned []string) int {
    if c.ReplicationFactor <= 0 { return len(planned) }
    return int(c.ReplicationFactor)
}

// ReplicationFactor is a replica count, or Satellite.
type ReplicationFactor int

// Satellite is the decoded value of replicationFactor "satellite".
const Satellite ReplicationFactor = -1

// IsSatellite reports whether the factor means "replicate to every server".
func (r ReplicationFactor) IsSatellite() bool { return r == Satellite }

func (r *ReplicationFactor) UnmarshalJSON(data []byte) error {
    s := strings.TrimSpace(string(data))
    if s == "null" || s == "" { *r = 0; return nil }
    if strings.HasPrefix(s, `"`) {
        var str string
        if err := json.Unmarshal(data, &str); err != nil { return err }
        if strings.EqualFold(str, "satellite") { *r = Satellite; return nil }
        n, err := strconv.Atoi(str)
        if err != nil { return fmt.Errorf("snapshot: bad replicationFactor %q", str) }
        *r = ReplicationFactor(n)
        return nil
    }
    var n int
    if err := json.Unmarshal(data, &n); err != nil { return err }
    *r = ReplicationFactor(n)
    return nil
}

func (r ReplicationFactor) MarshalJSON() ([]byte, error) {
    if r.IsSatellite() { return []byte(`"satellite"`), nil }
    if r == 0 { return []byte("null"), nil }
    return []byte(strconv.Itoa(int(r))), nil
}

// rawID accepts ids encoded as strings or numbers.
func rawID(raw json.RawMessage) string {
    if len(raw) == 0 { return "" }
    var s string
    if err := json.Unmarshal(raw, &s); err == nil { return s }
    return strings.TrimSpace(string(raw))
}
