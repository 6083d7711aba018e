package snapshot

import (
    "encoding/json"
    "errors"
    "reflect"
    "strings"
    "testing"
)

const tree = `{"Plan":{"Databases":{"db":{}},"Collections":{"db":{"17":{"id":17,"name":"c","replicationFactor":"satellite","shards":{"s2":["A"],"s10":["B"]}}}}},
"Current":{"Collections":{"db":{"17":{"s2":{"servers":["A"],"failoverCandidates":["A","X"]}}}}},
"Supervision":{"Health":{"A":{"Status":"GOOD","Endpoint":"tcp://a:8530"}}},
"Target":{"CleanedServers":["X"]}}`

func TestDecodeShapes(t *testing.T) {
    cases := []struct {
        name string
        in   string
        cbs  int
    }{
        {"bare", tree, 0},
        {"prefixed", `{"arango":` + tree + `}`, 0},
        {"stores", `{"read_db":[{"arango":` + tree + `},{"/arango/Plan":["http://a:8530/cb"]}]}`, 1},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            s, err := Decode([]byte(tc.in))
            if err != nil { t.Fatalf("decode: %v", err) }
            if len(s.Warnings) != 0 { t.Fatalf("warnings: %v", s.Warnings) }
            c, ok := s.PlanCollection("db", "17")
            if !ok { t.Fatalf("collection missing") }
            if c.ID != "17" || !c.ReplicationFactor.IsSatellite() { t.Fatalf("collection: %+v", c) }
            if got := c.SortedShards(); !reflect.DeepEqual(got, []string{"s2", "s10"}) { t.Fatalf("shards: %v", got) }
            if c.EffectiveReplicationFactor(c.Shards["s2"]) != 1 { t.Fatalf("satellite rf must follow planned servers") }
            cur, ok := s.CurrentShard("db", "17", "s2")
            if !ok || cur.Leader() != "A" { t.Fatalf("current: %+v %v", cur, ok) }
            if _, ok := s.CurrentShard("db", "17", "s10"); ok { t.Fatalf("s10 was never reported") }
            if !reflect.DeepEqual(s.Target.CleanedServers, []string{"X"}) { t.Fatalf("target: %+v", s.Target) }
            if len(s.Callbacks) != tc.cbs { t.Fatalf("callbacks: %+v", s.Callbacks) }
        })
    }
}

func TestDecodeErrors(t *testing.T) {
    if _, err := Decode([]byte("  ")); !errors.Is(err, ErrEmptyInput) { t.Fatalf("want ErrEmptyInput, got %v", err) }
    if _, err := Decode([]byte(`{"foo":1}`)); !errors.Is(err, ErrNoSnapshot) { t.Fatalf("want ErrNoSnapshot, got %v", err) }
    if _, err := Decode([]byte(`[`)); err == nil { t.Fatalf("want syntax error") }
}

func TestMalformedSectionsAreSkipped(t *testing.T) {
    s, err := Decode([]byte(`{"Plan":{"Databases":{"db":{}},"Coordinators":[1,2],"Collections":{"db":{
        "1":{"name":"ok","shards":{"s1":["A"]}},
        "2":{"name":"bad","replicationFactor":"many"}
    }}},"Current":"nope","Supervision":{"Health":{"A":{"Status":"GOOD"}}}}`))
    if err != nil { t.Fatalf("decode: %v", err) }
    if len(s.Warnings) != 3 { t.Fatalf("warnings: %v", s.Warnings) }
    if s.Plan.Coordinators != nil { t.Fatalf("coordinators must be reset: %v", s.Plan.Coordinators) }
    if _, ok := s.PlanCollection("db", "1"); !ok { t.Fatalf("good collection dropped") }
    bad, ok := s.PlanCollection("db", "2")
    if !ok || bad.Name != "bad" || bad.ReplicationFactor != 0 { t.Fatalf("collection with a bad attribute: %+v %v", bad, ok) }
    if !s.PlanDatabaseExists("db") || len(s.Supervision.Health) != 1 { t.Fatalf("healthy sections lost: %+v", s) }
    for _, w := range s.Warnings {
        if !strings.HasPrefix(w, "Plan/") && !strings.HasPrefix(w, "Current") { t.Fatalf("unexpected warning %q", w) }
    }
    if !strings.HasPrefix(s.Warnings[1], "Plan/Collections/db/2/replicationFactor: ") { t.Fatalf("warning path: %q", s.Warnings[1]) }
}

func TestMalformedAttributesKeepPlacement(t *testing.T) {
    s, err := Decode([]byte(`{"Plan":{"Collections":{"db":{
        "C1":{"name":"c1","replicationFactor":2,"distributeShardsLike":"C0","isSmart":"yes",
              "shards":{"s1":["A","B"]},"indexes":[{"id":"0","type":"primary","fields":["_key"]},7]}
    }}}}`))
    if err != nil { t.Fatalf("decode: %v", err) }
    if len(s.Warnings) != 2 { t.Fatalf("warnings: %v", s.Warnings) }
    c, ok := s.PlanCollection("db", "C1")
    if !ok { t.Fatalf("collection dropped") }
    if c.DistributeShardsLike != "C0" || c.ReplicationFactor != 2 || c.IsSmart { t.Fatalf("collection: %+v", c) }
    if !reflect.DeepEqual(c.Shards["s1"], []string{"A", "B"}) || len(c.Indexes) != 1 { t.Fatalf("collection: %+v", c) }
}

func TestCurrentDecodedPerShard(t *testing.T) {
    s, err := Decode([]byte(`{"Current":{"Collections":{
        "db":{"C1":{"s1":{"servers":["A","B"]},"s2":{"servers":"A"}},"C2":[]},
        "broken":7
    }}}`))
    if err != nil { t.Fatalf("decode: %v", err) }
    want := []string{
        "Current/Collections/broken: ",
        "Current/Collections/db/C1/s2: ",
        "Current/Collections/db/C2: ",
    }
    if len(s.Warnings) != len(want) { t.Fatalf("warnings: %v", s.Warnings) }
    for i, w := range want {
        if !strings.HasPrefix(s.Warnings[i], w) { t.Fatalf("warning %d: %q", i, s.Warnings[i]) }
    }
    cur, ok := s.CurrentShard("db", "C1", "s1")
    if !ok || !reflect.DeepEqual(cur.Servers, []string{"A", "B"}) { t.Fatalf("s1: %+v %v", cur, ok) }
    if _, ok := s.CurrentShard("db", "C1", "s2"); ok { t.Fatalf("malformed shard kept") }
}

func TestMalformedShardsFlagged(t *testing.T) {
    var c Collection
    if err := json.Unmarshal([]byte(`{"id":"5","shards":["s1"]}`), &c); err != nil { t.Fatalf("unmarshal: %v", err) }
    if !c.ShardsMalformed || c.HasShards() { t.Fatalf("collection: %+v", c) }
}

func TestReplicationFactor(t *testing.T) {
    cases := []struct {
        in   string
        want ReplicationFactor
    }{
        {`3`, 3},
        {`"2"`, 2},
        {`"satellite"`, Satellite},
        {`null`, 0},
    }
    for _, tc := range cases {
        var r ReplicationFactor
        if err := json.Unmarshal([]byte(tc.in), &r); err != nil { t.Fatalf("%s: %v", tc.in, err) }
        if r != tc.want { t.Fatalf("%s: got %d want %d", tc.in, r, tc.want) }
    }
}

func TestIndexKeepsUnknownAttributes(t *testing.T) {
    in := `{"fields":["_from","_to"],"id":"1","selectivityEstimate":1,"type":"edge"}`
    var ix Index
    if err := json.Unmarshal([]byte(in), &ix); err != nil { t.Fatalf("unmarshal: %v", err) }
    if ix.ID != "1" || ix.Type != "edge" || len(ix.Fields) != 2 { t.Fatalf("index: %+v", ix) }
    out, err := json.Marshal(ix)
    if err != nil { t.Fatalf("marshal: %v", err) }
    if string(out) != `{"fields":["_from","_to"],"id":"1","selectivityEstimate":1,"sparse":false,"type":"edge","unique":false}` {
        t.Fatalf("marshal: %s", out)
    }
}

func TestIndexWithFieldObjects(t *testing.T) {
    in := `{"fields":[{"name":"title","analyzer":"text_en"}],"id":"9","name":"search","type":"inverted"}`
    var ix Index
    if err := json.Unmarshal([]byte(in), &ix); err != nil { t.Fatalf("unmarshal: %v", err) }
    if ix.Fields != nil || ix.Type != "inverted" || ix.Name != "search" { t.Fatalf("index: %+v", ix) }
    out, err := json.Marshal(ix)
    if err != nil { t.Fatalf("marshal: %v", err) }
    want := `{"fields":[{"name":"title","analyzer":"text_en"}],"id":"9","name":"search","sparse":false,"type":"inverted","unique":false}`
    if string(out) != want { t.Fatalf("marshal: %s", out) }
}

func TestDecodePairTakesCallbacksFromStores(t *testing.T) {
    stores := `{"read_db":[{},{"/arango/Current":["http://b:8530/x","http://a:8530/y"]}]}`
    s, err := DecodePair([]byte(tree), []byte(stores))
    if err != nil { t.Fatalf("decode: %v", err) }
    want := []Callback{{Key: "/arango/Current", URL: "http://a:8530/y"}, {Key: "/arango/Current", URL: "http://b:8530/x"}}
    if !reflect.DeepEqual(s.Callbacks, want) { t.Fatalf("callbacks: %+v", s.Callbacks) }
}

func TestFromYAML(t *testing.T) {
    s, err := FromYAML([]byte("arango:\n  Supervision:\n    Health:\n      A:\n        Status: GOOD\n"))
    if err != nil { t.Fatalf("yaml: %v", err) }
    if s.Supervision.Health["A"].Status != StatusGood { t.Fatalf("health: %+v", s.Supervision.Health) }
}

func TestDatabaseNamesUnion(t *testing.T) {
    s, err := Decode([]byte(`{"Plan":{"Databases":{"db10":{},"db2":{}}},"Current":{"Databases":{"db3":{}}}}`))
    if err != nil { t.Fatalf("decode: %v", err) }
    if got := s.DatabaseNames(); !reflect.DeepEqual(got, []string{"db2", "db3", "db10"}) { t.Fatalf("names: %v", got) }
}
