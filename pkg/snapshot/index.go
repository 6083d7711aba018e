package snapshot

import (
    "encoding/json"
)

// Index is one entry of a planned collection's index list. Attributes that
// are not modelled explicitly are kept in Extra and written back unchanged.
// Fields that are not a list of attribute names, such as the field objects of
// inverted indexes, stay in Extra and leave Fields nil.
type Index struct {
    ID     string
    Type   string
    Name   string
    Fields []string
    Unique bool
    Sparse bool
    Extra  map[string]json.RawMessage
}

var indexKnown = map[string]struct{}{
    "id": {}, "type": {}, "name": {}, "fields": {}, "unique": {}, "sparse": {},
}

func (ix *Index) UnmarshalJSON(data []byte) error {
    var raw map[string]json.RawMessage
    if err := json.Unmarshal(data, &raw); err != nil { return err }
    var out Index
    out.ID = rawID(raw["id"])
    if v, ok := raw["type"]; ok { _ = json.Unmarshal(v, &out.Type) }
    if v, ok := raw["name"]; ok { _ = json.Unmarshal(v, &out.Name) }
    if v, ok := raw["fields"]; ok {
        if err := json.Unmarshal(v, &out.Fields); err == nil {
            delete(raw, "fields")
        } else {
            out.Fields = nil
        }
    }
    if v, ok := raw["unique"]; ok { _ = json.Unmarshal(v, &out.Unique) }
    if v, ok := raw["sparse"]; ok { _ = json.Unmarshal(v, &out.Sparse) }
    for k, v := range raw {
        if _, known := indexKnown[k]; known && k != "fields" { continue }
        if out.Extra == nil { out.Extra = make(map[string]json.RawMessage) }
        out.Extra[k] = v
    }
    *ix = out
    return nil
}

// MarshalJSON merges the modelled attributes over Extra. Keys come out
// sorted, so equal indexes always encode to equal bytes.
func (ix Index) MarshalJSON() ([]byte, error) {
    m := make(map[string]any, len(ix.Extra)+6)
    for k, v := range ix.Extra { m[k] = v }
    m["id"] = ix.ID
    m["type"] = ix.Type
    if ix.Name != "" { m["name"] = ix.Name }
    if _, raw := ix.Extra["fields"]; !raw || ix.Fields != nil {
        fields := ix.Fields
        if fields == nil { fields = []string{} }
        m["fields"] = fields
    }
    m["unique"] = ix.Unique
    m["sparse"] = ix.Sparse
    return json.Marshal(m)
}
