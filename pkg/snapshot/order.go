package snapshot

import (
    "sort"
)

// SortedKeys returns the keys of m in natural order.
func SortedKeys[V any](m map[string]V) []string {
    out := make([]string, 0, len(m))
    for k := range m { out = append(out, k) }
    sort.Slice(out, func(i, j int) bool { return CompareNatural(out[i], out[j]) < 0 })
    return out
}

// CompareNatural orders strings so that runs of digits compare by numeric
// value: "s99" < "s100", "9" < "10". Agency ids and shard names are
// allocated from a counter, so this matches allocation order.
func CompareNatural(a, b string) int {
    i, j := 0, 0
    for i < len(a) && j < len(b) {
        ca, cb := a[i], b[j]
        if isDigit(ca) && isDigit(cb) {
            si, sj := i, j
            for i < len(a) && isDigit(a[i]) { i++ }
            for j < len(b) && isDigit(b[j]) { j++ }
            na, nb := trimZeros(a[si:i]), trimZeros(b[sj:j])
            if len(na) != len(nb) {
                if len(na) < len(nb) { return -1 }
                return 1
            }
            if na != nb {
                if na < nb { return -1 }
                return 1
            }
            continue
        }
        if ca != cb {
            if ca < cb { return -1 }
            return 1
        }
        i++
        j++
    }
    switch {
    case len(a)-i < len(b)-j:
        return -1
    case len(a)-i > len(b)-j:
        return 1
    }
    // equal under natural order; fall back to bytes so the order is total
    switch {
    case a < b:
        return -1
    case a > b:
        return 1
    }
    return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func trimZeros(s string) string {
    for len(s) > 1 && s[0] == '0' { s = s[1:] }
    return s
}
