package snapshot

import (
    "reflect"
    "testing"
)

func TestCompareNatural(t *testing.T) {
    cases := []struct {
        a, b string
        want int
    }{
        {"s9", "s10", -1},
        {"s100", "s99", 1},
        {"s010", "s10", -1},
        {"10", "9", 1},
        {"a", "b", -1},
        {"s1", "s1", 0},
        {"s1", "s1a", -1},
        {"PRMR-2", "PRMR-10", -1},
    }
    for _, tc := range cases {
        if got := CompareNatural(tc.a, tc.b); got != tc.want {
            t.Fatalf("CompareNatural(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
        }
        if got := CompareNatural(tc.b, tc.a); got != -tc.want {
            t.Fatalf("CompareNatural(%q, %q) not antisymmetric", tc.b, tc.a)
        }
    }
}

func TestSortedKeys(t *testing.T) {
    m := map[string]int{"s10": 1, "s2": 1, "s1": 1, "t": 1}
    if got := SortedKeys(m); !reflect.DeepEqual(got, []string{"s1", "s2", "s10", "t"}) { t.Fatalf("keys: %v", got) }
    if got := SortedKeys(map[string]int(nil)); len(got) != 0 { t.Fatalf("nil map: %v", got) }
}
