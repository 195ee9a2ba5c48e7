package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultHubs is the hub enumeration used when none is configured.
var DefaultHubs = []string{"Orion", "Nebula", "Titan"}

// HubSet is a closed enumeration of hub names fixed at process start.
// Lookups are case-insensitive and return the canonical spelling.
type HubSet struct {
	names []string
	byKey map[string]string
}

// NewHubSet builds a HubSet from the given names. Blank entries and
// case-insensitive duplicates are dropped; the first spelling wins.
func NewHubSet(names ...string) *HubSet {
	hs := &HubSet{byKey: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := foldKey(n)
		if _, dup := hs.byKey[k]; dup {
			continue
		}
		hs.byKey[k] = n
		hs.names = append(hs.names, n)
	}
	return hs
}

// Normalize maps raw to its canonical hub name. The match is an exact,
// case-insensitive comparison after trimming surrounding space.
func (hs *HubSet) Normalize(raw string) (string, bool) {
	if hs == nil {
		return "", false
	}
	n, ok := hs.byKey[foldKey(strings.TrimSpace(raw))]
	return n, ok
}

// Names returns the canonical hub names in configuration order.
func (hs *HubSet) Names() []string {
	if hs == nil {
		return nil
	}
	out := make([]string, len(hs.names))
	copy(out, hs.names)
	return out
}

func foldKey(s string) string {
	return cases.Fold().String(s)
}
