package domain

import (
	"reflect"
	"testing"
)

func TestHubSet_Normalize(t *testing.T) {
	hs := NewHubSet("Orion", " Nebula ", "", "orion", "Titan")

	if got := hs.Names(); !reflect.DeepEqual(got, []string{"Orion", "Nebula", "Titan"}) {
		t.Fatalf("Names() = %v", got)
	}

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Orion", "Orion", true},
		{"ORION", "Orion", true},
		{"  nebula ", "Nebula", true},
		{"titan", "Titan", true},
		{"Orio", "", false},
		{"Orion Hub", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := hs.Normalize(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("Normalize(%q) = (%q,%v); want (%q,%v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHubSet_NilAndDefaults(t *testing.T) {
	var hs *HubSet
	if _, ok := hs.Normalize("Orion"); ok {
		t.Fatalf("nil set must not match")
	}
	if hs.Names() != nil {
		t.Fatalf("nil set has no names")
	}
	def := NewHubSet(DefaultHubs...)
	if n, ok := def.Normalize("orion"); !ok || n != "Orion" {
		t.Fatalf("default hubs should include Orion, got %q %v", n, ok)
	}
}
