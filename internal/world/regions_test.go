package world

import "testing"

func TestDangerIsStableAndBounded(t *testing.T) {
	r := NewRegions(42)
	again := NewRegions(42)
	for _, loc := range []string{"loc_a", "loc_b", "greyhollow", "the-marches", "x"} {
		d := r.Danger(loc)
		if d < 0 || d > MaxDanger {
			t.Fatalf("danger for %s out of range: %d", loc, d)
		}
		if d != r.Danger(loc) || d != again.Danger(loc) {
			t.Fatalf("danger for %s is not stable", loc)
		}
	}
}

func TestNilRegionsArePeaceful(t *testing.T) {
	var r *Regions
	if d := r.Danger("anywhere"); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
	if d := NewRegions(1).Danger(""); d != 0 {
		t.Fatalf("expected 0 for empty location, got %d", d)
	}
}
