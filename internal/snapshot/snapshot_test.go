package snapshot

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/holdfast/internal/engine"
	"github.com/talgya/holdfast/internal/entropy"
	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/stronghold"
)

func testSim(t *testing.T) *engine.Simulation {
	t.Helper()
	src := entropy.NewSequence(0.5)
	sim := engine.NewSimulation(stronghold.NewService(nil, src), legacy.NewService(src, nil), nil)
	for _, a := range []engine.Action{
		engine.FoundStronghold{ID: "keep", Name: "Greywatch", Type: stronghold.TypeCastle},
		engine.RecruitStaff{StrongholdID: "keep", Name: "Bram", Role: stronghold.RoleGuard},
		engine.InitLegacy{FamilyName: "Ashford"},
	} {
		if err := sim.Dispatch(a); err != nil {
			t.Fatalf("%s: %v", a.ActionName(), err)
		}
	}
	sim.TickDay(1)
	sim.TickDay(2)
	return sim
}

func TestWriteAndRead(t *testing.T) {
	sim := testSim(t)
	path := filepath.Join(t.TempDir(), "snaps", "day2.snap.zst")

	if err := Write(path, FromSimulation(sim, 42)); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Header != (Header{Version: Version, Day: 2, Seed: 42}) {
		t.Fatalf("unexpected header %+v", snap.Header)
	}
	if !reflect.DeepEqual(snap.Strongholds, sim.Strongholds) {
		t.Fatalf("strongholds differ:\n got %+v\nwant %+v", snap.Strongholds, sim.Strongholds)
	}
	if snap.Legacy == nil || snap.Legacy.FamilyName != "Ashford" {
		t.Fatalf("legacy not restored: %+v", snap.Legacy)
	}

	restored := engine.NewSimulation(nil, nil, nil)
	snap.Restore(restored)
	if restored.Day != 2 || restored.Strongholds["keep"].Resources.Gold != sim.Strongholds["keep"].Resources.Gold {
		t.Fatalf("restore mismatch: day %d", restored.Day)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	sim := testSim(t)
	snap := FromSimulation(sim, 1)
	gold := snap.Strongholds["keep"].Resources.Gold

	sim.TickDay(3)
	if snap.Strongholds["keep"].Resources.Gold != gold || snap.Header.Day != 2 {
		t.Fatal("snapshot changed after a later tick")
	}
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.zst")
	if err := Write(path, Snapshot{Header: Header{Version: Version, Day: 9, Seed: 3}}); err != nil {
		t.Fatal(err)
	}
	hdr, err := ReadHeader(path)
	if err != nil || hdr.Day != 9 || hdr.Seed != 3 {
		t.Fatalf("unexpected header %+v (%v)", hdr, err)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	if err := os.WriteFile(path, []byte("not a snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v9.zst")
	if err := Write(path, Snapshot{Header: Header{Version: 9}}); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected version error")
	}
}

func TestFailedWriteKeepsPreviousSnapshot(t *testing.T) {
	sim := testSim(t)
	path := filepath.Join(t.TempDir(), "s.zst")
	if err := Write(path, FromSimulation(sim, 42)); err != nil {
		t.Fatal(err)
	}

	bad := FromSimulation(sim, 43)
	keep := bad.Strongholds["keep"]
	keep.TaxRate = math.NaN()
	bad.Strongholds["keep"] = keep
	if err := Write(path, bad); err == nil {
		t.Fatal("expected encode error")
	}

	hdr, err := ReadHeader(path)
	if err != nil || hdr.Seed != 42 {
		t.Fatalf("previous snapshot lost: %+v (%v)", hdr, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
