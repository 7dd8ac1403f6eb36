// Package snapshot writes compressed point-in-time copies of the game state.
//
// A snapshot file is a zstd stream holding one JSON header line followed by
// the JSON body, so the header can be inspected without decoding the rest.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/holdfast/internal/engine"
	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/stronghold"
)

// Version is the current snapshot format.
const Version = 1

// Header is the first line of a snapshot file.
type Header struct {
	Version int    `json:"version"`
	Day     uint64 `json:"day"`
	Seed    int64  `json:"seed"`
}

// Snapshot is the saved game state.
type Snapshot struct {
	Header      Header                           `json:"header"`
	Strongholds map[string]stronghold.Stronghold `json:"strongholds"`
	Legacy      *legacy.Legacy                   `json:"legacy,omitempty"`
}

// FromSimulation captures the simulation state. The stronghold map is
// copied so later ticks do not leak into the snapshot.
func FromSimulation(sim *engine.Simulation, seed int64) Snapshot {
	holds := make(map[string]stronghold.Stronghold, len(sim.Strongholds))
	for id, h := range sim.Strongholds {
		holds[id] = h.Clone()
	}
	var l *legacy.Legacy
	if sim.Legacy != nil {
		c := sim.Legacy.Clone()
		l = &c
	}
	return Snapshot{
		Header:      Header{Version: Version, Day: sim.Day, Seed: seed},
		Strongholds: holds,
		Legacy:      l,
	}
}

// Restore loads the snapshot into sim, replacing its state.
func (s Snapshot) Restore(sim *engine.Simulation) {
	sim.Strongholds = make(map[string]stronghold.Stronghold, len(s.Strongholds))
	for id, h := range s.Strongholds {
		sim.Strongholds[id] = h.Clone()
	}
	sim.Legacy = nil
	if s.Legacy != nil {
		c := s.Legacy.Clone()
		sim.Legacy = &c
	}
	sim.Day = s.Header.Day
}

// Write stores snap at path. The file is written to path+".tmp" and renamed
// into place, so a failed write leaves the previous snapshot intact.
func Write(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(w io.Writer, snap Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Read decodes the snapshot at path, rejecting unknown format versions.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	return snap, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return hdr, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, fmt.Errorf("decode header: %w", err)
	}
	return hdr, nil
}
