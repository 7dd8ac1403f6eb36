// Package persistence provides SQLite-based game state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/holdfast/internal/engine"
	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/report"
	"github.com/talgya/holdfast/internal/stronghold"
)

// Meta keys.
const (
	MetaLastDay = "last_day"
	MetaSeed    = "seed"
)

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS strongholds (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL,
		location_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		supplies INTEGER NOT NULL,
		influence INTEGER NOT NULL,
		intel INTEGER NOT NULL,
		daily_income INTEGER NOT NULL,
		tax_rate REAL NOT NULL,
		staff_json TEXT NOT NULL,
		upgrades_json TEXT NOT NULL,
		queue_json TEXT NOT NULL,
		threats_json TEXT NOT NULL,
		missions_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS legacy (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		family_name TEXT NOT NULL,
		legacy_score INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		sender TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		type TEXT NOT NULL,
		stronghold_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_stronghold ON messages(stronghold_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// strongholdRow is the table layout of a stronghold.
type strongholdRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	Type         string  `db:"type"`
	LocationID   string  `db:"location_id"`
	Level        int     `db:"level"`
	Gold         int     `db:"gold"`
	Supplies     int     `db:"supplies"`
	Influence    int     `db:"influence"`
	Intel        int     `db:"intel"`
	DailyIncome  int     `db:"daily_income"`
	TaxRate      float64 `db:"tax_rate"`
	StaffJSON    string  `db:"staff_json"`
	UpgradesJSON string  `db:"upgrades_json"`
	QueueJSON    string  `db:"queue_json"`
	ThreatsJSON  string  `db:"threats_json"`
	MissionsJSON string  `db:"missions_json"`
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// SaveStrongholds writes all strongholds to the database (full replace).
func (db *DB) SaveStrongholds(holds map[string]stronghold.Stronghold) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM strongholds"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO strongholds
		(id, name, description, type, location_id, level, gold, supplies, influence, intel,
		 daily_income, tax_rate, staff_json, upgrades_json, queue_json, threats_json, missions_json)
		VALUES (:id, :name, :description, :type, :location_id, :level, :gold, :supplies, :influence, :intel,
		 :daily_income, :tax_rate, :staff_json, :upgrades_json, :queue_json, :threats_json, :missions_json)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range holds {
		row := strongholdRow{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Type:        string(s.Type),
			LocationID:  s.LocationID,
			Level:       s.Level,
			Gold:        s.Resources.Gold,
			Supplies:    s.Resources.Supplies,
			Influence:   s.Resources.Influence,
			Intel:       s.Resources.Intel,
			DailyIncome: s.DailyIncome,
			TaxRate:     s.TaxRate,
		}
		cols := []struct {
			dst *string
			v   any
		}{
			{&row.StaffJSON, s.Staff},
			{&row.UpgradesJSON, s.Upgrades},
			{&row.QueueJSON, s.ConstructionQueue},
			{&row.ThreatsJSON, s.Threats},
			{&row.MissionsJSON, s.Missions},
		}
		for _, c := range cols {
			if *c.dst, err = marshal(c.v); err != nil {
				return fmt.Errorf("encode stronghold %s: %w", s.ID, err)
			}
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert stronghold %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// LoadStrongholds reads every stronghold.
func (db *DB) LoadStrongholds() (map[string]stronghold.Stronghold, error) {
	var rows []strongholdRow
	if err := db.conn.Select(&rows, "SELECT * FROM strongholds ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select strongholds: %w", err)
	}

	out := make(map[string]stronghold.Stronghold, len(rows))
	for _, r := range rows {
		s := stronghold.Stronghold{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Type:        stronghold.Type(r.Type),
			LocationID:  r.LocationID,
			Level:       r.Level,
			Resources: stronghold.Resources{
				Gold:      r.Gold,
				Supplies:  r.Supplies,
				Influence: r.Influence,
				Intel:     r.Intel,
			},
			DailyIncome: r.DailyIncome,
			TaxRate:     r.TaxRate,
		}
		cols := []struct {
			src string
			dst any
		}{
			{r.StaffJSON, &s.Staff},
			{r.UpgradesJSON, &s.Upgrades},
			{r.QueueJSON, &s.ConstructionQueue},
			{r.ThreatsJSON, &s.Threats},
			{r.MissionsJSON, &s.Missions},
		}
		for _, c := range cols {
			if err := json.Unmarshal([]byte(c.src), c.dst); err != nil {
				return nil, fmt.Errorf("decode stronghold %s: %w", r.ID, err)
			}
		}
		out[s.ID] = s
	}
	return out, nil
}

// SaveLegacy stores the legacy document, or clears it when l is nil.
func (db *DB) SaveLegacy(l *legacy.Legacy) error {
	if l == nil {
		_, err := db.conn.Exec("DELETE FROM legacy")
		return err
	}
	data, err := marshal(l)
	if err != nil {
		return fmt.Errorf("encode legacy: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO legacy (id, family_name, legacy_score, data_json) VALUES (1, ?, ?, ?)",
		l.FamilyName, l.LegacyScore, data,
	)
	return err
}

// LoadLegacy returns the stored legacy, or nil if none was saved.
func (db *DB) LoadLegacy() (*legacy.Legacy, error) {
	var data string
	err := db.conn.Get(&data, "SELECT data_json FROM legacy WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select legacy: %w", err)
	}
	var l legacy.Legacy
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, fmt.Errorf("decode legacy: %w", err)
	}
	return &l, nil
}

type messageRow struct {
	ID           string `db:"id"`
	Text         string `db:"text"`
	Sender       string `db:"sender"`
	Timestamp    string `db:"timestamp"`
	Type         string `db:"type"`
	StrongholdID string `db:"stronghold_id"`
}

// SaveMessages appends messages, skipping any already stored.
func (db *DB) SaveMessages(msgs []report.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range msgs {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO messages (id, text, sender, timestamp, type, stronghold_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Text, m.Sender, m.Timestamp.UTC().Format(time.RFC3339), m.Metadata.Type, m.Metadata.StrongholdID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentMessages returns the most recent N messages, newest first.
func (db *DB) RecentMessages(limit int) ([]report.Message, error) {
	var rows []messageRow
	err := db.conn.Select(&rows,
		"SELECT id, text, sender, timestamp, type, stronghold_id FROM messages ORDER BY seq DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]report.Message, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("message %s timestamp: %w", r.ID, err)
		}
		out = append(out, report.Message{
			ID:        r.ID,
			Text:      r.Text,
			Sender:    r.Sender,
			Timestamp: ts,
			Metadata:  report.Metadata{Type: r.Type, StrongholdID: r.StrongholdID},
		})
	}
	return out, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasState reports whether a game has been saved.
func (db *DB) HasState() bool {
	_, err := db.GetMeta(MetaLastDay)
	return err == nil
}

// LastDay returns the last saved day, or 0.
func (db *DB) LastDay() uint64 {
	v, err := db.GetMeta(MetaLastDay)
	if err != nil {
		return 0
	}
	day, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		slog.Warn("bad last_day meta", "value", v, "err", err)
		return 0
	}
	return day
}

// SaveState performs a full save of the game state.
func (db *DB) SaveState(sim *engine.Simulation) error {
	slog.Info("saving game state", "day", sim.Day, "strongholds", len(sim.Strongholds))

	if err := db.SaveStrongholds(sim.Strongholds); err != nil {
		return fmt.Errorf("save strongholds: %w", err)
	}
	if err := db.SaveLegacy(sim.Legacy); err != nil {
		return fmt.Errorf("save legacy: %w", err)
	}
	if err := db.SaveMessages(sim.Messages); err != nil {
		return fmt.Errorf("save messages: %w", err)
	}
	if err := db.SaveMeta(MetaLastDay, strconv.FormatUint(sim.Day, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("game state saved")
	return nil
}

// LoadState restores strongholds, legacy and day into sim.
func (db *DB) LoadState(sim *engine.Simulation) error {
	holds, err := db.LoadStrongholds()
	if err != nil {
		return err
	}
	l, err := db.LoadLegacy()
	if err != nil {
		return err
	}
	sim.Strongholds = holds
	sim.Legacy = l
	sim.Day = db.LastDay()
	slog.Info("game state loaded", "day", sim.Day, "strongholds", len(holds), "legacy", l != nil)
	return nil
}
