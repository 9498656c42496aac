// Package history persists build runs and their step outcomes in SQLite.
// Recording is strictly optional: the engine treats every error from this
// package as a warning.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"lettrebuild/pkg/api"
)

// BuildDB is the SQLite-backed build history store.
type BuildDB struct {
	db *sql.DB
}

// BuildRecord is one recorded build run.
type BuildRecord struct {
	ID         int64
	Target     string
	Entry      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // running, success, failed
	Artifact   string
	Error      string
}

// StepRecord is one recorded step within a build run.
type StepRecord struct {
	ID       int64
	BuildID  int64
	Step     string
	Status   string // success, failed
	Duration time.Duration
	Error    string
}

// Open creates the database file (and its parent directory) if needed and
// initializes the schema.
func Open(dbPath string) (*BuildDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	bdb := &BuildDB{db: db}
	if err := bdb.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return bdb, nil
}

// Close closes the underlying database.
func (d *BuildDB) Close() error {
	return d.db.Close()
}

func (d *BuildDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		entry TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL DEFAULT 'running',
		artifact TEXT,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS build_steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id INTEGER NOT NULL REFERENCES builds(id),
		step TEXT NOT NULL,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_build_steps_build_id ON build_steps(build_id);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// BuildStarted records the start of a build and returns its id.
func (d *BuildDB) BuildStarted(target api.Target) (int64, error) {
	res, err := d.db.Exec(
		"INSERT INTO builds (target, entry, started_at, status) VALUES (?, ?, ?, 'running')",
		target.Name, target.Entry, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading build id: %w", err)
	}
	return id, nil
}

// StepFinished records one step outcome for a build.
func (d *BuildDB) StepFinished(buildID int64, step string, duration time.Duration, stepErr error) error {
	status := "success"
	errText := ""
	if stepErr != nil {
		status = "failed"
		errText = stepErr.Error()
	}

	_, err := d.db.Exec(
		"INSERT INTO build_steps (build_id, step, status, duration_ms, error) VALUES (?, ?, ?, ?, ?)",
		buildID, step, status, duration.Milliseconds(), errText,
	)
	if err != nil {
		return fmt.Errorf("inserting step record: %w", err)
	}
	return nil
}

// BuildFinished records the final outcome of a build.
func (d *BuildDB) BuildFinished(buildID int64, artifact string, buildErr error) error {
	status := "success"
	errText := ""
	if buildErr != nil {
		status = "failed"
		errText = buildErr.Error()
	}

	_, err := d.db.Exec(
		"UPDATE builds SET finished_at = ?, status = ?, artifact = ?, error = ? WHERE id = ?",
		time.Now(), status, artifact, errText, buildID,
	)
	if err != nil {
		return fmt.Errorf("updating build record: %w", err)
	}
	return nil
}

// RecentBuilds returns up to limit builds, newest first.
func (d *BuildDB) RecentBuilds(limit int) ([]BuildRecord, error) {
	rows, err := d.db.Query(`
		SELECT id, target, entry, started_at, finished_at, status, COALESCE(artifact, ''), COALESCE(error, '')
		FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var r BuildRecord
		if err := rows.Scan(&r.ID, &r.Target, &r.Entry, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Artifact, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning build record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating build records: %w", err)
	}
	return records, nil
}

// BuildSteps returns the recorded steps for a build, in execution order.
func (d *BuildDB) BuildSteps(buildID int64) ([]StepRecord, error) {
	rows, err := d.db.Query(`
		SELECT id, build_id, step, status, duration_ms, COALESCE(error, '')
		FROM build_steps WHERE build_id = ? ORDER BY id`, buildID)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var records []StepRecord
	for rows.Next() {
		var r StepRecord
		var ms int64
		if err := rows.Scan(&r.ID, &r.BuildID, &r.Step, &r.Status, &ms, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning step record: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating step records: %w", err)
	}
	return records, nil
}
