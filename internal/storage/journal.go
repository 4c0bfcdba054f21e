package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"subsrename/internal"
)

// Journal records what one process did to its inputs. It lives in memory only
// and is gone when the process exits.
type Journal struct {
	conn *sql.DB
}

func OpenJournal() (*Journal, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)

	j := &Journal{conn: conn}
	if err := j.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.conn.Close()
}

func (j *Journal) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL UNIQUE,
  inputDir TEXT NOT NULL,
  countsJson TEXT NOT NULL DEFAULT '{}',
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finishedAt TEXT
);

CREATE TABLE IF NOT EXISTS files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  path TEXT NOT NULL,
  shape TEXT NOT NULL,
  status TEXT NOT NULL,
  total INTEGER NOT NULL DEFAULT 0,
  nodeType TEXT,
  marker TEXT,
  output TEXT,
  dropped INTEGER NOT NULL DEFAULT 0,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS renames (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  fileId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  protocol TEXT NOT NULL,
  server TEXT NOT NULL,
  port INTEGER,
  oldLabel TEXT NOT NULL,
  newLabel TEXT NOT NULL,
  flag TEXT NOT NULL,
  region TEXT NOT NULL,
  seq TEXT NOT NULL,
  FOREIGN KEY(fileId) REFERENCES files(id)
);
CREATE INDEX IF NOT EXISTS idx_renames_fileId ON renames(fileId);
`
	_, err := j.conn.Exec(schema)
	return err
}

func (j *Journal) StartRun(traceID, inputDir string) (int64, error) {
	res, err := j.conn.Exec(`INSERT INTO runs (traceId, inputDir) VALUES (?, ?)`, traceID, inputDir)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (j *Journal) FinishRun(runID int64, counts map[string]int) error {
	countsJSON, _ := json.Marshal(counts)
	_, err := j.conn.Exec(`UPDATE runs SET countsJson = ?, finishedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(countsJSON), runID)
	return err
}

func (j *Journal) RecordFile(runID int64, f internal.FileRow) (int64, error) {
	res, err := j.conn.Exec(`
INSERT INTO files (runId, path, shape, status, total, nodeType, marker, output, dropped)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, f.Path, f.Shape, f.Status, f.Total, f.NodeType, f.Marker, f.Output, f.Dropped)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (j *Journal) RecordRenames(fileID int64, rows []internal.RenameRow) error {
	tx, err := j.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO renames (fileId, lineNo, protocol, server, port, oldLabel, newLabel, flag, region, seq)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(fileID, r.LineNo, r.Protocol, r.Server, r.Port, r.OldLabel, r.NewLabel, r.Flag, r.Region, r.Seq); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *Journal) ListFiles(runID int64) ([]internal.FileRow, error) {
	rows, err := j.conn.Query(`
SELECT id, path, shape, status, total, COALESCE(nodeType, ''), COALESCE(marker, ''), COALESCE(output, ''), dropped
FROM files WHERE runId = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FileRow
	for rows.Next() {
		var f internal.FileRow
		if err := rows.Scan(&f.ID, &f.Path, &f.Shape, &f.Status, &f.Total, &f.NodeType, &f.Marker, &f.Output, &f.Dropped); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetRenameRows returns every renamed node of a run in output order.
func (j *Journal) GetRenameRows(runID int64) ([]internal.RenameRow, error) {
	rows, err := j.conn.Query(`
SELECT f.path, COALESCE(f.output, ''), r.lineNo, r.protocol, r.server, r.port,
       r.oldLabel, r.newLabel, r.flag, r.region, r.seq
FROM renames r
JOIN files f ON f.id = r.fileId
WHERE f.runId = ?
ORDER BY f.id ASC, r.id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RenameRow
	for rows.Next() {
		var row internal.RenameRow
		var port sql.NullInt64
		if err := rows.Scan(
			&row.File, &row.Output, &row.LineNo, &row.Protocol, &row.Server, &port,
			&row.OldLabel, &row.NewLabel, &row.Flag, &row.Region, &row.Seq,
		); err != nil {
			return nil, err
		}
		if port.Valid {
			p := int(port.Int64)
			row.Port = &p
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (j *Journal) RunCounts(runID int64) (map[string]int, error) {
	var countsJSON string
	if err := j.conn.QueryRow(`SELECT countsJson FROM runs WHERE id = ?`, runID).Scan(&countsJSON); err != nil {
		return nil, fmt.Errorf("run %d: %w", runID, err)
	}
	counts := map[string]int{}
	if err := json.Unmarshal([]byte(countsJSON), &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
