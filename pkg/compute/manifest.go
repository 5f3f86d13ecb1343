package compute

import (
	"database/sql"
	"embed"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	// ManifestFileName is the SQLite file kept next to the cache dirs.
	ManifestFileName = "manifest.db"

	insertScoreFileSQL = `INSERT INTO score_file (
			score,
			corpus_file,
			kind,
			num_lines,
			update_date
		)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(score, corpus_file) DO UPDATE SET
			kind = ?,
			num_lines = ?,
			update_date = ?
	`

	selectScoreFilesSQL = `SELECT
			score,
			corpus_file,
			kind,
			num_lines,
			update_date
		FROM score_file
		ORDER BY score, corpus_file
	`

	deleteScoreFilesSQL = `DELETE FROM score_file`
)

var (
	//go:embed sql/*
	f embed.FS

	errManifestNotInitialized = errors.New("manifest not initialized")
)

// Entry describes one cache file the engine has written.
type Entry struct {
	Score      string `json:"score" yaml:"score"`
	CorpusFile string `json:"corpus_file,omitempty" yaml:"corpusFile,omitempty"`
	Kind       string `json:"kind" yaml:"kind"`
	NumLines   int64  `json:"num_lines" yaml:"numLines"`
	UpdateDate string `json:"update_date" yaml:"updateDate"`
}

// Manifest records written cache files in SQLite for the status command.
// It is observability only: cache-hit decisions are made on file existence,
// never on manifest content.
type Manifest struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenManifest opens (and if needed creates) the manifest database at path.
func OpenManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, errors.New("manifest path not specified")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest: %s", path)
	}

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to create manifest schema in: %s", path)
	}

	return &Manifest{db: db}, nil
}

// Record upserts one cache file entry.
func (m *Manifest) Record(e Entry) error {
	if m == nil || m.db == nil {
		return errManifestNotInitialized
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e.UpdateDate = time.Now().UTC().Format("2006-01-02")
	_, err := m.db.Exec(insertScoreFileSQL,
		e.Score, e.CorpusFile, e.Kind, e.NumLines, e.UpdateDate,
		e.Kind, e.NumLines, e.UpdateDate)
	return errors.Wrapf(err, "failed to record cache entry for score: %s", e.Score)
}

// List returns all recorded entries ordered by score then corpus file.
func (m *Manifest) List() ([]Entry, error) {
	if m == nil || m.db == nil {
		return nil, errManifestNotInitialized
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.db.Query(selectScoreFilesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query manifest")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Score, &e.CorpusFile, &e.Kind, &e.NumLines, &e.UpdateDate); err != nil {
			return nil, errors.Wrap(err, "failed to scan manifest row")
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "failed to read manifest rows")
}

// Clear removes every entry.
func (m *Manifest) Clear() error {
	if m == nil || m.db == nil {
		return errManifestNotInitialized
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.db.Exec(deleteScoreFilesSQL)
	return errors.Wrap(err, "failed to clear manifest")
}

// Close closes the underlying database.
func (m *Manifest) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}
