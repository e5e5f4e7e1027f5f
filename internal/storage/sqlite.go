package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vizwizards/lifeviz/internal/record"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

const selectObservationFields = `indicator, parent_location, location, code,
	period, sex, value, value_low, value_high`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS observations (
			indicator TEXT NOT NULL,
			parent_location TEXT NOT NULL,
			location TEXT NOT NULL,
			code TEXT,
			period INTEGER NOT NULL,
			sex TEXT NOT NULL,
			value REAL NOT NULL,
			value_low REAL,
			value_high REAL,
			PRIMARY KEY (indicator, location, period, sex)
		);

		CREATE INDEX IF NOT EXISTS idx_obs_period ON observations(period);
		CREATE INDEX IF NOT EXISTS idx_obs_region ON observations(parent_location);
	`
	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and reloads it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	obs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	return d.Replace(obs)
}

// Replace swaps the table contents for obs in one transaction. Duplicate
// keys keep the last observation.
func (d *DB) Replace(obs []record.Observation) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM observations"); err != nil {
		return 0, fmt.Errorf("clearing observations table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO observations (` + selectObservationFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		_, err := stmt.Exec(o.Indicator, o.ParentLocation, o.Location, nullableString(o.Code),
			o.Period, string(o.Sex), o.Value, nullableFloat(o.Low), nullableFloat(o.High))
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", Key(o), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return d.Count()
}

// Count returns the number of stored observations.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM observations").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return n, nil
}

// Years returns the distinct periods in ascending order.
func (d *DB) Years() ([]int, error) {
	rows, err := d.db.Query("SELECT DISTINCT period FROM observations ORDER BY period")
	if err != nil {
		return nil, fmt.Errorf("querying years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scanning year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Regions returns the distinct non-empty parent locations, sorted.
func (d *DB) Regions() ([]string, error) {
	return d.queryStrings(`SELECT DISTINCT parent_location FROM observations
		WHERE parent_location != '' ORDER BY parent_location`)
}

// Countries returns the distinct locations, sorted. A non-empty region
// restricts them to that parent location.
func (d *DB) Countries(region string) ([]string, error) {
	if region != "" {
		return d.queryStrings(`SELECT DISTINCT location FROM observations
			WHERE parent_location = ? ORDER BY location`, region)
	}
	return d.queryStrings("SELECT DISTINCT location FROM observations ORDER BY location")
}

func (d *DB) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LifeQuery selects observations. Empty fields match everything.
type LifeQuery struct {
	Years      []int
	Indicators []string
	Sex        record.Sex
	Region     string
	Country    string
}

// Life returns the observations matching q, ordered by indicator, period
// and location.
func (d *DB) Life(q LifeQuery) ([]record.Observation, error) {
	var (
		conditions []string
		args       []any
	)
	if len(q.Years) > 0 {
		conditions = append(conditions, "period IN ("+placeholders(len(q.Years))+")")
		for _, y := range q.Years {
			args = append(args, y)
		}
	}
	if len(q.Indicators) > 0 {
		conditions = append(conditions, "indicator IN ("+placeholders(len(q.Indicators))+")")
		for _, ind := range q.Indicators {
			args = append(args, ind)
		}
	}
	if q.Sex != "" {
		conditions = append(conditions, "sex = ?")
		args = append(args, string(q.Sex))
	}
	if q.Region != "" {
		conditions = append(conditions, "parent_location = ?")
		args = append(args, q.Region)
	}
	if q.Country != "" {
		conditions = append(conditions, "location = ?")
		args = append(args, q.Country)
	}

	query := "SELECT " + selectObservationFields + " FROM observations"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY indicator, period, location, sex"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// GlobalAverages returns the mean value per period for one indicator and sex.
func (d *DB) GlobalAverages(indicator string, sex record.Sex) (map[int]float64, error) {
	rows, err := d.db.Query(`
		SELECT period, AVG(value) FROM observations
		WHERE indicator = ? AND sex = ?
		GROUP BY period ORDER BY period
	`, indicator, string(sex))
	if err != nil {
		return nil, fmt.Errorf("querying averages: %w", err)
	}
	defer rows.Close()

	out := make(map[int]float64)
	for rows.Next() {
		var (
			year int
			avg  float64
		)
		if err := rows.Scan(&year, &avg); err != nil {
			return nil, fmt.Errorf("scanning average: %w", err)
		}
		out[year] = avg
	}
	return out, rows.Err()
}

func scanObservations(rows *sql.Rows) ([]record.Observation, error) {
	var out []record.Observation
	for rows.Next() {
		var (
			o         record.Observation
			sex       string
			code      sql.NullString
			low, high sql.NullFloat64
		)
		if err := rows.Scan(&o.Indicator, &o.ParentLocation, &o.Location, &code,
			&o.Period, &sex, &o.Value, &low, &high); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		o.Sex = record.Sex(sex)
		o.Code = code.String
		if low.Valid {
			o.Low = &low.Float64
		}
		if high.Valid {
			o.High = &high.Float64
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
