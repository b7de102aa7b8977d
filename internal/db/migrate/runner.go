// Package migrate creates and drops the client_storage table behind SESSION_STORE=postgres.
// The SQL lives in internal/db/migrations and is embedded into the binary.
package migrate

import (
	"errors"
	"fmt"

	"traccar-client/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Table is the relation the migrations manage. storage.PostgresStorage reads and writes it.
const Table = "client_storage"

// Direction selects which way Apply moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection accepts "up" or "down", exactly.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("direction must be up or down, got %q", s)
}

// Report is the schema state after Apply or Status.
type Report struct {
	// Version is the last applied migration, 0 when the table is absent.
	Version uint
	Dirty   bool
	// Changed is false when the schema was already at the requested end.
	Changed bool
}

func (r Report) String() string {
	if r.Version == 0 {
		return Table + ": not installed"
	}
	s := fmt.Sprintf("%s: schema version %d", Table, r.Version)
	if r.Dirty {
		s += " (dirty, fix by hand and re-run)"
	}
	return s
}

// Apply moves the client_storage schema in dir. Already being there is not an error; the
// report then has Changed false.
func Apply(dsn string, dir Direction) (Report, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return Report{}, err
	}
	m, err := open(dsn)
	if err != nil {
		return Report{}, err
	}
	defer func() { _, _ = m.Close() }()

	step := m.Up
	if dir == Down {
		step = m.Down
	}
	changed := true
	if err := step(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return Report{}, fmt.Errorf("migrate %s %s: %w", Table, dir, err)
		}
		changed = false
	}
	r, err := report(m)
	r.Changed = changed
	return r, err
}

// Status reports the installed client_storage schema without changing it.
func Status(dsn string) (Report, error) {
	m, err := open(dsn)
	if err != nil {
		return Report{}, err
	}
	defer func() { _, _ = m.Close() }()
	return report(m)
}

func open(dsn string) (*migrate.Migrate, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set; required for SESSION_STORE=postgres")
	}
	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}

func report(m *migrate.Migrate) (Report, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("migrate %s version: %w", Table, err)
	}
	return Report{Version: version, Dirty: dirty}, nil
}
