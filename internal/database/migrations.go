package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"srefhub/internal/middleware"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one NNNNNN_name.up.sql / .down.sql pair.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaMigration) TableName() string { return "schema_migrations" }

var embeddedMigrations = sync.OnceValues(func() ([]Migration, error) {
	return LoadMigrations(migrationFS, "migrations")
})

// EmbeddedMigrations returns the SQL migrations compiled into the binary.
func EmbeddedMigrations() ([]Migration, error) {
	return embeddedMigrations()
}

// LoadMigrations reads up/down pairs from dir. Every up script needs a
// matching down script and versions must be unique.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(file, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(file, ".up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name.up.sql", file)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", file, prefix)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, other, file)
		}
		seen[version] = file

		up, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s: missing down script: %w", base, err)
		}

		sum := sha256.Sum256(up)
		out = append(out, Migration{
			Version:  version,
			Name:     name,
			Up:       string(up),
			Down:     string(down),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Migrator applies a fixed set of migrations and tracks them in
// schema_migrations. Each migration runs in its own transaction together
// with its bookkeeping row.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

// Applied lists recorded migrations in version order.
func (m *Migrator) Applied(ctx context.Context) ([]SchemaMigration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var rows []SchemaMigration
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return rows, nil
}

// Pending returns the migrations not applied yet. It fails when the
// database knows versions this binary does not, or when an applied script
// was edited afterwards.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[int]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Version] = mig
	}

	done := make(map[int]bool, len(applied))
	var unknown []string
	for _, row := range applied {
		mig, ok := known[row.Version]
		if !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", row.Version))
			continue
		}
		if row.Checksum != "" && row.Checksum != mig.Checksum {
			return nil, fmt.Errorf("migration %s was modified after it was applied", mig)
		}
		done[row.Version] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("schema_migrations has versions missing from this build: %s", strings.Join(unknown, ", "))
	}

	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.Info("migration applied", slog.String("migration", mig.String()))
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("version = ?", version).Delete(&SchemaMigration{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("migration %s has not been applied", target)
		}
		return tx.Exec(target.Down).Error
	})
	if err != nil {
		return fmt.Errorf("roll back %s: %w", target, err)
	}
	middleware.Logger.Info("migration rolled back", slog.String("migration", target.String()))
	return nil
}

func embeddedMigrator(db *gorm.DB) (*Migrator, error) {
	migrations, err := EmbeddedMigrations()
	if err != nil {
		return nil, err
	}
	return NewMigrator(db, migrations), nil
}

// RunMigrations applies the embedded SQL migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	m, err := embeddedMigrator(db)
	if err != nil {
		return err
	}
	_, err = m.Up(ctx)
	return err
}

// RollbackMigration reverts one embedded migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m, err := embeddedMigrator(db)
	if err != nil {
		return err
	}
	return m.Down(ctx, version)
}
