package database

import (
	"context"
	"testing"
	"testing/fstest"

	"srefhub/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive across queries.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// sqliteMigrations is a small portable migration set for Migrator tests.
func sqliteMigrations(t *testing.T, extra fstest.MapFS) []Migration {
	t.Helper()
	fsys := fstest.MapFS{
		"m/000001_palettes.up.sql":   {Data: []byte("CREATE TABLE palettes (id INTEGER PRIMARY KEY, name TEXT);")},
		"m/000001_palettes.down.sql": {Data: []byte("DROP TABLE palettes;")},
		"m/000002_swatches.up.sql":   {Data: []byte("CREATE TABLE swatches (id INTEGER PRIMARY KEY, hex TEXT);")},
		"m/000002_swatches.down.sql": {Data: []byte("DROP TABLE swatches;")},
	}
	for k, v := range extra {
		fsys[k] = v
	}
	migrations, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	return migrations
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		env         string
		destructive bool
		sql         bool
		auto        bool
		wantErr     bool
	}{
		{"hybrid dev", "hybrid", "development", false, true, true, false},
		{"hybrid prod", "hybrid", "production", false, true, false, false},
		{"hybrid staging", "hybrid", "staging", false, true, false, false},
		{"empty defaults to hybrid", "", "development", false, true, true, false},
		{"sql only", "sql", "development", false, true, false, false},
		{"auto dev", "auto", "development", false, false, true, false},
		{"auto prod refused", "auto", "production", false, false, false, true},
		{"auto prod allowed", "auto", "production", true, false, true, false},
		{"unknown mode", "magic", "development", false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planSchema(&config.Config{
				DBSchemaMode:                  tt.mode,
				Env:                           tt.env,
				DBAutoMigrateAllowDestructive: tt.destructive,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sql, plan.SQL)
			assert.Equal(t, tt.auto, plan.AutoORM)
		})
	}
}

func TestApplySchema_SQLiteUsesAutoMigrate(t *testing.T) {
	db := newSQLiteDB(t)

	cfg := &config.Config{DBSchemaMode: "sql", Env: "development"}
	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.SQL)
	assert.True(t, status.AutoORM)

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	for _, table := range []string{"users", "styles", "likes", "follows", "comments", "collections", "collection_styles", "images"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	registered, err := EmbeddedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, registered)
	for i, m := range registered {
		assert.NotEmpty(t, m.Up, m.String())
		assert.NotEmpty(t, m.Down, m.String())
		assert.Len(t, m.Checksum, 64)
		if i > 0 {
			assert.Greater(t, m.Version, registered[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init", registered[0].String())
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "missing down script",
			fsys: fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("SELECT 1;")}},
			want: "missing down script",
		},
		{
			name: "bad version",
			fsys: fstest.MapFS{
				"m/abc_a.up.sql":   {Data: []byte("SELECT 1;")},
				"m/abc_a.down.sql": {Data: []byte("SELECT 1;")},
			},
			want: "invalid version",
		},
		{
			name: "no name",
			fsys: fstest.MapFS{"m/000001.up.sql": {Data: []byte("SELECT 1;")}},
			want: "expected NNNNNN_name",
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"m/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
				"m/000001_a.down.sql": {Data: []byte("SELECT 1;")},
				"m/000001_b.up.sql":   {Data: []byte("SELECT 1;")},
				"m/000001_b.down.sql": {Data: []byte("SELECT 1;")},
			},
			want: "version 1 used by",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys, "m")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMigrator_UpAndDown(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	m := NewMigrator(db, sqliteMigrations(t, nil))

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("palettes"))
	assert.True(t, db.Migrator().HasTable("swatches"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second run is a no-op")

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("swatches"))

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	err = m.Down(ctx, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been applied")

	assert.ErrorContains(t, m.Down(ctx, 99), "not found")
}

func TestMigrator_FailedMigrationIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	m := NewMigrator(db, sqliteMigrations(t, fstest.MapFS{
		"m/000003_broken.up.sql":   {Data: []byte("CREATE TABLE halfway (id INTEGER); CREATE TABLE oops (;")},
		"m/000003_broken.down.sql": {Data: []byte("DROP TABLE halfway;")},
	}))

	n, err := m.Up(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, err.Error(), "000003_broken")
	assert.False(t, db.Migrator().HasTable("halfway"), "partial work rolled back")

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
}

func TestMigrator_DetectsDrift(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	_, err := NewMigrator(db, sqliteMigrations(t, nil)).Up(ctx)
	require.NoError(t, err)

	t.Run("edited script", func(t *testing.T) {
		edited := sqliteMigrations(t, fstest.MapFS{
			"m/000001_palettes.up.sql": {Data: []byte("CREATE TABLE palettes (id INTEGER PRIMARY KEY, name TEXT, hue INTEGER);")},
		})
		_, err := NewMigrator(db, edited).Pending(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "000001_palettes was modified")
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := NewMigrator(db, sqliteMigrations(t, nil)[:1]).Pending(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "000002")
	})
}

func TestPlanFor_Dialects(t *testing.T) {
	cfg := &config.Config{DBSchemaMode: SchemaModeHybrid, Env: "production"}

	pg, mock := newMockPostgres(t)
	plan, err := planFor(pg, cfg)
	require.NoError(t, err)
	assert.True(t, plan.SQL)
	assert.False(t, plan.AutoORM)
	assert.NoError(t, mock.ExpectationsWereMet())

	plan, err = planFor(newSQLiteDB(t), cfg)
	require.NoError(t, err)
	assert.False(t, plan.SQL)
	assert.True(t, plan.AutoORM)
}
