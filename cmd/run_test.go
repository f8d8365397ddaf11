package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Lumos-Labs-HQ/provision/internal/config"
	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/Lumos-Labs-HQ/provision/internal/database/sqlite"
	"github.com/Lumos-Labs-HQ/provision/internal/logger"
)

const sqliteSchema = `CREATE TABLE location (
    id uuid PRIMARY KEY,
    created_at TIMESTAMP,
    address VARCHAR(40) NOT NULL
);

CREATE TABLE sensor (
    id uuid PRIMARY KEY,
    location_id uuid NOT NULL,
    type VARCHAR NOT NULL,
    FOREIGN KEY (location_id) REFERENCES location (id)
);

CREATE TABLE measurement (
    id uuid PRIMARY KEY,
    sensor_id uuid NOT NULL REFERENCES sensor (id),
    value numeric NOT NULL
);
`

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.sql"), []byte(content), 0644))
	return dir
}

func sqliteConfig(t *testing.T, schemaDir string) (*config.Config, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv("DATABASE_URL", "sqlite://"+dbPath)

	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.SchemaDir = schemaDir
	cfg.Database.Provider = "sqlite"
	cfg.Database.PoolSize = 1
	cfg.Database.MaxOverflow = 0
	cfg.Seed.Rows = 3
	cfg.Seed.Tables = map[string]int{"measurement": 6}
	require.NoError(t, cfg.Validate())
	return cfg, dbPath
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	a := sqlite.New(common.PoolOptions{MaxConns: 1})
	require.NoError(t, a.Connect(context.Background(), "sqlite://"+dbPath))
	defer a.Close()

	result, err := a.Fetch(context.Background(), "SELECT COUNT(*) AS n FROM "+table)
	require.NoError(t, err)
	return int(result.Values()[0].(int64))
}

func TestRunProvisionThenInsertOnSQLite(t *testing.T) {
	ctx := context.Background()
	cfg, dbPath := sqliteConfig(t, writeSchema(t, sqliteSchema))
	log := logger.New(false, &bytes.Buffer{})

	report, err := run(ctx, cfg, runOptions{}, log, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, report.Succeeded, 3)
	require.True(t, report.OK())

	report, err = run(ctx, cfg, runOptions{Insert: true}, log, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, []string{"location", "sensor", "measurement"}, report.Succeeded)
	require.Equal(t, 12, report.Rows)

	require.Equal(t, 3, countRows(t, dbPath, "location"))
	require.Equal(t, 3, countRows(t, dbPath, "sensor"))
	require.Equal(t, 6, countRows(t, dbPath, "measurement"))

	report, err = run(ctx, cfg, runOptions{Insert: true, Literal: true}, log, &bytes.Buffer{})
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Equal(t, 6, countRows(t, dbPath, "location"))
}

func TestRunProvisionReportsFailures(t *testing.T) {
	cfg, _ := sqliteConfig(t, writeSchema(t, "CREATE TABLE a (id int);\n\nCREAT TABLE b (id int);\n\nDROP TABLE a;\n"))
	var logs bytes.Buffer

	report, err := run(context.Background(), cfg, runOptions{}, logger.New(false, &logs), &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, report.Succeeded, 2)
	require.Equal(t, []string{"CREAT TABLE b (id int);"}, report.Failed)
	require.Contains(t, logs.String(), "syntax error")
}

func TestRunInsertDryRun(t *testing.T) {
	schema := sqliteSchema + "\nALTER TABLE sensor ADD COLUMN note varchar;\n\nCREATE TABLE broken (\n    payload jsonb\n);\n"
	cfg, _ := sqliteConfig(t, writeSchema(t, schema))
	var out, logs bytes.Buffer

	report, err := run(context.Background(), cfg, runOptions{Insert: true, DryRun: true}, logger.New(false, &logs), &out)
	require.NoError(t, err)
	require.Equal(t, []string{"location", "sensor", "measurement"}, report.Succeeded)
	require.Equal(t, []string{"sensor"}, report.Skipped)
	require.Equal(t, []string{"broken"}, report.Failed)
	require.False(t, report.OK())

	chunks := strings.Split(strings.TrimSpace(out.String()), "\n\n")
	require.Len(t, chunks, 3)
	require.True(t, strings.HasPrefix(chunks[0], "INSERT INTO location(id, created_at, address) VALUES ("))
	require.Contains(t, logs.String(), "could not be parsed")

	_, err = run(context.Background(), cfg, runOptions{Insert: true, DryRun: true, Strict: true}, logger.New(false, &logs), &out)
	require.Error(t, err)
}

func TestRunWithoutFiles(t *testing.T) {
	cfg, _ := sqliteConfig(t, t.TempDir())
	report, err := run(context.Background(), cfg, runOptions{}, logger.Discard(), &bytes.Buffer{})
	require.NoError(t, err)
	require.Empty(t, report.Succeeded)
}

func TestDescribeSchema(t *testing.T) {
	dir := writeSchema(t, sqliteSchema)
	var out bytes.Buffer
	require.NoError(t, describeSchema(&out, []string{filepath.Join(dir, "schema.sql")}, false))

	var desc struct {
		Order  []string `yaml:"order"`
		Tables []struct {
			Name   string `yaml:"name"`
			Fields []struct {
				Name       string `yaml:"name"`
				References string `yaml:"references"`
			} `yaml:"fields"`
		} `yaml:"tables"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &desc))
	require.Equal(t, []string{"location", "sensor", "measurement"}, desc.Order)
	require.Len(t, desc.Tables, 3)
	require.Equal(t, "location.id", desc.Tables[1].Fields[1].References)
}

func TestDescribeSchemaReportsCycles(t *testing.T) {
	dir := writeSchema(t, "CREATE TABLE a (\n    id int,\n    b_id int REFERENCES b (id)\n);\n\nCREATE TABLE b (\n    id int,\n    a_id int REFERENCES a (id)\n);\n")
	var out bytes.Buffer
	require.NoError(t, describeSchema(&out, []string{filepath.Join(dir, "schema.sql")}, false))
	require.Contains(t, out.String(), "order_error:")
	require.Contains(t, out.String(), "cyclic foreign key dependency")
}
