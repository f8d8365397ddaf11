package seeder

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lumos-Labs-HQ/provision/internal/database"
	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/Lumos-Labs-HQ/provision/internal/logger"
	"github.com/Lumos-Labs-HQ/provision/internal/types"
)

func newTestSeeder(exec database.Executor, cfg SeedConfig) (*Seeder, *bytes.Buffer) {
	var logs bytes.Buffer
	if cfg.Rows == 0 {
		cfg.Rows = 3
	}
	return New(exec, database.DialectFor("postgresql"), cfg, logger.New(true, &logs)), &logs
}

func TestProvisionForwardsEveryStatement(t *testing.T) {
	syntax := common.NewExecError(common.KindSyntax, "", errors.New("syntax error"))
	exec := newFakeExecutor().failOn("CREAT ", syntax)
	s, logs := newTestSeeder(exec, SeedConfig{})

	raw := []string{locationDDL, "CREAT TABLE broken ();", "-- trailing notes", "DROP TABLE old;"}
	report := s.Provision(context.Background(), raw)

	require.Equal(t, []string{locationDDL, "DROP TABLE old;"}, exec.queries())
	require.Len(t, report.Succeeded, 2)
	require.Equal(t, []string{"CREAT TABLE broken ();"}, report.Failed)
	require.Equal(t, []string{"-- trailing notes"}, report.Skipped)
	require.False(t, report.OK())
	require.Contains(t, logs.String(), "kind=\"syntax error\"")
}

func TestInsertSeedsInDependencyOrder(t *testing.T) {
	exec := newFakeExecutor().
		withKeys("SELECT id FROM location LIMIT 1000", "id", int64(1), int64(2)).
		withKeys("SELECT id FROM sensor LIMIT 1000", "id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	s, _ := newTestSeeder(exec, SeedConfig{Tables: map[string]int{"measurement": 4}})

	statements := []*types.Statement{mustParse(measurementDDL), mustParse(sensorDDL), mustParse(locationDDL)}
	report, err := s.Insert(context.Background(), statements)
	require.NoError(t, err)

	queries := exec.queries()
	require.Len(t, queries, 3)
	require.True(t, strings.HasPrefix(queries[0], "INSERT INTO location (id,created_at,address) VALUES ($1,$2,$3),"))
	require.True(t, strings.HasPrefix(queries[1], "INSERT INTO sensor "))
	require.True(t, strings.HasPrefix(queries[2], "INSERT INTO measurement "))

	require.Len(t, exec.executed[0].args, 9)
	require.Len(t, exec.executed[2].args, 16)

	require.Equal(t, []string{"location", "sensor", "measurement"}, report.Succeeded)
	require.Equal(t, 10, report.Rows)
	require.Equal(t, 3, report.Statements)
	require.Equal(t, 2, s.Resolver().Fetches())
}

func TestInsertFetchesEachReferencedTableOnce(t *testing.T) {
	exec := newFakeExecutor().withRows("SELECT id, code FROM location LIMIT 1000", []string{"id", "code"},
		[]interface{}{int64(7), "NORTH"},
		[]interface{}{int64(8), "SOUTH"},
	)
	s, _ := newTestSeeder(exec, SeedConfig{})

	device := "CREATE TABLE device (\n    id int PRIMARY KEY,\n    location_id int NOT NULL REFERENCES location (id)\n);"
	badge := "CREATE TABLE badge (\n    id int PRIMARY KEY,\n    location_code varchar NOT NULL REFERENCES location (code)\n);"
	report, err := s.Insert(context.Background(), []*types.Statement{mustParse(device), mustParse(badge)})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"device", "badge"}, report.Succeeded)
	require.Equal(t, 1, s.Resolver().Fetches())
	require.Equal(t, []string{"SELECT id, code FROM location LIMIT 1000"}, exec.fetched)
}

func TestInsertLiteral(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestSeeder(exec, SeedConfig{Literal: true, Rows: 2})

	_, err := s.Insert(context.Background(), []*types.Statement{mustParse(locationDDL)})
	require.NoError(t, err)

	require.Len(t, exec.executed, 1)
	require.Regexp(t, `^INSERT INTO location\(id, created_at, address\) VALUES \(\d+, '[^']+', '[A-Z0-9]{10}'\), \(\d+, '[^']+', '[A-Z0-9]{10}'\);$`, exec.executed[0].query)
	require.Empty(t, exec.executed[0].args)
}

func TestInsertHandlesDropAndAlter(t *testing.T) {
	exec := newFakeExecutor()
	s, logs := newTestSeeder(exec, SeedConfig{})

	statements := []*types.Statement{
		mustParse("DROP TABLE IF EXISTS location;"),
		mustParse("ALTER TABLE location ADD COLUMN note varchar;"),
		mustParse(locationDDL),
	}
	report, err := s.Insert(context.Background(), statements)
	require.NoError(t, err)

	queries := exec.queries()
	require.Len(t, queries, 2)
	require.Equal(t, "DROP TABLE IF EXISTS location;", queries[0])
	require.Equal(t, []string{"location"}, report.Skipped)
	require.Contains(t, logs.String(), "ALTER statements are not supported")
}

func TestInsertContinuesAfterFailures(t *testing.T) {
	integrity := common.NewExecError(common.KindIntegrityViolation, "", errors.New("duplicate key"))
	exec := newFakeExecutor().failOn("INSERT INTO location", integrity)
	s, logs := newTestSeeder(exec, SeedConfig{})

	tag := "CREATE TABLE tag (\n    id int PRIMARY KEY,\n    label varchar(8)\n);"
	report, err := s.Insert(context.Background(), []*types.Statement{mustParse(locationDDL), mustParse(sensorDDL), mustParse(tag)})
	require.NoError(t, err)

	require.Equal(t, []string{"tag"}, report.Succeeded)
	require.ElementsMatch(t, []string{"location", "sensor"}, report.Failed)
	require.Contains(t, logs.String(), "integrity violation")
	require.Contains(t, logs.String(), "Cannot resolve foreign key")
}

func TestInsertRejectsCycles(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestSeeder(exec, SeedConfig{})

	statements := []*types.Statement{
		mustParse("CREATE TABLE a (\n    id int PRIMARY KEY,\n    b_id int REFERENCES b (id)\n);"),
		mustParse("CREATE TABLE b (\n    id int PRIMARY KEY,\n    a_id int REFERENCES a (id)\n);"),
	}
	_, err := s.Insert(context.Background(), statements)
	require.ErrorIs(t, err, ErrCyclicDependency)
	require.Empty(t, exec.executed)
}

func TestInsertSkipsZeroRowTables(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestSeeder(exec, SeedConfig{Tables: map[string]int{"location": 0}})

	report, err := s.Insert(context.Background(), []*types.Statement{mustParse(locationDDL)})
	require.NoError(t, err)
	require.Empty(t, exec.executed)
	require.Equal(t, []string{"location"}, report.Skipped)
}

func TestInsertDryRunPrimesReferences(t *testing.T) {
	var out bytes.Buffer
	s, _ := newTestSeeder(nil, SeedConfig{DryRun: true, Out: &out, Rows: 2})

	statements := []*types.Statement{
		mustParse("DROP TABLE IF EXISTS sensor;"),
		mustParse(sensorDDL),
		mustParse(locationDDL),
	}
	report, err := s.Insert(context.Background(), statements)
	require.NoError(t, err)
	require.Equal(t, 4, report.Rows)
	require.Zero(t, s.Resolver().Fetches())

	chunks := strings.Split(strings.TrimSpace(out.String()), "\n\n")
	require.Len(t, chunks, 3)
	require.Equal(t, "DROP TABLE IF EXISTS sensor;", chunks[0])
	require.True(t, strings.HasPrefix(chunks[1], "INSERT INTO location(id, created_at, address) VALUES ("))
	require.True(t, strings.HasPrefix(chunks[2], "INSERT INTO sensor(id, location_id, type) VALUES ("))

	pool, err := s.Resolver().Pool(context.Background(), "location", "id")
	require.NoError(t, err)
	require.Len(t, pool, 2)

	ids := make([]string, len(pool))
	for i, id := range pool {
		ids[i] = strconv.FormatInt(id.(int64), 10)
	}
	matches := regexp.MustCompile(`\('[^']+', (\d+), '[A-Z0-9]+'\)`).FindAllStringSubmatch(chunks[2], -1)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.Contains(t, ids, m[1])
	}
}

func TestInsertStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := newFakeExecutor()
	s, _ := newTestSeeder(exec, SeedConfig{})
	_, err := s.Insert(ctx, []*types.Statement{mustParse(locationDDL), mustParse(sensorDDL)})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, exec.executed)
}
