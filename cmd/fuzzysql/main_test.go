package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/fuzzysql/internal/config"
	"github.com/standardbeagle/fuzzysql/testhelpers"
)

// runCLI runs the app in process and returns what it wrote.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"fuzzysql"}, args...))
	return out.String(), err
}

func defaultConfig(t *testing.T) string {
	t.Helper()
	return testhelpers.NewTestConfigBuilder().WriteKDL(t, t.TempDir())
}

func TestExprCommand(t *testing.T) {
	cfgPath := defaultConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "expr", "user.name", "Jon")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "IF(COALESCE(`user`.`name`, '') = 'Jon', 100, 0) + "), out)
	assert.True(t, strings.HasSuffix(out, " AS fuzzy_relevance_user_name\n"), out)

	out, err = runCLI(t, "--config", cfgPath, "--dialect", "sqlite", "expr", "name", "Jon")
	require.NoError(t, err)
	assert.Contains(t, out, `CASE WHEN COALESCE("name", '') = 'Jon' COLLATE NOCASE THEN 100 ELSE 0 END`)
}

func TestExprCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "--config", defaultConfig(t), "--json", "-x", "expr", "name", "Jon")
	require.NoError(t, err)

	var got struct {
		Alias   string `json:"alias"`
		Dialect string `json:"dialect"`
		Terms   []struct {
			Kind   string `json:"kind"`
			Weight int    `json:"weight"`
		} `json:"terms"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "fuzzy_relevance_name", got.Alias)
	assert.Equal(t, "mysql", got.Dialect)
	require.Len(t, got.Terms, 8)
	assert.Equal(t, "times_in_string", got.Terms[7].Kind)
	assert.Equal(t, 8, got.Terms[7].Weight)
}

func TestExprCommand_Terms(t *testing.T) {
	out, err := runCLI(t, "--config", defaultConfig(t), "expr", "--terms", "name", "Jon")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "exact"))
	assert.True(t, strings.HasPrefix(lines[3], "consecutive_characters"))
	assert.Contains(t, lines[4], "fuzzy_relevance_name")
}

func TestExprCommand_Errors(t *testing.T) {
	cfgPath := defaultConfig(t)

	_, err := runCLI(t, "--config", cfgPath, "expr", "name")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", cfgPath, "expr", "na me", "Jon")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", cfgPath, "--dialect", "oracle", "expr", "name", "Jon")
	assert.Error(t, err)
}

func TestQueryCommand(t *testing.T) {
	out, err := runCLI(t, "--config", defaultConfig(t), "query", "-t", "users", "-f", "name", "-f", "email", "-n", "10", "jon")
	require.NoError(t, err)

	assert.Contains(t, out, "SELECT *, ")
	assert.Contains(t, out, " FROM `users` HAVING `fuzzy_relevance_name` > ? OR `fuzzy_relevance_email` > ?")
	assert.Contains(t, out, "ORDER BY `fuzzy_relevance_name` DESC LIMIT 10")
	assert.Contains(t, out, "-- args: [0 0]")
}

func TestQueryCommand_ConfigLimit(t *testing.T) {
	cfgPath := testhelpers.NewTestConfigBuilder().WithSearchLimit(7).WriteKDL(t, t.TempDir())

	out, err := runCLI(t, "--config", cfgPath, "--json", "query", "-t", "users", "-f", "name", "--columns", "id", "jon")
	require.NoError(t, err)

	var got struct {
		SQL     string   `json:"sql"`
		Aliases []string `json:"aliases"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, strings.HasPrefix(got.SQL, "SELECT id, "), got.SQL)
	assert.True(t, strings.HasSuffix(got.SQL, "LIMIT 7"), got.SQL)
	assert.Equal(t, []string{"fuzzy_relevance_name"}, got.Aliases)
}

func TestExplainCommand(t *testing.T) {
	out, err := runCLI(t, "--config", defaultConfig(t), "explain", "name", "Jon", "Jon", "Jonathan", "Mary")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "EXACT")
	assert.Contains(t, lines[0], "RELEVANCE")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "190"), lines[1])
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "65"), lines[2])
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[3]), "0"), lines[3])

	_, err = runCLI(t, "--config", defaultConfig(t), "explain", "name", "Jon")
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	dbPath, _ := testhelpers.NewPeopleDB(t)
	cfgPath := defaultConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "--json", "search", "--db", dbPath, "-t", "people", "-f", "name", "Jon")
	require.NoError(t, err)

	var rows []struct {
		Values    map[string]any `json:"values"`
		Relevance float64        `json:"relevance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	require.Len(t, rows, 3)
	assert.Equal(t, "Jon", rows[0].Values["name"])
	assert.InDelta(t, 190.0, rows[0].Relevance, 1e-9)
	assert.Equal(t, "Jonathan", rows[1].Values["name"])
	assert.Equal(t, "John Doe", rows[2].Values["name"])

	out, err = runCLI(t, "--config", cfgPath, "--json", "search", "--db", dbPath, "-t", "people", "-f", "name", "--min-relevance", "20", "Jon")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 2)
}

func TestSearchCommand_LimitCountsQualifyingRows(t *testing.T) {
	dbPath := testhelpers.SQLitePath(t)
	db := testhelpers.OpenSQLite(t, dbPath)
	_, err := db.Exec(`CREATE TABLE contacts (id INTEGER PRIMARY KEY, name TEXT, email TEXT)`)
	require.NoError(t, err)
	// Jonas ranks first on name (74) but stays under the threshold; Mary
	// qualifies through email (190)
	_, err = db.Exec(`INSERT INTO contacts (name, email) VALUES ('Jonas', 'x@example.com'), ('Mary', 'jon')`)
	require.NoError(t, err)

	out, err := runCLI(t, "--config", defaultConfig(t), "--json", "search", "--db", dbPath,
		"-t", "contacts", "-f", "name", "-f", "email", "-n", "1", "--min-relevance", "100", "jon")
	require.NoError(t, err)

	var rows []struct {
		Values    map[string]any `json:"values"`
		Relevance float64        `json:"relevance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mary", rows[0].Values["name"])
	assert.InDelta(t, 190.0, rows[0].Relevance, 1e-9)
}

func TestSearchCommand_Table(t *testing.T) {
	dbPath, _ := testhelpers.NewPeopleDB(t)

	out, err := runCLI(t, "--config", defaultConfig(t), "search", "--db", dbPath, "-t", "people", "-f", "name", "--columns", "name", "Mary")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "RELEVANCE")
	assert.Contains(t, lines[1], "Mary")

	out, err = runCLI(t, "--config", defaultConfig(t), "search", "--db", dbPath, "-t", "people", "-f", "name", "zzz")
	require.NoError(t, err)
	assert.Equal(t, "No matches.\n", out)
}

func TestSearchCommand_MissingDatabase(t *testing.T) {
	_, err := runCLI(t, "--config", defaultConfig(t), "search", "--db", filepath.Join(t.TempDir(), "missing.db"), "-t", "people", "-f", "name", "Jon")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWeightsCommand(t *testing.T) {
	cfgPath := defaultConfig(t)

	out, err := runCLI(t, "--config", cfgPath, "weights")
	require.NoError(t, err)
	assert.Contains(t, out, "exact")
	assert.Contains(t, out, "Dominated tiers:")
	assert.Contains(t, out, "exact weight 100 <= 132")

	_, err = runCLI(t, "--config", cfgPath, "weights", "--strict")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDominated))
}

func TestWeightsCommand_Dominant(t *testing.T) {
	cfgPath := testhelpers.NewTestConfigBuilder().
		WithMatcher("exact", 800).
		WithMatcher("start_of_string", 400).
		WithMatcher("acronym", 200).
		WithMatcher("consecutive_characters", 100).
		WriteKDL(t, t.TempDir())

	out, err := runCLI(t, "--config", cfgPath, "--json", "weights", "--strict")
	require.NoError(t, err)

	var got struct {
		Dominant bool `json:"dominant"`
		Weights  []struct {
			Kind   string `json:"kind"`
			Weight int    `json:"weight"`
		} `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Dominant)
	require.Len(t, got.Weights, 4)
	assert.Equal(t, 800, got.Weights[0].Weight)
}

func TestConfigInitShowValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.KDLFileName)

	out, err := runCLI(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = runCLI(t, "config", "init", "-o", path)
	assert.Error(t, err, "existing file needs --force")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Len(t, cfg.Matchers, 4)
	assert.Len(t, cfg.ExtendedMatchers, 4)
	assert.Equal(t, config.DefaultSearchLimit, cfg.Search.Limit)

	out, err = runCLI(t, "--config", path, "--dialect", "sqlite", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `dialect "sqlite"`)
	assert.Contains(t, out, "    studly_case 32\n")

	out, err = runCLI(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "Warning:")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.KDLFileName)
	require.NoError(t, os.WriteFile(path, []byte("dialect \"oracle\"\n"), 0644))

	out, err := runCLI(t, "--config", path, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "Configuration validation failed")
}
