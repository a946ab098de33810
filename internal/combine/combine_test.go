package combine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasgrid/geodir/internal/region"
)

var testTable = []region.Region{
	{Code: "1", Name: "Sydney", StateCode: "1", Lat: -33.87, Lon: 151.21},
	{Code: "2", Name: "Melbourne", StateCode: "2", Lat: -37.81, Lon: 144.96},
	{Code: "3", Name: "Brisbane", StateCode: "3", Lat: -27.47, Lon: 153.03},
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collect(t *testing.T, wikiPath string, r *Resolver) ([]ComparisonRow, Stats) {
	t.Helper()
	var rows []ComparisonRow
	stats, err := Run(context.Background(), wikiPath, r, func(row ComparisonRow) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	return rows, stats
}

func TestLoadNameMapping(t *testing.T) {
	path := writeFile(t, "match.csv", "Sydney (NSW);Sydney\nMelbourne (Vic);Melbourne\nbroken-row\n")
	mapping, err := LoadNameMapping(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Sydney (NSW)":    "Sydney",
		"Melbourne (Vic)": "Melbourne",
	}, mapping)
}

func TestResolver_CaseAndWhitespaceInsensitive(t *testing.T) {
	r := NewResolver(testTable, map[string]string{"Sydney (NSW)": "Sydney"})

	got, ok := r.Resolve("  sydney (nsw) ")
	require.True(t, ok)
	assert.Equal(t, "Sydney", got.Name)

	_, ok = r.Resolve("Perth (WA)")
	assert.False(t, ok)
}

func TestResolver_DuplicateNamesKeepFirst(t *testing.T) {
	dupes := []region.Region{
		{Code: "1", Name: "Richmond", Lat: -37.82, Lon: 145.00},
		{Code: "2", Name: "Richmond", Lat: -33.60, Lon: 150.75},
	}
	r := NewResolver(dupes, map[string]string{"Richmond": "Richmond"})

	got, ok := r.Resolve("Richmond")
	require.True(t, ok)
	assert.Equal(t, "1", got.Code)
}

func TestRun_EmitsComparisonRows(t *testing.T) {
	wiki := writeFile(t, "wiki.tsv",
		"nameID\trelation_nearSw\trelation_nearNe\n"+
			"Sydney (NSW)\tMelbourne (Vic)\tNull\n"+
			"Melbourne (Vic)\tNull\tSydney (NSW)\n")
	mapping := map[string]string{"Sydney (NSW)": "Sydney", "Melbourne (Vic)": "Melbourne"}
	r := NewResolver(testTable, mapping)

	rows, stats := collect(t, wiki, r)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, stats.Rows)

	assert.Equal(t, "Sydney", rows[0].Place1)
	assert.Equal(t, "Melbourne", rows[0].Place2)
	assert.Equal(t, "SW", rows[0].WikiDirection)
	assert.Equal(t, "SW", rows[0].AlgoDirection)
	assert.InDelta(t, -33.87, rows[0].Place1Lat, 1e-9)

	assert.Equal(t, "Melbourne", rows[1].Place1)
	assert.Equal(t, "NE", rows[1].WikiDirection)
	assert.Equal(t, "NE", rows[1].AlgoDirection)
}

func TestRun_DisagreementIsPreservedNotReconciled(t *testing.T) {
	// Wiki claims Brisbane is south-west of Sydney; the calculation says
	// north. Both labels must appear side by side.
	wiki := writeFile(t, "wiki.tsv",
		"nameID\trelation_nearSw\n"+
			"Sydney (NSW)\tBrisbane (Qld)\n")
	mapping := map[string]string{"Sydney (NSW)": "Sydney", "Brisbane (Qld)": "Brisbane"}
	r := NewResolver(testTable, mapping)

	rows, _ := collect(t, wiki, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "SW", rows[0].WikiDirection)
	assert.Equal(t, "N", rows[0].AlgoDirection)
}

func TestRun_DropsUnresolvableNames(t *testing.T) {
	wiki := writeFile(t, "wiki.tsv",
		"nameID\trelation_nearN\n"+
			"Atlantis\tSydney (NSW)\n"+
			"Sydney (NSW)\tAtlantis\n"+
			"Sydney (NSW)\tWikidata|getValue|P1082|FETCH_WIKIDATA\n")
	mapping := map[string]string{"Sydney (NSW)": "Sydney"}
	r := NewResolver(testTable, mapping)

	rows, stats := collect(t, wiki, r)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.DroppedSource)
	assert.Equal(t, 1, stats.DroppedTarget)
}

func TestRun_DropsSelfPairs(t *testing.T) {
	wiki := writeFile(t, "wiki.tsv",
		"nameID\trelation_nearN\n"+
			"Sydney (NSW)\tSydney Alt\n")
	mapping := map[string]string{"Sydney (NSW)": "Sydney", "Sydney Alt": "Sydney"}
	r := NewResolver(testTable, mapping)

	rows, stats := collect(t, wiki, r)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.DroppedSelfPair)
}

func TestRun_MissingNameColumn(t *testing.T) {
	wiki := writeFile(t, "wiki.tsv", "place\trelation_nearN\nSydney\tHornsby\n")
	r := NewResolver(testTable, nil)

	_, err := Run(context.Background(), wiki, r, func(ComparisonRow) error { return nil })
	assert.Error(t, err)
}

func TestCSVWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(ComparisonRow{
		Place1: "Sydney", Place1Lat: -33.87, Place1Lon: 151.21,
		Place2: "Melbourne", Place2Lat: -37.81, Place2Lon: 144.96,
		AlgoDirection: "SW", WikiDirection: "SW",
	}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "place1,place1_latitude,place1_longitude,place2,place2_latitude,place2_longitude,algo_direction,wiki_direction")
	assert.Contains(t, content, "Sydney,-33.87,151.21,Melbourne,-37.81,144.96,SW,SW")
}
