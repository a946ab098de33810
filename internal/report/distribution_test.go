package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shardHeader = "city1_name,city1_latitude,city1_longitude,city2_name,city2_latitude,city2_longitude,direction\n"

func writeShard(t *testing.T, dir, name string, rows ...string) {
	t.Helper()
	content := shardHeader
	for _, r := range rows {
		content += r + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirectionDistribution(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, dir, "city_relations_part_1_of_2.csv",
		"A,-33,151,B,-37,144,SW",
		"B,-37,144,A,-33,151,NE",
		"A,-33,151,C,-27,153,N",
	)
	writeShard(t, dir, "city_relations_part_2_of_2.csv",
		"C,-27,153,A,-33,151,S",
		"C,-27,153,B,-37,144,SW",
	)

	dist, err := DirectionDistribution(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, dist.Files)
	assert.EqualValues(t, 5, dist.Total)
	assert.EqualValues(t, 2, dist.Counts["SW"])
	assert.EqualValues(t, 1, dist.Counts["NE"])
	assert.InDelta(t, 40.0, dist.Percent("SW"), 1e-9)
	assert.Equal(t, []string{"N", "NE", "S", "SW"}, dist.Labels())
}

func TestDirectionDistribution_NoShards(t *testing.T) {
	_, err := DirectionDistribution(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestDirectionDistribution_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeShard(t, dir, "city_relations_part_1_of_1.csv", "A,-33,151,B,-37,144,W")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x,y\n1,2\n"), 0o644))

	dist, err := DirectionDistribution(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, dist.Files)
	assert.EqualValues(t, 1, dist.Total)
}
