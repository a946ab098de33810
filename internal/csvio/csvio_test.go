package csvio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_Basic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rowCh, errCh := Stream(context.Background(), strings.NewReader(input), Options{})
	rows, err := Drain(rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}

func TestStream_SemicolonDelimited(t *testing.T) {
	input := "Abbotsford (Vic.);Abbotsford\nSt Kilda;St Kilda\n"
	rowCh, errCh := Stream(context.Background(), strings.NewReader(input), Options{Delimiter: ';'})
	rows, err := Drain(rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Abbotsford (Vic.)", "Abbotsford"}, rows[0])
}

func TestStream_TabDelimitedWithHeader(t *testing.T) {
	input := "nameID\trelation_nearN\nSydney\tHornsby\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := Stream(context.Background(), strings.NewReader(input), Options{
		Delimiter: '\t',
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	rows, err := Drain(rowCh, errCh)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Sydney", "Hornsby"}, rows[0])
	assert.Equal(t, []string{"nameID", "relation_nearN"}, <-headerCh)
}

func TestStream_TrimSpace(t *testing.T) {
	input := " a , b \n"
	rowCh, errCh := Stream(context.Background(), strings.NewReader(input), Options{TrimSpace: true})
	rows, err := Drain(rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestStream_VariableFieldCounts(t *testing.T) {
	input := "a,b,c\n1,2\n"
	rowCh, errCh := Stream(context.Background(), strings.NewReader(input), Options{})
	rows, err := Drain(rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 2)
}

func TestStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := Stream(ctx, strings.NewReader("a,b\nc,d\n"), Options{})
	_, err := Drain(rowCh, errCh)
	assert.Error(t, err)
}

func TestStream_Empty(t *testing.T) {
	rowCh, errCh := Stream(context.Background(), strings.NewReader(""), Options{})
	rows, err := Drain(rowCh, errCh)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
