package broadcast

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/extracthttp-go/internal/record"
)

func ints(ns ...int64) record.Value {
	items := make([]record.Value, len(ns))
	for i, n := range ns {
		items[i] = record.Int(n)
	}
	return record.List(items...)
}

func texts(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		for _, v := range row {
			if v.IsNull() {
				out[i] = append(out[i], "<nil>")
				continue
			}
			out[i] = append(out[i], v.Text())
		}
	}
	return out
}

func TestIterator(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		it := NewIterator(ints(1, 2))

		v, ok := it.Next()
		assert.True(t, ok)
		assert.Equal(t, "1", v.Text())
		_, ok = it.Next()
		assert.True(t, ok)
		assert.False(t, it.Exhausted())

		v, ok = it.Next()
		assert.False(t, ok)
		assert.True(t, it.Exhausted())
		assert.Equal(t, "2", v.Text())

		v, ok = it.Next()
		assert.False(t, ok)
		assert.Equal(t, "2", v.Text())
	})

	t.Run("scalar yields once", func(t *testing.T) {
		it := NewIterator(record.String("x"))
		v, ok := it.Next()
		assert.True(t, ok)
		assert.Equal(t, "x", v.Text())
		_, ok = it.Next()
		assert.False(t, ok)
	})

	t.Run("null yields once", func(t *testing.T) {
		it := NewIterator(record.Null())
		v, ok := it.Next()
		assert.True(t, ok)
		assert.True(t, v.IsNull())
		_, ok = it.Next()
		assert.False(t, ok)
	})

	t.Run("empty list never yields", func(t *testing.T) {
		it := NewIterator(record.List())
		v, ok := it.Next()
		assert.False(t, ok)
		assert.True(t, v.IsNull())
	})
}

func TestZip(t *testing.T) {
	tests := []struct {
		name       string
		repeatLast bool
		cols       []record.Value
		want       [][]string
	}{
		{
			name:       "scalar repeats across longest list",
			repeatLast: true,
			cols:       []record.Value{ints(1, 2, 3), record.String("x")},
			want:       [][]string{{"1", "x"}, {"2", "x"}, {"3", "x"}},
		},
		{
			name:       "scalar is null after first row without repeat",
			repeatLast: false,
			cols:       []record.Value{ints(1, 2), record.String("x")},
			want:       [][]string{{"1", "x"}, {"2", "<nil>"}},
		},
		{
			name:       "shorter list padded with null",
			repeatLast: false,
			cols:       []record.Value{ints(1, 2, 3), ints(9)},
			want:       [][]string{{"1", "9"}, {"2", "<nil>"}, {"3", "<nil>"}},
		},
		{
			name:       "shorter list repeats last",
			repeatLast: true,
			cols:       []record.Value{ints(1, 2, 3), ints(9)},
			want:       [][]string{{"1", "9"}, {"2", "9"}, {"3", "9"}},
		},
		{
			name:       "falsy values do not stop the zip",
			repeatLast: false,
			cols:       []record.Value{ints(0, 0), record.List(record.String(""), record.Null())},
			want:       [][]string{{"0", ""}, {"0", "<nil>"}},
		},
		{
			name:       "empty lists yield nothing",
			repeatLast: false,
			cols:       []record.Value{record.List(), record.List()},
			want:       [][]string{},
		},
		{
			name:       "scalars only yield a single row",
			repeatLast: true,
			cols:       []record.Value{record.String("a"), record.Int(1)},
			want:       [][]string{{"a", "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Zip(tt.repeatLast, tt.cols...)
			assert.Equal(t, tt.want, texts(rows), spew.Sdump(rows))
		})
	}
}

func TestZip_NoColumns(t *testing.T) {
	assert.Empty(t, Zip(true))
}

func TestZipRecords(t *testing.T) {
	recs := ZipRecords(false,
		[]string{"title", "link"},
		[]record.Value{
			record.List(record.String("a"), record.String("b")),
			record.List(record.String("/a")),
		},
	)

	require.Len(t, recs, 2)
	data, err := recs[0].MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"a","link":"/a"}`, string(data))
	data, err = recs[1].MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"b","link":null}`, string(data))
}
