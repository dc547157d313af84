package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustJSON(t *testing.T, s string) *Record {
	t.Helper()
	v, err := ParseJSON([]byte(s))
	require.NoError(t, err)
	require.True(t, v.IsRecord())
	return v.Record()
}

func toJSON(t *testing.T, r *Record) string {
	t.Helper()
	data, err := r.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestRecord_SetKeepsOrder(t *testing.T) {
	r := New()
	r.Set("b", Int(1))
	r.Set("a", Int(2))
	r.Set("b", Int(3))

	assert.Equal(t, []string{"b", "a"}, r.Keys())
	assert.Equal(t, `{"b":3,"a":2}`, toJSON(t, r))

	r.Delete("b")
	assert.Equal(t, []string{"a"}, r.Keys())
	assert.False(t, r.Has("b"))
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, Path{"a", "b", "c"}, ParsePath("a>>>b>>>c", ""))
	assert.Equal(t, Path{"a", "b"}, ParsePath("a.b", "."))
	assert.Equal(t, Path{"single"}, ParsePath("single", DefaultDelimiter))
	assert.Equal(t, "a>>>b", Path{"a", "b"}.Join(""))
}

func TestGet(t *testing.T) {
	r := mustJSON(t, `{
		"Name": "John Doe",
		"Employment": {"Salary": "40000"},
		"Jobs": [
			{"Title": "dev", "Tags": ["go", "sql"]},
			{"Title": "ops"},
			"loose"
		],
		"Scalar": 5
	}`)

	tests := []struct {
		name    string
		path    string
		iterate bool
		want    Value
		found   bool
	}{
		{name: "top level", path: "Name", iterate: true, want: String("John Doe"), found: true},
		{name: "nested", path: "Employment>>>Salary", iterate: false, want: String("40000"), found: true},
		{name: "missing key", path: "Employment>>>Bonus", iterate: true, want: Null(), found: false},
		{name: "dead end on scalar", path: "Scalar>>>x", iterate: true, want: Null(), found: false},
		{name: "list without iteration", path: "Jobs>>>Title", iterate: false, want: Null(), found: false},
		{
			name:    "list with iteration",
			path:    "Jobs>>>Title",
			iterate: true,
			want:    List(String("dev"), String("ops"), String("loose")),
			found:   true,
		},
		{
			name:    "flattens nested lists one level",
			path:    "Jobs>>>Tags",
			iterate: true,
			want:    List(String("go"), String("sql"), Null(), String("loose")),
			found:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Get(ParsePath(tt.path, ""), tt.iterate)
			assert.Equal(t, tt.found, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got.Text())
		})
	}
}

func TestGetOr_Default(t *testing.T) {
	r := New()
	got := r.GetOr(Path{"missing"}, String("fallback"), true)
	assert.Equal(t, "fallback", got.Text())
}

func TestPutThenGet_RoundTrip(t *testing.T) {
	values := []Value{
		String("x"),
		Int(7),
		Float(1.5),
		Bool(true),
		List(String("a"), String("b")),
		List(String("only")),
		FromRecord(FromPairs("k", "v")),
	}

	for _, opts := range []PutOptions{DefaultPutOptions, {IterateLists: false, ReplaceListItems: true}} {
		for _, v := range values {
			r := mustJSON(t, `{"a": {"keep": 1}}`)
			p := ParsePath("a>>>b>>>c", "")
			r.Put(p, v, opts)

			got, ok := r.Get(p, false)
			require.True(t, ok)
			assert.True(t, v.Equal(got), "put %s got %s", v.Text(), got.Text())

			keep, ok := r.Lookup("a>>>keep", "", false)
			require.True(t, ok)
			assert.Equal(t, "1", keep.Text())
		}
	}
}

func TestPut_ExistingListIsNeverEnlarged(t *testing.T) {
	r := mustJSON(t, `{"tags": ["a", "b"]}`)

	r.Put(Path{"tags"}, List(String("x"), String("y"), String("z")), DefaultPutOptions)

	assert.Equal(t, `{"tags":["x","y"]}`, toJSON(t, r))
}

func TestPut_NoIterateReplacesWholeList(t *testing.T) {
	r := mustJSON(t, `{"tags": ["a", "b"]}`)

	r.Put(Path{"tags"}, List(String("x"), String("y"), String("z")), PutOptions{ReplaceListItems: true})

	assert.Equal(t, `{"tags":["x","y","z"]}`, toJSON(t, r))
}

func TestPut_WalksIntermediateList(t *testing.T) {
	r := mustJSON(t, `{"jobs": [{"title": "dev"}, {"title": "ops"}]}`)

	r.Put(ParsePath("jobs>>>upper", ""), List(String("DEV"), String("OPS")), DefaultPutOptions)

	assert.Equal(t, `{"jobs":[{"title":"dev","upper":"DEV"},{"title":"ops","upper":"OPS"}]}`, toJSON(t, r))
}

func TestPut_IntermediateListBroadcastWithoutIteration(t *testing.T) {
	r := mustJSON(t, `{"jobs": [{"title": "dev"}, {"title": "ops"}]}`)

	r.Put(ParsePath("jobs>>>company", ""), String("acme"), PutOptions{ReplaceListItems: true})

	assert.Equal(t, `{"jobs":[{"title":"dev","company":"acme"},{"title":"ops","company":"acme"}]}`, toJSON(t, r))
}

func TestPut_BroadcastCopiesAreIndependent(t *testing.T) {
	r := mustJSON(t, `{"rows": [{"a": 1}, {"a": 2}]}`)

	r.Put(ParsePath("rows>>>tags", ""), List(String("x"), String("y")), PutOptions{ReplaceListItems: true})
	r.Put(ParsePath("rows>>>tags>>>k", ""),
		List(String("p"), String("q"), String("r"), String("s")), DefaultPutOptions)

	assert.Equal(t,
		`{"rows":[{"a":1,"tags":[{"k":"p"},{"k":"q"}]},{"a":2,"tags":[{"k":"r"},{"k":"s"}]}]}`,
		toJSON(t, r))
}

func TestPut_ReplaceListItems(t *testing.T) {
	tests := []struct {
		name    string
		replace bool
		want    string
	}{
		{
			name:    "replace non-record items",
			replace: true,
			want:    `{"items":[{"v":"1"},{"v":"2"}]}`,
		},
		{
			name:    "skip non-record items",
			replace: false,
			want:    `{"items":["loose",{"v":"1"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustJSON(t, `{"items": ["loose", {}]}`)
			r.Put(ParsePath("items>>>v", ""), List(String("1"), String("2")), PutOptions{IterateLists: true, ReplaceListItems: tt.replace})
			assert.Equal(t, tt.want, toJSON(t, r))
		})
	}
}

func TestPut_ScalarOverwrittenByRecord(t *testing.T) {
	r := mustJSON(t, `{"a": "scalar"}`)
	r.Put(ParsePath("a>>>b", ""), String("x"), DefaultPutOptions)
	assert.Equal(t, `{"a":{"b":"x"}}`, toJSON(t, r))
}

func TestPutItems_KeepsListElements(t *testing.T) {
	r := mustJSON(t, `{"rows": [{}, {}]}`)
	items := []Value{List(String("a"), String("b")), String("c")}

	r.PutItems(ParsePath("rows>>>parts", ""), items, DefaultPutOptions)

	assert.Equal(t, `{"rows":[{"parts":["a","b"]},{"parts":"c"}]}`, toJSON(t, r))
}

func TestJSON_PreservesOrderAndNumbers(t *testing.T) {
	src := `{"z":1,"a":[1.5,"x",null,true],"m":{"y":2.0,"b":{}}}`
	r := mustJSON(t, src)

	assert.Equal(t, []string{"z", "a", "m"}, r.Keys())
	assert.Equal(t, src, toJSON(t, r))

	z, _ := r.Field("z")
	assert.Equal(t, int64(1), z.Raw())
}

func TestJSON_BytesEncodeAsBase64(t *testing.T) {
	r := New()
	r.Set("b", Bytes([]byte("hi")))
	assert.Equal(t, `{"b":"aGk="}`, toJSON(t, r))
}

func TestYAML_DecodeKeepsOrder(t *testing.T) {
	src := `
second: 2
first:
  nested: [a, 1, 2.5, true, ~]
base: &base
  x: 1
derived:
  <<: *base
  y: 2
`
	v, err := DecodeYAML(strings.NewReader(src))
	require.NoError(t, err)
	r := v.Record()
	require.NotNil(t, r)

	assert.Equal(t, []string{"second", "first", "base", "derived"}, r.Keys())
	assert.Equal(t,
		`{"second":2,"first":{"nested":["a",1,2.5,true,null]},"base":{"x":1},"derived":{"x":1,"y":2}}`,
		toJSON(t, r))
}

func TestYAML_MarshalOrdered(t *testing.T) {
	r := FromPairs("b", 1, "a", "two", "c", []any{1.0, nil})

	data, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "b: 1\na: two\nc:\n    - 1.0\n    - null\n", string(data))
}

func TestRecord_UnmarshalYAMLField(t *testing.T) {
	var doc struct {
		Params *Record `yaml:"params"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("params:\n  q: go\n  page: 2\n"), &doc))
	require.NotNil(t, doc.Params)
	assert.Equal(t, []string{"q", "page"}, doc.Params.Keys())
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "54000.0", Float(54000).Text())
	assert.Equal(t, "1.25", Float(1.25).Text())
	assert.Equal(t, "12", Int(12).Text())
	assert.Equal(t, `["a",1]`, List(String("a"), Int(1)).Text())
}

func TestValue_CloneIsDeep(t *testing.T) {
	orig := FromRecord(FromPairs("a", []any{"x"}))
	cp := orig.Clone()
	cp.Record().Set("a", String("changed"))

	a, _ := orig.Record().Field("a")
	assert.True(t, a.IsList())
}
