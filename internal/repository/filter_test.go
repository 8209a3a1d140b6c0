package repository

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
)

func TestFilterString(t *testing.T) {
	id := uuid.MustParse("6a1f0c1e-54a4-4e51-9b0e-0f1f9f7cdf10")

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"empty", nil, ""},
		{"eq uuid", Eq("to", id), `to = "6a1f0c1e-54a4-4e51-9b0e-0f1f9f7cdf10"`},
		{"and", Eq("from", "a").And(Eq("to", "b")), `from = "a" && to = "b"`},
		{"has", Has("members", "u1"), `members ?= "u1"`},
		{"escapes", Like("name", `say "hi" \o/`), `name ~ "say \"hi\" \\o/"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.String())
		})
	}
}

func TestParseFilterRoundTrip(t *testing.T) {
	inputs := []Filter{
		Eq("from", "a").And(Eq("to", "b")),
		NotEq("owner", "x"),
		Has("members", "u1").And(Like("name", `q"uo\te`)),
	}

	for _, f := range inputs {
		parsed, err := ParseFilter(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestParseFilterAcceptsSingleQuotes(t *testing.T) {
	f, err := ParseFilter(`from='a' &&to = 'b'`)
	require.NoError(t, err)
	assert.Equal(t, Eq("from", "a").And(Eq("to", "b")), f)
}

func TestParseFilterErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing operator", `from "a"`},
		{"bad field", `1from = "a"`},
		{"unquoted", `from = a`},
		{"unterminated", `from = "a`},
		{"dangling and", `from = "a" &&`},
		{"or is unsupported", `from = "a" || to = "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.input)
			require.Error(t, err)

			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Eq("server", "x").Validate())
	assert.Error(t, Eq("data->>'x'", "x").Validate())
	assert.Error(t, Where("name", Op(">"), "x").Validate())
}

func TestFilterMatch(t *testing.T) {
	doc := map[string]any{
		"name":    "General Chat",
		"owner":   "u1",
		"members": []any{"u1", "u2"},
		"friends": nil,
		"version": float64(3),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty matches", nil, true},
		{"eq", Eq("owner", "u1"), true},
		{"eq mismatch", Eq("owner", "u2"), false},
		{"not eq", NotEq("owner", "u2"), true},
		{"like is case insensitive", Like("name", "general"), true},
		{"like miss", Like("name", "random"), false},
		{"has", Has("members", "u2"), true},
		{"has miss", Has("members", "u3"), false},
		{"has on null", Has("friends", "u1"), false},
		{"like array element", Like("members", "2"), true},
		{"eq on array never matches", Eq("members", "u1"), false},
		{"missing field eq empty", Eq("missing", ""), true},
		{"missing field not eq", NotEq("missing", "x"), true},
		{"number", Eq("version", "3"), true},
		{"conjunction", Eq("owner", "u1").And(Has("members", "u3")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(doc))
		})
	}
}

func TestDocumentFields(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	s := &domain.Server{Name: "x", OwnerID: u1, Members: []uuid.UUID{u1, u2}}

	doc, err := DocumentFields(s)
	require.NoError(t, err)

	assert.True(t, Has("members", u2).Match(doc))
	assert.True(t, Eq("owner", u1).Match(doc))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%100\%\_a\\b%`, LikePattern(`100%_a\b`))
}

func TestListOptionsOffset(t *testing.T) {
	assert.Equal(t, 0, ListOptions{}.Offset())
	assert.Equal(t, 0, ListOptions{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, ListOptions{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, ListOptions{Page: 3}.Offset())
}
