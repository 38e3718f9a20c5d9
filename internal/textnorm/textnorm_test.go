package textnorm_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aharnip2705/studylab-sub000/internal/textnorm"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "carsamba", textnorm.Fold("ÇARŞAMBA"))
	assert.Equal(t, "sali", textnorm.Fold("Salı"))
	assert.Equal(t, "istatistik", textnorm.Fold("İstatistik"))
	assert.Equal(t, "turk dili ve edebiyati", textnorm.Fold("  Türk   Dili ve Edebiyatı "))
}

func TestParseDay_AllSpellings(t *testing.T) {
	cases := map[textnorm.Day][]string{
		textnorm.Monday:    {"Pazartesi", "PAZARTESİ", "pazartesi", "Monday", "MONDAY", "mon"},
		textnorm.Tuesday:   {"Salı", "sali", "SALI", "Tuesday", "tuesday"},
		textnorm.Wednesday: {"Çarşamba", "carsamba", "ÇARŞAMBA", "Carsamba", "Wednesday"},
		textnorm.Thursday:  {"Perşembe", "persembe", "PERŞEMBE", "Thursday"},
		textnorm.Friday:    {"Cuma", "cuma", "CUMA", "Friday"},
		textnorm.Saturday:  {"Cumartesi", "cumartesi", "CUMARTESİ", "Saturday", "Saturday:"},
		textnorm.Sunday:    {"Pazar", "pazar", "PAZAR", "Sunday", " sunday "},
	}

	for want, labels := range cases {
		for _, label := range labels {
			got, err := textnorm.ParseDay(label)
			require.NoError(t, err, label)
			assert.Equal(t, want, got, label)
		}
	}
}

func TestParseDay_Unknown(t *testing.T) {
	for _, label := range []string{"", "Someday", "Pazartesi Salı", "day 1", "weekend", "cumartesii"} {
		_, err := textnorm.ParseDay(label)
		assert.ErrorIs(t, err, textnorm.ErrUnknownDay, label)
	}
}

func TestDayOrder(t *testing.T) {
	for i, d := range textnorm.Week {
		assert.Equal(t, i, int(d))
	}
	assert.Equal(t, "wednesday", textnorm.Wednesday.Key())
	assert.Equal(t, "Çarşamba", textnorm.Wednesday.Turkish())
}

func TestCoerceMinutes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"float", 90.0, 90},
		{"rounded", 44.6, 45},
		{"int", 30, 30},
		{"json number", json.Number("120"), 120},
		{"numeric string", "75", 75},
		{"string with unit", "45 dk", 45},
		{"string with english unit", "50 min", 50},
		{"missing", nil, textnorm.DefaultMinutes},
		{"zero", 0.0, textnorm.DefaultMinutes},
		{"negative", -30.0, textnorm.DefaultMinutes},
		{"non numeric", "a while", textnorm.DefaultMinutes},
		{"hours are not minutes", "2 saat", textnorm.DefaultMinutes},
		{"bool", true, textnorm.DefaultMinutes},
		{"object", map[string]any{"m": 5}, textnorm.DefaultMinutes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textnorm.CoerceMinutes(tt.in))
		})
	}
}

func TestMatchSubject(t *testing.T) {
	catalog := []string{"Matematik", "Geometri", "Türkçe", "Fizik", "Kimya", "Türk Dili ve Edebiyatı"}

	idx, ok := textnorm.MatchSubject("TYT Matematik", catalog)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = textnorm.MatchSubject("turkce", catalog)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = textnorm.MatchSubject("Türk Dili ve Edebiyatı paragraf", catalog)
	require.True(t, ok)
	assert.Equal(t, 5, idx, "longest containing name wins")

	idx, ok = textnorm.MatchSubject("FİZİK", catalog)
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = textnorm.MatchSubject("Biyoloji", catalog)
	assert.False(t, ok)

	_, ok = textnorm.MatchSubject("", catalog)
	assert.False(t, ok)
}

func TestMatchSubject_TiesKeepCatalogOrder(t *testing.T) {
	idx, ok := textnorm.MatchSubject("math", []string{"Math A", "Math B"})
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}
