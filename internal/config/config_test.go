package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultRollWindowSeconds, cfg.RollWindowSeconds)
	assert.True(t, cfg.RemindersEnabled)
}

func TestRollWindowSeconds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "unset uses default", raw: "", want: DefaultRollWindowSeconds},
		{name: "zero selects calendar-day mode", raw: "0", want: 0},
		{name: "explicit window", raw: "3600", want: 3600},
		{name: "garbage selects calendar-day mode", raw: "abc", want: 0},
		{name: "negative selects calendar-day mode", raw: "-5", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.raw != "" {
				t.Setenv("ROLL_WINDOW_SECONDS", tt.raw)
			}
			assert.Equal(t, tt.want, rollWindowSeconds())
		})
	}
}

func TestParseUserIDs(t *testing.T) {
	ids, err := parseUserIDs("101, 202,303")
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 202, 303}, ids)

	ids, err = parseUserIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseUserIDs("101,abc")
	assert.Error(t, err)
}

func TestGetDBConnString(t *testing.T) {
	cfg := &Config{
		DBUser:     "bot",
		DBPassword: "secret",
		DBHost:     "db",
		DBPort:     "5433",
		DBName:     "core",
	}
	assert.Equal(t, "postgres://bot:secret@db:5433/core?sslmode=disable", cfg.GetDBConnString())
}
