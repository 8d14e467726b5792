package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "postgres://db", "-a", ":8080"},
			allowed: []string{"-d"},
			want:    []string{"-d", "postgres://db"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=prod.json", "-a", ":8080"},
			allowed: []string{"-c", "--config"},
			want:    []string{"--config=prod.json"},
		},
		{
			name:    "order preserved",
			args:    []string{"-a", ":1", "-x", "y", "-d", "dsn"},
			allowed: []string{"-a", "-d"},
			want:    []string{"-a", ":1", "-d", "dsn"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "flag at the end without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next argument is a flag",
			args:    []string{"-c", "-v"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "nil args",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFilePath(t *testing.T) {
	assert.Equal(t, "a.json", ConfigFilePath([]string{"-a", ":80", "-c", "a.json"}))
	assert.Equal(t, "b.json", ConfigFilePath([]string{"-config", "b.json"}))
	assert.Equal(t, "c.json", ConfigFilePath([]string{"-config=c.json", "-d", "dsn"}))
	assert.Equal(t, "", ConfigFilePath([]string{"-d", "dsn"}))
	assert.Equal(t, "", ConfigFilePath(nil))
}
