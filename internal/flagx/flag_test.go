package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var skydriveFlags = []string{"-d", "-b", "-a", "-o"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "config flags are dropped, own flags kept",
			args: []string{"-c", "conf.json", "-d", "postgres://db", "-env", ".env"},
			want: []string{"-d", "postgres://db"},
		},
		{
			name: "equals form",
			args: []string{"-a=:8080", "--config=alt.json", "-o=https://drive.example"},
			want: []string{"-a=:8080", "-o=https://drive.example"},
		},
		{
			name: "trailing flag without value",
			args: []string{"-b", "files", "-a"},
			want: []string{"-b", "files", "-a"},
		},
		{
			name: "dash-prefixed next token is not a value",
			args: []string{"-b", "-a", ":9090"},
			want: []string{"-b", "-a", ":9090"},
		},
		{
			name: "positional arguments ignored",
			args: []string{"upload", "report.pdf"},
			want: []string{},
		},
		{
			name: "repeats keep order",
			args: []string{"-b", "one", "-x", "1", "-b", "two"},
			want: []string{"-b", "one", "-b", "two"},
		},
		{
			name: "nil args",
			args: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, skydriveFlags))
		})
	}
}

func TestStringFlag(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		names []string
		want  string
	}{
		{"short", []string{"-c", "a.json"}, []string{"c", "config"}, "a.json"},
		{"long double dash", []string{"--config", "b.json"}, []string{"c", "config"}, "b.json"},
		{"last wins", []string{"-c", "1.json", "-config=2.json"}, []string{"c", "config"}, "2.json"},
		{"foreign flags around", []string{"-d", "x", "-origin", "https://drive.example", "-b", "y"}, []string{"origin"}, "https://drive.example"},
		{"absent", []string{"-d", "x"}, []string{"env"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StringFlag(tt.args, tt.names...))
		})
	}
}

func TestOSArgsHelpers(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"skydrive", "-d", "postgres://db", "-config", "/etc/skydrive.json", "-env", ".env.local"}
	assert.Equal(t, "/etc/skydrive.json", JsonConfigFlags())
	assert.Equal(t, ".env.local", EnvFileFlags())

	os.Args = []string{"skydrive"}
	assert.Empty(t, JsonConfigFlags())
	assert.Empty(t, EnvFileFlags())
}
