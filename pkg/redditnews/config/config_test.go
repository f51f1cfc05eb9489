package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyIntegrity(t *testing.T) {
	require.NoError(t, VerifyIntegrity(Defaults))

	t.Run("line endings are ignored", func(t *testing.T) {
		crlf := []byte{}
		for _, b := range Defaults {
			if b == '\n' {
				crlf = append(crlf, '\r')
			}
			crlf = append(crlf, b)
		}
		assert.NoError(t, VerifyIntegrity(crlf))
	})

	t.Run("edited defaults fail", func(t *testing.T) {
		edited := append([]byte{}, Defaults...)
		edited = append(edited, []byte("backlog = 1\n")...)
		err := VerifyIntegrity(edited)
		var ie *IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, CanonicalHash, ie.Want)
		assert.Equal(t, Hash(edited), ie.Got)
	})
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Defaults, "", Args{Port: 8080, Root: "public"})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "public", cfg.Root)
	assert.Equal(t, 128, cfg.Backlog)
	assert.Equal(t, 4096, cfg.BlockSize)
	assert.Equal(t, 8, cfg.MaxThreads)
	assert.True(t, cfg.BlockOnRead)
	assert.Equal(t, time.Second, cfg.SelectTimeout)
	assert.False(t, cfg.CachingEnabled())
	assert.Equal(t, `text/.*|application/(javascript|json|xml)|image/svg\+xml`, cfg.CompressTypePattern)
	assert.Equal(t, []string{"Server: reddit-news"}, cfg.AdditionalHeaders)
	assert.Empty(t, cfg.ClientIDHeader)
	assert.Empty(t, cfg.Blacklist)
	assert.Nil(t, cfg.BlacklistResponse)
	assert.True(t, cfg.EnablePost)
	assert.Equal(t, "teapot.png", cfg.TeapotImage)
	assert.Equal(t, "/moo(/.*)?", cfg.MooPattern)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.Stream)
	assert.Equal(t, 1024, cfg.CacheEntries)
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(`[DEFAULT]
max_threads = 0
select_timeout = None
connection_blacklist = 10.0.0.1, 10.0.0.2
blacklist_response = HTTP/1.1 403 Forbidden\r\nConnection: close\r\n\r\n
client_identification_header = X-Forwarded-For
loglevel = VERBOSE
force_caching = true
default_caching_duration = 60
`), 0o644))

	cfg, err := Load(Defaults, path, Args{})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxThreads)
	assert.Negative(t, cfg.SelectTimeout)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Blacklist)
	assert.Equal(t, "HTTP/1.1 403 Forbidden\r\nConnection: close\r\n\r\n", string(cfg.BlacklistResponse))
	assert.Equal(t, "X-Forwarded-For", cfg.ClientIDHeader)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 60*time.Second, cfg.Caching)
}

func TestLoadMissingOverride(t *testing.T) {
	cfg, err := Load(Defaults, filepath.Join(t.TempDir(), "absent.ini"), Args{})
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Backlog)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"non-numeric", "backlog = many", "backlog"},
		{"negative threads", "max_threads = -1", "max_threads"},
		{"bad bool", "enable_post = perhaps", "enable_post"},
		{"bad level", "loglevel = loud", "loglevel"},
		{"bad stream", "logstream = stdlog", "logstream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.ini")
			require.NoError(t, os.WriteFile(path, []byte("[DEFAULT]\n"+tt.body+"\n"), 0o644))
			_, err := Load(Defaults, path, Args{})
			var ke *KeyError
			require.ErrorAs(t, err, &ke)
			assert.Equal(t, tt.key, ke.Key)
		})
	}
}

func TestLoadCaching(t *testing.T) {
	cfg, err := Load(Defaults, "", Args{Caching: CachingDefault})
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, cfg.Caching)

	cfg, err = Load(Defaults, "", Args{Caching: 42})
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, cfg.Caching)
}

func TestLoadLogFlagsWin(t *testing.T) {
	args, err := ParseArgs([]string{"8080", "public", "--log-level", "error", "--log-as-json"})
	require.NoError(t, err)
	cfg, err := Load(Defaults, "", args)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		caching int
	}{
		{"no caching", []string{"8080", "public"}, 0},
		{"bare flag", []string{"8080", "public", "-c"}, CachingDefault},
		{"compact", []string{"8080", "public", "-c300"}, 300},
		{"separate value", []string{"8080", "public", "-c", "300"}, 300},
		{"equals", []string{"8080", "public", "-c=120"}, 120},
		{"long", []string{"8080", "public", "--caching=90"}, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseArgs(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, 8080, a.Port)
			assert.Equal(t, "public", a.Root)
			assert.Equal(t, tt.caching, a.Caching)
			assert.Equal(t, "config.ini", a.ConfigPath)
			assert.False(t, a.LogLevelSet)
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	for _, argv := range [][]string{
		{},
		{"8080"},
		{"port", "public"},
		{"70000", "public"},
		{"8080", "public", "extra"},
		{"8080", "public", "-cabc"},
		{"8080", "public", "--unknown"},
	} {
		_, err := ParseArgs(argv)
		assert.True(t, IsUsage(err), "argv %v: %v", argv, err)
	}
}
