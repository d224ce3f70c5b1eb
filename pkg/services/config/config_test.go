package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, s.HTTPTimeout)
	assert.Equal(t, 2, s.SchemaVersion)
	assert.Equal(t, DefaultProfile, s.CredentialsProfile)
	assert.Equal(t, 8080, s.Server.Port)
	assert.Empty(t, s.Archive.Bucket)
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_base_url: http://localhost:9000/api
schema_version: 1
template_dir: /srv/plantillas
server:
  port: 9090
archive:
  bucket: reportes
`), 0o644))
	t.Setenv("AAPSLAB_HTTP_TIMEOUT", "5s")
	t.Setenv("AAPSLAB_ARCHIVE_PREFIX", "poa")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api", s.APIBaseURL)
	assert.Equal(t, 1, s.SchemaVersion)
	assert.Equal(t, "/srv/plantillas", s.TemplateDir)
	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, 5*time.Second, s.HTTPTimeout)
	assert.Equal(t, "reportes", s.Archive.Bucket)
	assert.Equal(t, "poa", s.Archive.Prefix)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("unsupported schema", func(t *testing.T) {
		t.Setenv("AAPSLAB_SCHEMA_VERSION", "3")
		_, err := LoadSettings("")
		assert.ErrorContains(t, err, "invalid settings")
	})

	t.Run("bad url", func(t *testing.T) {
		t.Setenv("AAPSLAB_API_BASE_URL", "not a url")
		_, err := LoadSettings("")
		assert.ErrorContains(t, err, "APIBaseURL")
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cfg", ".aapslabcfg")

	r, err := NewRegistry(path)
	require.NoError(t, err)

	profiles, err := r.GetProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = r.GetCredentials(ctx, "staging")
	assert.ErrorContains(t, err, "profile staging not found")

	require.NoError(t, r.SaveToken(ctx, DefaultProfile, Credentials{Host: "https://datos.aaps.gob.bo/api", Token: "abc123"}))
	require.NoError(t, r.SaveToken(ctx, "staging", Credentials{Host: "http://localhost:9000"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewRegistry(path)
	require.NoError(t, err)

	profiles, err = reopened.GetProfiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{DefaultProfile, "staging"}, profiles)

	creds, err := reopened.GetCredentials(ctx, DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Host: "https://datos.aaps.gob.bo/api", Token: "abc123"}, creds)

	creds, err = reopened.GetCredentials(ctx, "staging")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, "http://localhost:9000", creds.Host)
}
