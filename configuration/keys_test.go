package configuration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awsview/configuration"
	"awsview/errors"
)

const sampleKeys = `
[production]
key = AKIAPRODUCTION
secret = prodsecret

[staging]
key = AKIASTAGING
secret = stagingsecret

[half]
key = AKIAHALF

[empty]

[production.eu]
key = AKIAEU

[Mixed]
Key = AKIAMIXED
SECRET = mixedsecret
`

func writeKeys(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadKeyStore_Sections(t *testing.T) {
	store, err := configuration.LoadKeyStore(writeKeys(t, sampleKeys))
	require.NoError(t, err)

	assert.Equal(t, []string{"production", "staging", "half", "empty", "production.eu", "Mixed"}, store.Sections())
	assert.True(t, store.Has("staging"))
	assert.False(t, store.Has("DEFAULT"))
	assert.False(t, store.Has("missing"))
}

func TestLoadKeyStore_MissingFile(t *testing.T) {
	_, err := configuration.LoadKeyStore(filepath.Join(t.TempDir(), "nope.cfg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigKeysFile))
	assert.True(t, errors.IsConfigError(err))
}

func TestKeyStore_Credential(t *testing.T) {
	store, err := configuration.LoadKeyStore(writeKeys(t, sampleKeys))
	require.NoError(t, err)

	tests := []struct {
		name     string
		section  string
		expected configuration.Credential
		errType  errors.ErrorType
	}{
		{
			name:    "complete section",
			section: "production",
			expected: configuration.Credential{
				Name:      "production",
				AccessKey: "AKIAPRODUCTION",
				SecretKey: "prodsecret",
			},
		},
		{
			name:    "unknown section",
			section: "nope",
			errType: errors.ErrConfigMissingSection,
		},
		{
			name:    "secret missing",
			section: "half",
			errType: errors.ErrConfigMissingKey,
		},
		{
			name:    "both keys missing",
			section: "empty",
			errType: errors.ErrConfigMissingKey,
		},
		{
			name:    "dotted section does not inherit from its prefix",
			section: "production.eu",
			errType: errors.ErrConfigMissingKey,
		},
		{
			name:    "option names ignore case",
			section: "Mixed",
			expected: configuration.Credential{
				Name:      "Mixed",
				AccessKey: "AKIAMIXED",
				SecretKey: "mixedsecret",
			},
		},
		{
			name:    "section names keep case",
			section: "mixed",
			errType: errors.ErrConfigMissingSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := store.Credential(tt.section)
			if tt.errType != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.errType))
				assert.True(t, errors.IsConfigError(err))
				assert.Equal(t, configuration.Credential{}, cred, "no partial credential on error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cred)
		})
	}
}

func TestKeyStore_DefaultSectionFallback(t *testing.T) {
	store, err := configuration.LoadKeyStore(writeKeys(t, `
secret = shared

[one]
key = AKIAONE
`))
	require.NoError(t, err)

	cred, err := store.Credential("one")
	require.NoError(t, err)
	assert.Equal(t, "shared", cred.SecretKey)
}

func TestKeyStore_LoadSections(t *testing.T) {
	store, err := configuration.LoadKeyStore(writeKeys(t, `
[a]
key = K1
secret = S1

[b]
key = K2
secret = S2
`))
	require.NoError(t, err)

	all, err := store.LoadSections()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "K2", all["b"].AccessKey)

	broken, err := configuration.LoadKeyStore(writeKeys(t, sampleKeys))
	require.NoError(t, err)
	_, err = broken.LoadSections()
	assert.True(t, errors.Is(err, errors.ErrConfigMissingKey))
}
