package ecosystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EmbeddedDefault(t *testing.T) {
	config := loadTestConfig(t)

	assert.Equal(t, []EcosystemID{EcosystemPyPI, EcosystemNPM}, config.IDs())

	eco, ok := config.Lookup("pypi")
	require.True(t, ok)
	assert.Equal(t, "requests", eco.ProbePackage)

	_, ok = config.Lookup("crates.io")
	assert.False(t, ok)
}

func TestLoadConfig_HomeDirectoryOverridesDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".licensecheck")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ecosystems.yaml"), []byte(`
ecosystems:
  - id: PyPI
    registry_url: "https://mirror.example.com/pypi/{name}/json"
`), 0o644))

	config, err := LoadConfig("", []byte(testConfigYAML))
	require.NoError(t, err)

	eco, ok := config.Lookup(EcosystemPyPI)
	require.True(t, ok)
	assert.Equal(t, "https://mirror.example.com/pypi/{name}/json", eco.RegistryURL)
	assert.Len(t, config.Ecosystems, 1)
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eco.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ecosystems:
  - id: npm
    registry_url: "http://localhost:4873/{name}"
`), 0o644))

	config, err := LoadConfig(path, []byte(testConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, []EcosystemID{EcosystemNPM}, config.IDs())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "ecosystems: [\n"},
		{name: "missing placeholder", data: "ecosystems:\n  - id: PyPI\n    registry_url: https://pypi.org/pypi\n"},
		{name: "missing id", data: "ecosystems:\n  - registry_url: https://pypi.org/{name}\n"},
		{name: "bad manifest regex", data: "ecosystems:\n  - id: PyPI\n    registry_url: https://pypi.org/{name}\n    manifests:\n      - name: x\n        path_regex: '('\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig("", []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestPackageURL(t *testing.T) {
	assert.Equal(t, "https://pypi.org/pypi/django/json", PackageURL("https://pypi.org/pypi/{name}/json", "django"))
	assert.Equal(t, "https://registry.npmjs.org/a%2Fb", PackageURL("https://registry.npmjs.org/{name}", "a/b"))
}

func TestPackageIdentity_String(t *testing.T) {
	assert.Equal(t, "PyPI:django", PackageIdentity{Ecosystem: EcosystemPyPI, Name: "django"}.String())
	assert.Equal(t, "npm:@types/node", PackageIdentity{Ecosystem: EcosystemNPM, Name: "@types/node"}.String())
}
