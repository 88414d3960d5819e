package constants

import (
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVersion(t *testing.T) {
	versionPattern := `^\d+\.\d+\.\d+(-[\w\.-]+)?$`
	assert.Regexp(t, regexp.MustCompile(versionPattern), DefaultVersion)
}

func TestBuildDefaultsNotEmpty(t *testing.T) {
	for name, value := range map[string]string{
		"DefaultBuildTime": DefaultBuildTime,
		"DefaultGitCommit": DefaultGitCommit,
		"DefaultGoVersion": DefaultGoVersion,
	} {
		assert.NotEmpty(t, value, name)
	}
}

func TestDefaultServerURL(t *testing.T) {
	u, err := url.Parse(DefaultServerURL)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.NotEmpty(t, u.Host)
}

func TestPaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultConfigPath, ".toml"))
	assert.True(t, strings.HasSuffix(DefaultEnvPath, ".env"))
}

func TestRoutes(t *testing.T) {
	for _, r := range []string{RouteTask, RouteTaskResult, RouteHealth, RouteStats} {
		assert.True(t, strings.HasPrefix(r, "/"), r)
	}
	assert.True(t, strings.HasPrefix(RouteTaskResult, RouteTask+"/"))
}
