package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedMap(t *testing.T) {
	Env = map[string]string{"FUNDFOX_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("FUNDFOX_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("FUNDFOX_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("FUNDFOX_MISSING_KEY", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"WORKERS":  "7",
		"BROKEN":   "seven",
		"ENABLED":  "true",
		"THROTTLE": "45s",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 7, GetEnvInt("WORKERS", 3))
	assert.Equal(t, 3, GetEnvInt("BROKEN", 3))
	assert.Equal(t, 3, GetEnvInt("ABSENT", 3))
	assert.True(t, GetEnvBool("ENABLED", false))
	assert.False(t, GetEnvBool("ABSENT", false))
	assert.Equal(t, 45*time.Second, GetEnvDuration("THROTTLE", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("BROKEN", time.Minute))
}

func TestIsDev(t *testing.T) {
	Env = map[string]string{"APP_ENV": "dev"}
	t.Cleanup(func() { Env = nil })
	assert.True(t, IsDev())

	Env = map[string]string{"APP_ENV": "prod"}
	assert.False(t, IsDev())
}
