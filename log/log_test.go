package log

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func resetLogger() {
	// set clear logger as default
	baseLogger = zerolog.New(os.Stderr)
	// set flag off
	isLogInit = false
}

func createConfigAndSetEnv(text string) error {
	tmpfile, err := ioutil.TempFile("", "paymasterlog")
	if err != nil {
		return err
	}
	if _, err := tmpfile.Write([]byte(text)); err != nil {
		return err
	}
	if err := tmpfile.Close(); err != nil {
		return err
	}

	envKey := confEnvPrefix + "_" + confFilePathKey
	os.Unsetenv(envKey)
	os.Setenv(envKey, tmpfile.Name())

	return nil
}

func createCleanLogger(configText string, moduleName string) (*Logger, error) {
	resetLogger()
	if err := createConfigAndSetEnv(configText); err != nil {
		return nil, err
	}
	return NewLogger(moduleName), nil
}

func TestDefaultConfig(t *testing.T) {
	logger := Default()
	assert.Equal(t, "info", logger.Level())
}

func TestBasicLevel(t *testing.T) {
	configStr := `
	level = "error"
	`

	logger, err := createCleanLogger(configStr, "ledger")
	if err != nil {
		assert.Fail(t, err.Error())
	}

	assert.Equal(t, "error", logger.Level())
}

func TestSubLevel(t *testing.T) {
	configStr := `
	level = "error"

	[paymaster]
	level = "warn"
	`

	logger, err := createCleanLogger(configStr, "paymaster")
	if err != nil {
		assert.Fail(t, err.Error())
	}

	// check global level of default logger
	assert.Equal(t, "error", Default().Level())

	// check sub logger level
	assert.Equal(t, "warn", logger.Level())
}

func TestIsDebugEnabled(t *testing.T) {
	configStr := `
	level = "debug"
	`

	logger, err := createCleanLogger(configStr, "paymaster")
	if err != nil {
		assert.Fail(t, err.Error())
	}

	assert.True(t, logger.IsDebugEnabled())
}
