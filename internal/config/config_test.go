package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalSettingParsesValue(t *testing.T) {
	viper.Set("TEST_DECIMAL_OK", "7.7")
	d, err := decimalSetting("TEST_DECIMAL_OK")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("7.7")))
}

func TestDecimalSettingRejectsGarbage(t *testing.T) {
	viper.Set("TEST_DECIMAL_BAD", "ten")
	_, err := decimalSetting("TEST_DECIMAL_BAD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_DECIMAL_BAD")
}

func TestLoadConfigFailsOnUnparsableTolerance(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	env := "RECON_HOURS_TOLERANCE=ten\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	_, err = LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECON_HOURS_TOLERANCE")
}
