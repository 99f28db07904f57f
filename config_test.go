package filterform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfigIsValid keeps the defaults self-consistent.
func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, 32, config.Compiler.MaxDepth)
	assert.Equal(t, "filter_configurations", config.Database.ConfigurationTable)
}

// TestConfigValidate reports the offending field.
func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	config.Compiler.MaxDepth = 0
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler.maxDepth")

	config = DefaultConfig()
	config.Catalog.S3.Enabled = true
	err = config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.s3.bucket")

	config = DefaultConfig()
	config.Database.ConfigurationTable = ""
	assert.Error(t, config.Validate())
}
