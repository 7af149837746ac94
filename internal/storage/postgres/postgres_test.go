package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	config, err := poolConfig("postgres://app:pw@db.local:5432/alpha_move", 7)
	require.NoError(t, err)
	assert.Equal(t, int32(7), config.MaxConns)
	assert.Equal(t, maxConnIdleTime, config.MaxConnIdleTime)
	assert.Equal(t, healthCheckPeriod, config.HealthCheckPeriod)
	assert.Equal(t, applicationName, config.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "alpha_move", config.ConnConfig.Database)
}

func TestPoolConfig_KeepsDSNSettings(t *testing.T) {
	config, err := poolConfig("postgres://db.local/alpha_move?pool_max_conns=3&application_name=importer", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), config.MaxConns)
	assert.Equal(t, "importer", config.ConnConfig.RuntimeParams["application_name"])

	_, err = poolConfig("postgres://db.local:notaport/alpha_move", 0)
	assert.Error(t, err)
}
