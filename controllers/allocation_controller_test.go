package controllers

import (
	"errors"
	"testing"

	"wms-app/wms/allocation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func resetEngineRegistry() {
	enginesLock.Lock()
	defer enginesLock.Unlock()
	engines = make(map[string]*allocation.Engine)
}

func TestEngineForResolvesConnectionFromUnitKey(t *testing.T) {
	origResolver := unitDB
	defer func() {
		unitDB = origResolver
		resetEngineRegistry()
	}()
	resetEngineRegistry()

	var resolved []string
	unitDB = func(dbName string) (*gorm.DB, error) {
		resolved = append(resolved, dbName)
		return &gorm.DB{}, nil
	}

	engineA, err := engineFor("wms_unit_a", "WH01")
	require.NoError(t, err)
	engineB, err := engineFor("wms_unit_b", "WH01")
	require.NoError(t, err)

	assert.NotSame(t, engineA, engineB)
	assert.Equal(t, "WH01", engineA.WhsCode())
	// The connection is looked up by the unit in the registry key, never
	// taken from whatever a request handler happened to carry.
	assert.Equal(t, []string{"wms_unit_a", "wms_unit_b"}, resolved)

	again, err := engineFor("wms_unit_a", "WH01")
	require.NoError(t, err)
	assert.Same(t, engineA, again)
	assert.Len(t, resolved, 2)
}

func TestEngineForKeepsOneEnginePerWarehouse(t *testing.T) {
	origResolver := unitDB
	defer func() {
		unitDB = origResolver
		resetEngineRegistry()
	}()
	resetEngineRegistry()

	unitDB = func(dbName string) (*gorm.DB, error) {
		return &gorm.DB{}, nil
	}

	wh01, err := engineFor("wms_unit", "WH01")
	require.NoError(t, err)
	wh02, err := engineFor("wms_unit", "WH02")
	require.NoError(t, err)

	assert.NotSame(t, wh01, wh02)
	assert.Equal(t, "WH02", wh02.WhsCode())
}

func TestEngineForConnectionFailureNotCached(t *testing.T) {
	origResolver := unitDB
	defer func() {
		unitDB = origResolver
		resetEngineRegistry()
	}()
	resetEngineRegistry()

	unitDB = func(dbName string) (*gorm.DB, error) {
		return nil, errors.New("login failed")
	}
	_, err := engineFor("wms_unit", "WH01")
	require.Error(t, err)

	unitDB = func(dbName string) (*gorm.DB, error) {
		return &gorm.DB{}, nil
	}
	engine, err := engineFor("wms_unit", "WH01")
	require.NoError(t, err)
	assert.NotNil(t, engine)
}
