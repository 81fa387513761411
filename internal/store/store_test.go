package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	assert.Equal(t, "features/"+id, FeaturesKey(id))
	assert.Equal(t, "reports/"+id, ReportKey(id))
	assert.NotEqual(t, id, NewRunID())
}
