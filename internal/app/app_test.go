package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshare-backend/internal/config"
	"bookshare-backend/internal/repository/memory"
)

func TestBuild_MemoryStore(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Type: config.StoreMemory}}

	deps, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer deps.Close()

	assert.IsType(t, &memory.Store{}, deps.Store)
	assert.NotNil(t, deps.Notifier)
	assert.NotNil(t, deps.Clock)
}

func TestOpenStore_Errors(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{Store: config.StoreConfig{Type: config.StoreFirestore}}, nil)
	assert.Error(t, err)

	_, err = OpenStore(context.Background(), &config.Config{Store: config.StoreConfig{Type: "mongo"}}, nil)
	assert.Error(t, err)
}
