package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/oxypet/petcare-ai-platform/internal/config"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

func TestBuildPoolRequiresDatabaseURL(t *testing.T) {
	_, err := BuildPool(context.Background(), &appconfig.Config{})
	assert.Error(t, err)

	_, err = BuildPool(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), nil, nil, false))
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, false))
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	require.NotNil(t, client)
	defer client.Close()

	mr.Close()
	down := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	assert.Nil(t, down)
}

func TestBuildOpenAIClientRequiresKey(t *testing.T) {
	_, err := BuildOpenAIClient(&appconfig.Config{})
	assert.Error(t, err)

	client, err := BuildOpenAIClient(&appconfig.Config{OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestBuildServicesValidatesInputs(t *testing.T) {
	_, err := BuildServices(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
