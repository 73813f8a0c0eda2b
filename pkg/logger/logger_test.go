package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestNewLogger_StampsServiceAndFieldNames(t *testing.T) {
	log := NewLogger("marketplace", "debug")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithCaller("alice").Info("question created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "marketplace", entry["service"])
	assert.Equal(t, "alice", entry["caller"])
	assert.Equal(t, "question created", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestUnaryServerInterceptor(t *testing.T) {
	log := NewLogger("marketplace", "info")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	interceptor := UnaryServerInterceptor(log)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-42"))
	info := &grpc.UnaryServerInfo{FullMethod: "/myqa.marketplace.v1.MarketplaceService/BuyListedKey"}

	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, "gRPC request failed")
	assert.Contains(t, out, "BuyListedKey")
}
