package broker

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRabbit_NoURLIsNoop(t *testing.T) {
	r, err := NewRabbit("", "ebookstore.events")
	require.NoError(t, err)
	assert.Nil(t, r)

	assert.NoError(t, r.Publish(context.Background(), "receipt.issued", []byte(`{}`)))
	assert.NoError(t, r.Close())
}

func TestRabbit_Publish(t *testing.T) {
	url := os.Getenv("RABBITMQ_TEST_URL")
	if url == "" {
		t.Skip("Skipping test: RABBITMQ_TEST_URL not set")
	}

	r, err := NewRabbit(url, "ebookstore.events.test")
	require.NoError(t, err)
	defer r.Close()

	assert.NoError(t, r.Publish(context.Background(), "receipt.issued", []byte(`{"reference":"ref-1"}`)))
}
