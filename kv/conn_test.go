package kv

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Open(Options{Addr: mr.Addr()}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestOpenFailure(t *testing.T) {
	_, err := Open(Options{Addr: "127.0.0.1:1"}, testLogger())
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	client, mr := newTestClient(t)

	_, found, err := client.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mr.Set("pets:1", `{"id":1}`))
	value, found, err := client.Get("pets:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":1}`, value)
}

func TestMembers(t *testing.T) {
	client, mr := newTestClient(t)

	members, err := client.Members("missing")
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = mr.SetAdd("pets", "1", "2")
	require.NoError(t, err)
	members, err = client.Members("pets")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)
}

func TestDoCommandError(t *testing.T) {
	client, mr := newTestClient(t)

	require.NoError(t, mr.Set("str", "v"))
	_, err := client.Do("SMEMBERS", "str")
	assert.ErrorIs(t, err, ErrCommandFailed, "WRONGTYPE is a command error")

	// the reply stream is still aligned, the connection survives
	_, found, err := client.Get("str")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBatchAgainstServer(t *testing.T) {
	client, mr := newTestClient(t)

	var b Batch
	b.Add("SADD", "pets:status:available", "1")
	b.Add("SADD", "pets", "1")
	b.Add("SET", "pets:1", `{"id":1,"status":"available"}`)
	require.NoError(t, client.RunBatch(&b))

	members, err := mr.Members("pets:status:available")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)
	got, err := mr.Get("pets:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"status":"available"}`, got)
}
