package kv

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afinana/go-server-petstore/utils"
)

// scriptConn is a redis.Conn whose replies are scripted ahead of time.
// A reply may be a value or an error; running out of replies means the
// server went quiet mid-drain.
type scriptConn struct {
	sent    []string
	flushes int
	replies []any
	pos     int
	closed  bool
}

func (c *scriptConn) Close() error { c.closed = true; return nil }
func (c *scriptConn) Err() error   { return nil }

func (c *scriptConn) Do(cmd string, args ...any) (any, error) {
	if err := c.Send(cmd, args...); err != nil {
		return nil, err
	}
	if err := c.Flush(); err != nil {
		return nil, err
	}
	return c.Receive()
}

func (c *scriptConn) Send(cmd string, args ...any) error {
	c.sent = append(c.sent, fmt.Sprint(append([]any{cmd}, args...)...))
	return nil
}

func (c *scriptConn) Flush() error { c.flushes++; return nil }

func (c *scriptConn) Receive() (any, error) {
	if c.pos >= len(c.replies) {
		return nil, io.EOF
	}
	reply := c.replies[c.pos]
	c.pos++
	if err, ok := reply.(error); ok {
		return nil, err
	}
	return reply, nil
}

func testLogger() utils.Logger {
	return utils.NewDefaultLogger(slog.LevelError)
}

func newBatch(n int) *Batch {
	var b Batch
	for i := 0; i < n; i++ {
		b.Add("SADD", "set", i)
	}
	return &b
}

func TestBatchAppendThenDrain(t *testing.T) {
	conn := &scriptConn{replies: []any{int64(1), int64(1), "OK"}}
	client := Wrap(conn, testLogger())

	var b Batch
	b.Add("SADD", "pets:status:available", "1")
	b.Add("SADD", "pets", "1")
	b.Add("SET", "pets:1", "{}")
	require.NoError(t, client.RunBatch(&b))

	assert.Equal(t, 3, len(conn.sent), "all commands issued before any reply is read")
	assert.Equal(t, 1, conn.flushes, "one flush per batch")
	assert.Equal(t, 3, conn.pos, "exactly one reply drained per command")
}

func TestBatchErrorReplyStillDrains(t *testing.T) {
	conn := &scriptConn{replies: []any{int64(1), redis.Error("WRONGTYPE"), int64(1)}}
	client := Wrap(conn, testLogger())

	err := client.RunBatch(newBatch(3))
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Equal(t, 3, conn.pos, "remaining replies must be drained")

	// an error reply is the store's answer, not a desync; the
	// connection stays usable
	conn.replies = append(conn.replies, int64(1))
	assert.NoError(t, client.RunBatch(newBatch(1)))
}

func TestBatchDesyncIsFatal(t *testing.T) {
	conn := &scriptConn{replies: []any{int64(1), int64(1)}}
	client := Wrap(conn, testLogger())

	err := client.RunBatch(newBatch(3))
	assert.ErrorIs(t, err, ErrProtocolDesync, "2 replies for 3 commands")

	// the connection must not be reused for anything
	issued := len(conn.sent)
	assert.ErrorIs(t, client.RunBatch(newBatch(1)), ErrProtocolDesync)
	assert.ErrorIs(t, client.RunBatch(newBatch(2)), ErrProtocolDesync)
	_, err = client.Do("GET", "pets:1")
	assert.ErrorIs(t, err, ErrProtocolDesync)
	assert.Equal(t, issued, len(conn.sent), "no further commands reach the wire")
}

func TestBatchEmptyIsNoop(t *testing.T) {
	conn := &scriptConn{}
	client := Wrap(conn, testLogger())
	assert.NoError(t, client.RunBatch(&Batch{}))
	assert.Empty(t, conn.sent)
}

func TestClosedClient(t *testing.T) {
	conn := &scriptConn{}
	client := Wrap(conn, testLogger())
	require.NoError(t, client.Close())
	assert.True(t, conn.closed)

	assert.ErrorIs(t, client.RunBatch(newBatch(1)), ErrClosed)
	_, err := client.Do("GET", "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, client.Close(), "closing twice is fine")
}
