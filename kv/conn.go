// Package kv wraps a single long-lived Redis connection and exposes the
// pipelined batch primitive the document store is built on. The command and
// reply streams of one connection are strictly ordered and not reentrant, so
// a mutex serializes whole issue-and-drain sequences.
package kv

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/afinana/go-server-petstore/utils"
)

var (
	ErrClosed = errors.New("kv: client is closed")

	// ErrProtocolDesync marks a connection whose reply stream can no longer
	// be trusted: the number of replies read did not match the number of
	// commands issued. The client refuses all further use; the caller must
	// Close it and Open a fresh one.
	ErrProtocolDesync = errors.New("kv: pipeline desync, reopen the connection")

	ErrCommandFailed = errors.New("kv: command failed")
)

type Options struct {
	Addr           string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func (o *Options) SetDefaults() {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:6379"
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 1500 * time.Millisecond
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 30 * time.Second
	}
}

// Client is a single shared connection to the store. All operations are
// synchronous and none are retried; connection-level failures surface to the
// caller as ErrProtocolDesync or the underlying dial/IO error.
type Client struct {
	lock   sync.Mutex
	conn   redis.Conn
	broken bool
	log    utils.Logger
	opts   Options
}

// Open dials the store with a bounded connect timeout.
func Open(opts Options, log utils.Logger) (*Client, error) {
	opts.SetDefaults()
	conn, err := redis.Dial("tcp", opts.Addr,
		redis.DialConnectTimeout(opts.ConnectTimeout),
		redis.DialReadTimeout(opts.ReadTimeout),
		redis.DialWriteTimeout(opts.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kv: dial %s: %w", opts.Addr, err)
	}
	log.Info("kv: connected", "addr", opts.Addr)
	return &Client{conn: conn, log: log, opts: opts}, nil
}

// Wrap builds a Client around an existing connection. Used by tests.
func Wrap(conn redis.Conn, log utils.Logger) *Client {
	return &Client{conn: conn, log: log}
}

func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// guard reports whether the connection may be used. Callers hold c.lock.
func (c *Client) guard() error {
	if c.broken {
		return ErrProtocolDesync
	}
	if c.conn == nil {
		return ErrClosed
	}
	return nil
}

// Do issues a single command and waits for its reply. An error reply from
// the store comes back wrapped in ErrCommandFailed; a transport failure
// poisons the connection.
func (c *Client) Do(cmd string, args ...any) (any, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.guard(); err != nil {
		return nil, err
	}
	reply, err := c.conn.Do(cmd, args...)
	if err == nil {
		return reply, nil
	}
	var re redis.Error
	if errors.As(err, &re) {
		return nil, fmt.Errorf("%w: %s: %s", ErrCommandFailed, cmd, re.Error())
	}
	c.broken = true
	c.log.Error("kv: connection failure", "cmd", cmd, "err", err)
	return nil, fmt.Errorf("%w: %s: %v", ErrProtocolDesync, cmd, err)
}

// Get reads a string key. A missing key is (_, false, nil), not an error.
func (c *Client) Get(key string) (string, bool, error) {
	reply, err := c.Do("GET", key)
	if err != nil {
		return "", false, err
	}
	if reply == nil {
		return "", false, nil
	}
	s, err := redis.String(reply, nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: GET %s: %v", ErrCommandFailed, key, err)
	}
	return s, true, nil
}

// Members lists a set. A missing set is an empty slice.
func (c *Client) Members(key string) ([]string, error) {
	reply, err := c.Do("SMEMBERS", key)
	if err != nil {
		return nil, err
	}
	members, err := redis.Strings(reply, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: SMEMBERS %s: %v", ErrCommandFailed, key, err)
	}
	return members, nil
}
