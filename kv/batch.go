package kv

import (
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

type command struct {
	name string
	args []any
}

// Batch is an ordered list of commands executed as one pipeline:
// every command is written to the transport before any reply is read,
// then exactly len(batch) replies are drained in issue order.
type Batch struct {
	cmds []command
}

func (b *Batch) Add(name string, args ...any) {
	b.cmds = append(b.cmds, command{name: name, args: args})
}

func (b *Batch) Len() int {
	return len(b.cmds)
}

// RunBatch executes the batch on the client's connection.
//
// An error reply for any command makes RunBatch return ErrCommandFailed, but
// the remaining replies are still drained so the connection stays usable.
// Already-applied commands are not rolled back. A transport failure while
// issuing or draining means the reply stream no longer lines up with the
// command stream; the client is poisoned and returns ErrProtocolDesync from
// then on.
func (c *Client) RunBatch(b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.guard(); err != nil {
		return err
	}

	for _, cmd := range b.cmds {
		if err := c.conn.Send(cmd.name, cmd.args...); err != nil {
			c.broken = true
			c.log.Error("kv: pipeline send failed", "cmd", cmd.name, "err", err)
			return fmt.Errorf("%w: send %s: %v", ErrProtocolDesync, cmd.name, err)
		}
	}
	if err := c.conn.Flush(); err != nil {
		c.broken = true
		c.log.Error("kv: pipeline flush failed", "err", err)
		return fmt.Errorf("%w: flush: %v", ErrProtocolDesync, err)
	}

	var cmdErr error
	for i, cmd := range b.cmds {
		_, err := c.conn.Receive()
		if err == nil {
			continue
		}
		var re redis.Error
		if errors.As(err, &re) {
			// an error reply still counts as a reply; keep draining
			if cmdErr == nil {
				cmdErr = fmt.Errorf("%w: %s: %s", ErrCommandFailed, cmd.name, re.Error())
			}
			continue
		}
		c.broken = true
		c.log.Error("kv: pipeline desync", "replies", i, "issued", len(b.cmds), "err", err)
		return fmt.Errorf("%w: got %d of %d replies: %v", ErrProtocolDesync, i, len(b.cmds), err)
	}
	return cmdErr
}
