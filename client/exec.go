package client

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/gong-cli/gong/protocol"
	"github.com/google/uuid"
)

// Result holds the output of one remote command execution. It is complete
// once returned: all stdout and stderr chunks received before the exit
// chunk, concatenated in arrival order per stream.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Execute runs one command on the server and blocks until the exit chunk
// arrives. Arguments are positional and sent in the given order. Any I/O
// failure mid-execution leaves the connection in an indeterminate state;
// callers should Close and treat the execution as failed.
func (c *Client) Execute(command string, args ...string) (*Result, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}

	log := c.log.With("ExecutionID", uuid.NewString(), "Command", command)
	log.Debugw("starting execution", "Args", args)

	for _, arg := range args {
		if err := c.writeChunk(protocol.KindArgument, []byte(arg)); err != nil {
			return nil, err
		}
	}
	for _, entry := range c.environ() {
		if err := c.writeChunk(protocol.KindEnvironment, []byte(entry)); err != nil {
			return nil, err
		}
	}
	wd, err := c.workdir()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	if err := c.writeChunk(protocol.KindCurrentDir, []byte(wd)); err != nil {
		return nil, err
	}
	if err := c.writeChunk(protocol.KindCommand, []byte(command)); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	for {
		chunk, err := c.readChunk()
		if err != nil {
			return nil, err
		}
		switch chunk.Kind {
		case protocol.KindStdout:
			stdout.Write(chunk.Payload)
		case protocol.KindStderr:
			stderr.Write(chunk.Payload)
		case protocol.KindExit:
			code, err := strconv.Atoi(strings.TrimSpace(string(chunk.Payload)))
			if err != nil {
				return nil, fmt.Errorf("%w: exit status %q", protocol.ErrBadPayload, chunk.Payload)
			}
			log.Debugw("execution finished", "ExitCode", code)
			return &Result{
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: code,
			}, nil
		default:
			// sendinput: no interactive stdin support.
			log.Debugw("ignoring chunk", "Kind", chunk.Kind.String())
		}
	}
}
