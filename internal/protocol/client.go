package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrRemote is wrapped by errors the daemon reported in a Response.
var ErrRemote = errors.New("daemon error")

// Send delivers c to the daemon listening on socketPath and returns its
// response. A Response with status "error" is returned together with an error
// wrapping ErrRemote.
func Send(socketPath string, c Command, timeout time.Duration) (Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return Response{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	data, err := MarshalCommand(c)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return Response{}, fmt.Errorf("send command: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return resp, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	return resp, nil
}
