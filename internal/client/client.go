// Package client implements the finger query side: open a connection, send
// one request line, read until the server closes.
package client

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// DefaultPort is the standard finger protocol port.
const DefaultPort = 79

// Query sends a finger request for selector to host:port and returns the
// server's full response. An empty selector asks for the project listing;
// long requests the detailed format. Any transport failure (refused
// connection, resolution failure, read or write error) is returned as an
// error; any response at all, including protocol-level error text, is a
// success.
func Query(ctx context.Context, logger zerolog.Logger, host string, port int, selector string, long bool) (string, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	logger.Debug().Str("addr", addr).Str("selector", selector).Bool("long", long).Msg("connecting")

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	request := selector
	if long {
		request = "-l " + request
	}
	request = fmt.Sprintf("%s@%s\r\n", request, host)

	if _, err := conn.Write([]byte(request)); err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}

	// The server writes one response and closes; read to EOF.
	response, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	logger.Debug().
		Str("size", humanize.Bytes(uint64(len(response)))).
		Msg("received response")

	return string(response), nil
}
