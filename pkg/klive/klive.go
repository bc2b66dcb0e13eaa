package klive

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/picforge/pkg/cache"
	"github.com/matzehuels/picforge/pkg/errors"
)

// DefaultAddr is the address of the KLayout live-view server.
const DefaultAddr = "localhost:8082"

// Request asks the viewer to open a layout.
type Request struct {
	GDS        string `json:"gds"`
	Lyrdb      string `json:"lyrdb,omitempty"`
	Technology string `json:"technology,omitempty"`
}

// Reply is the viewer's answer. Servers that close the connection without
// answering are reported as Status "ok".
type Reply struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}

// Client talks to a live-view server.
type Client struct {
	Addr     string
	Timeout  time.Duration // per attempt
	Attempts int
	Delay    time.Duration // before the first retry
	Logger   *log.Logger
}

// New returns a client for addr, or DefaultAddr when addr is empty.
func New(addr string) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Client{
		Addr:     addr,
		Timeout:  3 * time.Second,
		Attempts: 2,
		Delay:    200 * time.Millisecond,
		Logger:   log.New(io.Discard),
	}
}

// Show sends req and waits for the reply.
func (c *Client) Show(ctx context.Context, req Request) (*Reply, error) {
	if req.GDS == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no layout file to show")
	}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	line = append(line, '\n')

	var reply *Reply
	err = cache.Retry(ctx, c.Attempts, c.Delay, func() error {
		var err error
		reply, err = c.roundTrip(ctx, line)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeViewer, err, "no layout viewer at %s", c.Addr)
	}
	c.Logger.Debug("viewer accepted layout", "addr", c.Addr, "gds", req.GDS, "status", reply.Status)
	if reply.Status == "error" {
		return reply, errors.New(errors.ErrCodeViewer, "viewer rejected %s: %s", req.GDS, reply.Message)
	}
	return reply, nil
}

func (c *Client) roundTrip(ctx context.Context, line []byte) (*Reply, error) {
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, transient(err)
	}
	defer conn.Close()
	if c.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.Timeout))
	}
	if _, err := conn.Write(line); err != nil {
		return nil, transient(err)
	}

	data, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		return nil, transient(err)
	}
	if len(data) == 0 {
		return &Reply{Status: "ok"}, nil
	}
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode viewer reply")
	}
	if reply.Status == "" {
		reply.Status = "ok"
	}
	return &reply, nil
}

// transient marks timeouts as retryable. A refused connection means no
// viewer is running and is returned as is.
func transient(err error) error {
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return cache.Retryable(err)
	}
	return err
}
