package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"narrator/internal/logging"
	"narrator/internal/services"
)

const defaultTimeout = 5 * time.Second

// errPropertyUnavailable is mpv's reply for properties with no value yet,
// such as time-pos before a file is loaded.
const errPropertyUnavailable = "property unavailable"

// Options configures a spawned mpv process.
type Options struct {
	Binary     string
	SocketPath string
	// AudioOnly disables video output.
	AudioOnly bool
	// RewindOnStop makes Stop pause and rewind instead of unloading the
	// file, so Play can resume after a stop.
	RewindOnStop bool
	Timeout      time.Duration
	Logger       *slog.Logger
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
}

// Client talks to one mpv instance.
type Client struct {
	mu           sync.Mutex
	conn         net.Conn
	reader       *bufio.Reader
	nextID       int64
	timeout      time.Duration
	rewindOnStop bool
	logger       *slog.Logger

	cmd        *exec.Cmd
	socketPath string
}

// Start launches mpv in idle mode and connects to its IPC socket.
func Start(ctx context.Context, opts Options) (*Client, error) {
	binary := opts.Binary
	if binary == "" {
		binary = "mpv"
	}
	if opts.SocketPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "player", "start mpv", "socket path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(opts.SocketPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "player", "start mpv", "create socket directory", err)
	}
	_ = os.Remove(opts.SocketPath)

	args := []string{
		"--idle=yes",
		"--input-ipc-server=" + opts.SocketPath,
		"--no-terminal",
		"--pause",
		"--keep-open=yes",
	}
	if opts.AudioOnly {
		args = append(args, "--vid=no", "--force-window=no")
	} else {
		args = append(args, "--force-window=yes")
	}

	cmd := exec.Command(binary, args...)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "player", "start mpv", "mpv binary not found", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "player", "start mpv", "launch mpv", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := dialWithRetry(dialCtx, opts.SocketPath)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, services.Wrap(services.ErrTimeout, "player", "start mpv", "connect to mpv ipc socket", err)
	}

	client := newClient(conn, opts)
	client.cmd = cmd
	client.socketPath = opts.SocketPath
	client.logger.Debug("mpv started",
		logging.String("socket", opts.SocketPath),
		logging.Bool("audio_only", opts.AudioOnly),
		logging.Int("pid", cmd.Process.Pid),
	)
	return client, nil
}

// Dial connects to an already running mpv IPC socket.
func Dial(ctx context.Context, socketPath string, opts Options) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "player", "dial mpv", "connect to mpv ipc socket", err)
	}
	return newClient(conn, opts), nil
}

func newClient(conn net.Conn, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		timeout:      timeout,
		rewindOnStop: opts.RewindOnStop,
		logger:       logging.NewComponentLogger(opts.Logger, "mpv"),
	}
}

func dialWithRetry(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Command sends one IPC command and returns the reply's data field.
func (c *Client) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode mpv command: %w", err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	defer func() { _ = c.conn.SetDeadline(time.Time{}) }()

	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return nil, c.transportError(args, err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, c.transportError(args, err)
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			c.logger.Debug("ignoring unparseable mpv message", logging.String("line", string(line)))
			continue
		}
		if resp.Event != "" {
			c.logEvent(resp)
			continue
		}
		if resp.RequestID != id {
			continue
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, &CommandError{Command: fmt.Sprint(args...), Message: resp.Error}
		}
		return resp.Data, nil
	}
}

func (c *Client) transportError(args []any, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "player", "mpv ipc", fmt.Sprintf("no reply to %v", args), err)
	}
	return services.Wrap(services.ErrExternalTool, "player", "mpv ipc", fmt.Sprintf("send %v", args), err)
}

func (c *Client) logEvent(resp response) {
	if resp.Event == "end-file" && resp.Reason == "error" {
		logging.WarnWithContext(c.logger, "mpv could not play file", "mpv_end_file_error",
			logging.String(logging.FieldImpact, "media stopped"),
			logging.String(logging.FieldErrorHint, "check that the file is a supported media format"),
		)
		return
	}
	c.logger.Debug("mpv event", logging.String("event", resp.Event))
}

// CommandError is an error reply from mpv.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.Command, e.Message)
}

// SetProperty sets an mpv property.
func (c *Client) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}

// FloatProperty reads a numeric property. Unavailable properties read as 0.
func (c *Client) FloatProperty(ctx context.Context, name string) (float64, error) {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.Message == errPropertyUnavailable {
			return 0, nil
		}
		return 0, err
	}
	if len(data) == 0 || string(data) == "null" {
		return 0, nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return 0, fmt.Errorf("decode mpv %s: %w", name, err)
	}
	return value, nil
}

// Close asks mpv to quit and releases the connection.
func (c *Client) Close() error {
	if c.cmd != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, _ = c.Command(ctx, "quit")
		cancel()
	}
	err := c.conn.Close()
	if c.cmd != nil {
		done := make(chan struct{})
		go func() {
			_ = c.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = c.cmd.Process.Kill()
			<-done
		}
		_ = os.Remove(c.socketPath)
	}
	return err
}
