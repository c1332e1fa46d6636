package stats

import (
	"bufio"
	"net"
	"os"
	"strings"
)

// ReloadFunc is invoked when a "reload" command is received on the
// control channel. It returns an error string to report back to the
// client, or "" on success.
type ReloadFunc func() string

// ShutdownFunc is invoked when a "shutdown" command is received.
type ShutdownFunc func()

// ControlServer implements the UNIX-socket, newline-delimited text
// protocol: "stats", "reload", "shutdown".
type ControlServer struct {
	Counters *Counters
	Reload   ReloadFunc
	Shutdown ShutdownFunc

	ln net.Listener
}

// Listen opens the control socket at path, removing any stale socket file
// left behind by a previous, uncleanly-terminated process.
func (c *ControlServer) Listen(path string) error {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	c.ln = ln
	return nil
}

// Serve accepts connections until the listener is closed.
func (c *ControlServer) Serve() error {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			return err
		}
		go c.handle(conn)
	}
}

// Close closes the control socket.
func (c *ControlServer) Close() error {
	if c.ln == nil {
		return nil
	}
	return c.ln.Close()
}

func (c *ControlServer) handle(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "stats":
			conn.Write([]byte(c.Counters.Snapshot()))
		case "reload":
			msg := "ok\n"
			if c.Reload != nil {
				if errMsg := c.Reload(); errMsg != "" {
					msg = "error: " + errMsg + "\n"
				}
			}
			conn.Write([]byte(msg))
		case "shutdown":
			conn.Write([]byte("ok\n"))
			if c.Shutdown != nil {
				c.Shutdown()
			}
			return
		default:
			conn.Write([]byte("error: unknown command\n"))
		}
	}
}
