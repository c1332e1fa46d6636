// Command dhcp6ctl talks to a running dhcp6d's UNIX control socket,
// sending one of the "stats", "reload", or "shutdown" commands and
// rendering the response.
package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var socketPath string

	root := &cobra.Command{
		Use:           "dhcp6ctl",
		Short:         "control a running dhcp6d over its UNIX control socket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", "/run/dhcp6d.sock", "path to the control socket")

	exitCode := 0
	fail := func(err error) error {
		fmt.Fprintln(os.Stderr, errStyle.Render("error:"), err)
		exitCode = 1
		return nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "print message-type and disposition counters",
		RunE: func(*cobra.Command, []string) error {
			out, err := sendCommand(socketPath, "stats")
			if err != nil {
				return fail(err)
			}
			printStats(out)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "rebuild the registry and pipeline from configuration",
		RunE: func(*cobra.Command, []string) error {
			out, err := sendCommand(socketPath, "reload")
			if err != nil {
				return fail(err)
			}
			if strings.HasPrefix(out, "error:") {
				fmt.Fprintln(os.Stderr, errStyle.Render(strings.TrimSpace(out)))
				exitCode = 1
				return nil
			}
			fmt.Println(color.GreenString("reload ok"))
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "shutdown",
		Short: "ask the server to shut down cleanly",
		RunE: func(*cobra.Command, []string) error {
			out, err := sendCommand(socketPath, "shutdown")
			if err != nil {
				return fail(err)
			}
			if strings.HasPrefix(out, "error:") {
				fmt.Fprintln(os.Stderr, errStyle.Render(strings.TrimSpace(out)))
				exitCode = 1
				return nil
			}
			fmt.Println(color.YellowString("shutdown requested"))
			return nil
		},
	})
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

// responseWait bounds how long sendCommand waits for a reply before
// deciding the server has nothing more to say. The control connection
// stays open after a "stats"/"reload" reply (only "shutdown" closes it
// server-side), so there's no EOF to read until; a short idle deadline is
// the only way to know the response is complete.
const responseWait = 2 * time.Second

// sendCommand writes cmd followed by a newline to the control socket at
// path and returns everything the server replies with before the
// connection goes idle for responseWait.
func sendCommand(path, cmd string) (string, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, cmd); err != nil {
		return "", err
	}

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(responseWait))
		n, err := conn.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return sb.String(), err
		}
	}
	return sb.String(), nil
}

// printStats renders the key=value counter dump with lipgloss-highlighted
// keys, one line per counter.
func printStats(dump string) {
	for _, line := range strings.Split(strings.TrimRight(dump, "\n"), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			fmt.Println(line)
			continue
		}
		fmt.Println(keyStyle.Render(fields[0]), fields[1])
	}
}
