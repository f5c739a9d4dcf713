package logoff

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// URLSink receives the end session URL once the logoff flow decides the
// server session should be terminated. It owns how the user gets there.
type URLSink interface {
	Navigate(ctx context.Context, url string) error
}

// HandoffFunc adapts a caller function to a URLSink, for hosts that perform
// the redirect themselves.
type HandoffFunc func(ctx context.Context, url string) error

func (f HandoffFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// DetectNavigator attempts to find the best way to open a URL in the user's
// browser. If there is none for the system, it defaults to printing the URL
// to the console so the user can click on it.
func DetectNavigator() URLSink {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("open"); err == nil {
			return &CommandNavigator{CommandName: path}
		}
	case "linux":
		if path, err := exec.LookPath("xdg-open"); err == nil {
			return &CommandNavigator{CommandName: path}
		}
	}
	return &EchoNavigator{}
}

// CommandNavigator opens a URL by executing a command with the URL as the
// first argument.
type CommandNavigator struct {
	CommandName string
}

func (n *CommandNavigator) Navigate(ctx context.Context, url string) error {
	return exec.CommandContext(ctx, n.CommandName, url).Run()
}

// EchoNavigator prints the URL for the user to open manually. Out defaults
// to stdout.
type EchoNavigator struct {
	Out io.Writer
}

func (n *EchoNavigator) Navigate(_ context.Context, url string) error {
	out := n.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintf(out, "To finish signing out, open this URL in a browser: %s\n", url)
	return err
}
