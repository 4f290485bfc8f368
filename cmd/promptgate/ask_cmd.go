package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fentz26/promptgate/internal/bridge"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	askOptions  []string
	askMarkdown bool
	askTimeout  time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the operator a question and print their answer",
	Long: `Sends a confirmation request to a running popup over the bridge socket.
When no popup is running, spawns a one-shot popup and waits for it. The
answer is printed to stdout; a cancelled request exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := bridge.Request{
			ID:                uuid.NewString(),
			Message:           args[0],
			PredefinedOptions: askOptions,
			IsMarkdown:        askMarkdown,
		}

		if bridge.IsRunning(appCfg.SocketPath) {
			return askViaBridge(req)
		}
		return askViaSpawn(req)
	},
}

func init() {
	askCmd.Flags().StringSliceVar(&askOptions, "option", nil, "predefined answer option (repeatable)")
	askCmd.Flags().BoolVar(&askMarkdown, "markdown", false, "render the message as markdown")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 0, "give up waiting after this long (0 = wait indefinitely)")
}

func askViaBridge(req bridge.Request) error {
	c, err := bridge.Dial(appCfg.SocketPath)
	if err != nil {
		return fmt.Errorf("connecting to popup: %w", err)
	}
	defer c.Close()

	resp, err := c.Send(req, askTimeout)
	if err != nil {
		return err
	}
	if !resp.Accepted {
		return fmt.Errorf("user cancelled the operation")
	}
	fmt.Println(resp.Content)
	return nil
}

// askViaSpawn runs a one-shot popup as a child process: the request goes in
// via a temp file, the answer comes back on the child's stdout.
func askViaSpawn(req bridge.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "promptgate-req-*.json")
	if err != nil {
		return fmt.Errorf("writing request file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing request file: %w", err)
	}
	f.Close()

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmdArgs := []string{"popup", "--request", f.Name()}
	if configPath != "" {
		cmdArgs = append(cmdArgs, "--config", configPath)
	}

	var out bytes.Buffer
	child := exec.Command(exe, cmdArgs...)
	child.Stdin = os.Stdin
	child.Stderr = os.Stderr // the popup renders here
	child.Stdout = &out
	if err := child.Run(); err != nil {
		return fmt.Errorf("spawning popup: %w", err)
	}

	content := strings.TrimRight(out.String(), "\n")
	if content == "" {
		return fmt.Errorf("user cancelled the operation")
	}
	fmt.Println(content)
	return nil
}
