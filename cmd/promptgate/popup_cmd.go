package main

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/promptgate/internal/bridge"
	"github.com/fentz26/promptgate/internal/store"
	"github.com/fentz26/promptgate/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var popupRequestFile string

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Run the confirmation TUI",
	Long: `Runs the confirmation surface. Without flags it listens on the bridge
socket and stays up across requests. With --request it answers a single JSON
request from a file, prints the response to stdout, and exits; empty stdout
means the request was cancelled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if popupRequestFile != "" {
			return runOneShot(st, popupRequestFile)
		}
		return runServer(st)
	},
}

func init() {
	popupCmd.Flags().StringVar(&popupRequestFile, "request", "", "answer a single JSON request file and exit")
}

func runServer(st *store.Store) error {
	srv, err := bridge.NewServer(appCfg.SocketPath)
	if err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	srv.Start()
	srv.WaitReady()

	app := tui.New(appCfg, st)
	p := app.Program()

	// Forward bridge deliveries into the TUI event loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for d := range srv.Deliveries() {
			p.Send(tui.RequestMsg{Delivery: d})
		}
	}()

	_, runErr := p.Run()
	srv.Close()
	<-done
	return runErr
}

func runOneShot(st *store.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}
	var req bridge.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// The TUI renders on stderr so stdout stays clean for the response.
	app := tui.NewOneShot(appCfg, st, req)
	m, err := app.Program(tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return err
	}

	final, ok := m.(*tui.App)
	if !ok {
		return nil
	}
	if resp := final.FinalResponse(); resp != nil && resp.Accepted {
		fmt.Println(resp.Content)
	}
	// Empty stdout signals cancellation to the spawning caller.
	return nil
}
