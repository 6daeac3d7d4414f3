// Command realtimectl is a demo CLI over package realtime: it connects to
// a realtime server, joins a channel, and either listens for broadcasts
// or sends one.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	realtime "github.com/eshe-huli/realtime-go"
)

var (
	version   = "0.1.0"
	serverURL string
	apiKey    string
	token     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "realtimectl",
		Short:   "realtimectl — demo client for Phoenix-style realtime channels",
		Long:    `realtimectl connects to a realtime server over WebSocket and exercises channel subscribe, listen, and broadcast.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:4000", "realtime server URL (http/https/ws/wss)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "apikey", "", "project API key")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "access token (defaults to --apikey)")

	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(broadcastCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*realtime.Client, error) {
	c, err := realtime.New(serverURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("construct client: %w", err)
	}
	if token != "" {
		c.SetAuth(token)
	}
	return c, nil
}

func printStatus(format string, args ...interface{}) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("\033[32m✓\033[0m "+format+"\n", args...)
		return
	}
	fmt.Printf(format+"\n", args...)
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect to the realtime server and report status",
		RunE:  runConnect,
	}
}

func listenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen <topic>",
		Short: "Join a channel and print every broadcast received",
		Args:  cobra.ExactArgs(1),
		RunE:  runListen,
	}
	return cmd
}

func broadcastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast <topic> <event> <payload-json>",
		Short: "Join a channel and send one broadcast",
		Args:  cobra.ExactArgs(3),
		RunE:  runBroadcast,
	}
	return cmd
}

func runConnect(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	printStatus("connected to %s", serverURL)
	return nil
}

func runListen(cmd *cobra.Command, args []string) error {
	topic := args[0]

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	ch := client.CreateChannel(topic, realtime.JoinConfig{})
	ch.OnBroadcast("*", func(payload realtime.Broadcast) {
		fmt.Printf("[%s] %s\n", payload.Event, string(payload.Payload))
	})

	joined := make(chan error, 1)
	if err := ch.Subscribe(func(status realtime.SubscribeStatus, err error) {
		switch status {
		case realtime.Subscribed:
			joined <- nil
		case realtime.SubscribeErrored:
			joined <- err
		case realtime.SubscribeTimedOut:
			joined <- fmt.Errorf("realtimectl: subscribe timed out")
		}
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	if err := <-joined; err != nil {
		return fmt.Errorf("join %s: %w", topic, err)
	}

	printStatus("listening on %s, press Ctrl+C to stop", topic)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	topic, event, payload := args[0], args[1], args[2]

	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	ch := client.CreateChannel(topic, realtime.JoinConfig{})

	joined := make(chan error, 1)
	if err := ch.Subscribe(func(status realtime.SubscribeStatus, err error) {
		switch status {
		case realtime.Subscribed:
			joined <- nil
		case realtime.SubscribeErrored:
			joined <- err
		case realtime.SubscribeTimedOut:
			joined <- fmt.Errorf("realtimectl: subscribe timed out")
		}
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	if err := <-joined; err != nil {
		return fmt.Errorf("join %s: %w", topic, err)
	}

	if _, err := ch.SendBroadcast(event, []byte(payload)); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	printStatus("sent %s on %s", event, topic)
	return nil
}
