package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "relaychat: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr string
		text string
		wait time.Duration
	)

	cmd := &cobra.Command{
		Use:           "relaychat",
		Short:         "Terminal client for the chat relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cmd.Flags().Changed("send") {
				return runOnce(ctx, addr, text, wait, cmd.OutOrStdout())
			}
			return runInteractive(ctx, addr, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "ws://localhost:3000/ws", "WebSocket address")
	flags.StringVar(&text, "send", "", "send a single message and exit")
	flags.DurationVar(&wait, "wait", 2*time.Second, "with --send, how long to print incoming messages before exiting")

	return cmd
}

// runOnce sends one message, prints whatever arrives within wait and exits.
func runOnce(ctx context.Context, addr, text string, wait time.Duration, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.ChatMessage(text)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Fprintf(out, "sent: %s\n", text)

	if err := readLoop(ctx, conn, out); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func runInteractive(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Fprintf(out, "Connected to %s\n", addr)
	fmt.Fprintln(out, "Type messages and press Enter to send. Ctrl+C to exit.")

	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		readErr <- readLoop(ctx, conn, out)
	}()

	if err := writeLoop(ctx, conn, in); err != nil {
		return err
	}
	cancel()

	if err := <-readErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, out io.Writer) error {
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		text, err := env.Text()
		if err != nil {
			fmt.Fprintf(out, "event=%s data=%s\n", env.Event, env.Data)
			continue
		}
		fmt.Fprintf(out, "> %s\n", text)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimRight(line, "\r")
			if strings.TrimSpace(text) == "" {
				continue
			}
			if err := wsjson.Write(ctx, conn, proto.ChatMessage(text)); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}
