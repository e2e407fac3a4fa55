package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/tv"
)

func watchCmd() *cobra.Command {
	var (
		addr    string
		channel int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Power on the TV and watch a channel",
		Long: `Connect to an ASCII TV server and render the selected channel.

Commands are read from stdin, one per line:
  p      toggle power
  1-9    change channel
  + / -  volume up / down
  m      toggle mute
  i      show set info
  q      quit

Examples:
  # Watch channel 1 on the configured server
  asciitv-client watch

  # Watch channel 2 on another host
  asciitv-client watch --addr 10.0.0.5:65432 --channel 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if addr == "" {
				addr = cfg.Server.Address()
			}
			names := make([]string, len(cfg.Channels))
			for i := range cfg.Channels {
				names[i] = cfg.ChannelName(i)
			}
			term := newTerminal(os.Stdout)
			consumer := tv.NewConsumer(addr, term, logger)
			set := tv.NewSet(consumer, term, names, cfg.Client.Volume, cfg.Client.VolumeStep)
			defer consumer.Disconnect()

			logger.Info("starting client",
				zap.String("addr", addr),
				zap.Int("channel", channel),
			)

			if err := set.Preset(channel - 1); err != nil {
				return err
			}
			if err := set.PowerOn(ctx); err != nil {
				logger.Warn("initial tune failed", zap.Error(err))
			}
			term.SetFooter(set.Info())

			return commandLoop(ctx, os.Stdin, set, term)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "server address (default from config)")
	cmd.Flags().IntVar(&channel, "channel", 1, "channel to watch, starting at 1")

	return cmd
}

var errQuit = errors.New("quit")

// commandLoop applies stdin commands to set until q, EOF or cancellation.
func commandLoop(ctx context.Context, in io.Reader, set *tv.Set, term *terminal) error {
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
			err := apply(ctx, strings.TrimSpace(line), set)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				logger.Warn("command failed", zap.String("command", line), zap.Error(err))
			}
			term.SetFooter(set.Info())
		}
	}
}

func apply(ctx context.Context, command string, set *tv.Set) error {
	switch command {
	case "":
		return nil
	case "q":
		set.PowerOff()
		return errQuit
	case "p":
		return set.TogglePower(ctx)
	case "+":
		set.VolumeUp()
	case "-":
		set.VolumeDown()
	case "m":
		set.ToggleMute()
	case "i":
		// the footer is refreshed after every command
	default:
		n, err := strconv.Atoi(command)
		if err != nil || n < 1 || n > 9 {
			return fmt.Errorf("unknown command %q", command)
		}
		return set.ChangeChannel(ctx, n-1)
	}
	return nil
}
