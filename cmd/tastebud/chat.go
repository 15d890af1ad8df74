package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tastebud-ai/tastebud/config"
	"github.com/tastebud-ai/tastebud/internal/duplex"
)

func chatCMD() *cobra.Command {
	var cfgPath string
	var serverURL string
	var restaurantID string
	var chat = &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat over the persistent websocket transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if serverURL == "" {
				addr := cfg.Server.Address
				if strings.HasPrefix(addr, ":") {
					addr = "127.0.0.1" + addr
				}
				serverURL = fmt.Sprintf("ws://%s/api/ws/chat", addr)
			}

			ctx := context.Background()
			client := duplex.NewClient(serverURL, restaurantID, cfg.Duplex.Backoff, cfg.Duplex.MaxAttempts)
			if err := client.Connect(ctx); err != nil {
				return fmt.Errorf("connecting to %s: %w", serverURL, err)
			}
			defer client.Close()

			fmt.Println("connected; type a question, or /quit to exit")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" || line == "/exit" {
					return nil
				}

				answer, err := client.Ask(ctx, line)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Println(answer)
			}
		},
	}
	chat.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml)")
	chat.Flags().StringVar(&serverURL, "url", "", "websocket URL (default derived from server.address)")
	chat.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id to scope the conversation to")

	return chat
}
