package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens-go/internal/domain/entities"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer with its evidence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setupSession(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			sessionID, err := a.lifecycle.EnsureSessionID(ctx)
			if err != nil {
				return err
			}

			resp, err := a.pipeline.Submit(ctx, sessionID, strings.Join(args, " "))
			if err != nil {
				fmt.Println(assistantPrefix + fallbackText(a))
				return err
			}
			printResponse(resp)
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation (/reset clears context, /quit exits)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setupSession(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			sessionID, err := a.lifecycle.EnsureSessionID(ctx)
			if err != nil {
				return err
			}

			// Replay the persisted conversation so a restart picks up
			// exactly where the last run left off.
			for _, msg := range a.state.Messages() {
				printMessage(msg)
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())

				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/reset":
					if sessionID, err = a.lifecycle.Reset(ctx); err != nil {
						return err
					}
					printMessage(a.state.Messages()[0])
					continue
				}

				resp, err := a.pipeline.Submit(ctx, sessionID, line)
				if err != nil {
					// The fallback message is already part of the
					// conversation; show it and keep going.
					fmt.Println(assistantPrefix + fallbackText(a))
					continue
				}
				printResponse(resp)
			}
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the conversation and start a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setupSession(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.lifecycle.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("Context cleared. Starting new session.")
			return nil
		},
	}
}

const (
	userPrefix      = "you> "
	assistantPrefix = "assistant> "
)

func printMessage(msg entities.Message) {
	prefix := assistantPrefix
	if msg.Role == entities.RoleUser {
		prefix = userPrefix
	}
	fmt.Println(prefix + msg.Content)
}

func printResponse(resp *entities.ChatResponse) {
	fmt.Println(assistantPrefix + resp.Answer)
	if len(resp.Sources) == 0 {
		return
	}
	fmt.Printf("\n  Evidence (%d records):\n", len(resp.Sources))
	for _, rec := range resp.Sources {
		printEvidence(rec)
	}
}

func printEvidence(rec entities.EvidenceRecord) {
	fmt.Printf("  [%-6s] %s  #%d\n", rec.Severity.Tier(), rec.Timestamp, rec.LogID)
	fmt.Printf("    %s\n", rec.Message)
	if rec.ThreadName != "" || rec.ProjectName != "" {
		fmt.Printf("    thread=%s project=%s\n", rec.ThreadName, rec.ProjectName)
	}
	if rec.StackTrace != "" {
		for _, line := range strings.Split(rec.StackTrace, "\n") {
			fmt.Printf("      %s\n", line)
		}
	}
}

// fallbackText returns the last assistant message, which after a failed
// submit is the fixed connection-error notice.
func fallbackText(a *app) string {
	msgs := a.state.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == entities.RoleAssistant {
			return msgs[i].Content
		}
	}
	return ""
}
