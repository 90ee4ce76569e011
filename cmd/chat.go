package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chat(out io.Writer) {
	ctx := context.Background()

	// Logs go to stderr so they do not interleave with the conversation.
	logger := newLogger("stderr")

	app, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	defer app.Close()

	fmt.Fprintln(out, "Type your message, or \"exit\" to quit.")

	prompt := promptui.Prompt{Label: "You"}

	var leadID *int
	for {
		text, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return
		}
		if err != nil {
			logger.Fatal("reading input", zap.Error(err))
		}

		text = strings.TrimSpace(text)
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			return
		}

		reply, err := app.service.HandleMessage(ctx, leadID, text)
		if err != nil {
			logger.Error("handling message", zap.Error(err))
			continue
		}

		if reply.Lead != nil {
			leadID = &reply.Lead.ID
		}

		printReply(out, reply)
	}
}

func printReply(out io.Writer, reply *assistant.Reply) {
	fmt.Fprintf(out, "\nAssistant: %s\n\n", reply.Message)
	if len(reply.Matches) == 0 {
		return
	}

	fmt.Fprintf(out, "Matches for lead #%d:\n", reply.Lead.ID)
	for _, m := range reply.Matches {
		fmt.Fprintf(out, "  %3d%%  %s (%s)\n", m.Score, m.PartnerName, m.LoanType)
	}
	fmt.Fprintln(out)
}
