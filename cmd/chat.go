package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samarth-cli/internal/agent"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question session with conversation history",
	Long: `Starts a prompt where each question is answered with the data tools.
Earlier questions and answers are sent along as context.

Commands:
  /reset    forget the conversation so far
  /history  print the retained turns
  /exit     leave (Ctrl-D works too)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		a, provider, err := buildAgent(c, agentFlags())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Samarth chat (%s, %s). Type /exit to quit.\n", provider, a.Options().Model)
		return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), a, provider)
	},
}

func chatLoop(ctx context.Context, in io.Reader, out, errOut io.Writer, a *agent.Agent, provider string) error {
	conv := a.NewConversation()
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "\n> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			conv.Reset()
			fmt.Fprintln(out, "✓ Conversation cleared")
			continue
		case "/history":
			printHistory(out, conv)
			continue
		}
		ans, err := a.Ask(ctx, conv.Messages(), line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintln(errOut, "✗ Error:", explainAgentError(err, provider, a.Options().Model))
			continue
		}
		printAnswer(out, a.Options().Model, ans, askShowTools)
		conv.Add(line, ans.Content)
	}
}

func printHistory(out io.Writer, conv *agent.Conversation) {
	msgs := conv.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for _, m := range msgs {
		fmt.Fprintf(out, "[%s] %s\n", m.Role, strings.TrimSpace(m.Content))
	}
	fmt.Fprintf(out, "~%d tokens retained\n", conv.Tokens())
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addAgentFlags(chatCmd)
}
