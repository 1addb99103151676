package shell

import (
	"fmt"

	"github.com/chzyer/readline"
	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
)

func Command(channel *int, connect func() (*tenma.PowerSupply, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell to drive the power supply",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ps, err := connect()
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          ps.Profile().Name + "> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			sh := New(ps, *channel, rl.Stdout())
			sh.Help()

			for {
				line, err := rl.Readline()
				if err != nil {
					if err == readline.ErrInterrupt {
						continue
					}
					return nil // EOF
				}

				if sh.Exec(line) {
					return nil
				}
			}
		},
	}
}
