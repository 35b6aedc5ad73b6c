package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zeu5/pacman-qlearning/benchmarks/pacman"
)

func PacmanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pacman",
		Short: "Run pacman benchmarks",
	}

	cmd.AddCommand(
		pacmanTrainCommand(),
		pacmanCompareCommand(),
		pacmanLayoutsCommand(),
	)

	return cmd
}

// interruptContext is cancelled on ctrl-c or when done is closed.
func interruptContext() (context.Context, chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, doneCh
}

func pacmanTrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a single Q-learning agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, learner, err := pacman.PrepareTraining(flags)
			if err != nil {
				return err
			}
			ctx, doneCh := interruptContext()
			defer close(doneCh)

			cmp.Run(ctx, 1, flags.RunConfig())
			log.Info().
				Int("entries", learner.Table().Size()).
				Int("states", learner.Table().States()).
				Msg("q table")
			return nil
		},
	}
}

func pacmanCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare Q-learning against a random agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := pacman.PrepareComparison(flags)
			if err != nil {
				return err
			}
			ctx, doneCh := interruptContext()
			defer close(doneCh)

			cmp.Run(ctx, flags.NumRuns, flags.RunConfig(), flags.Parallelism)
			return nil
		},
	}
}

func pacmanLayoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the built-in layouts",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range pacman.LayoutNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
