package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kristofer/navi/internal/mailbox"
	"github.com/kristofer/navi/internal/scheduler"
	"github.com/kristofer/navi/internal/vm"
)

var (
	benchActors   int
	benchDuration time.Duration
)

var spawnBenchCmd = &cobra.Command{
	Use:   "spawn-bench",
	Short: "Spawn a pool of idle actors and report scheduler load",
	Long: `spawn-bench stands up a scheduler with --workers OS-thread workers,
spawns --actors empty actors into it, lets the pool run for --for, then
prints a per-mailbox load report (queue depth and heap occupancy) -- the
navi equivalent of the original's object/balance.rs load sampling.`,
	RunE: runSpawnBench,
}

func init() {
	spawnBenchCmd.Flags().IntVar(&benchActors, "actors", 100, "number of actors to spawn")
	spawnBenchCmd.Flags().DurationVar(&benchDuration, "for", time.Second, "how long to let the scheduler run")
}

func runSpawnBench(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	reg := mailbox.NewRegistry()

	for i := 0; i < benchActors; i++ {
		if _, err := reg.Spawn(logger); err != nil {
			return fmt.Errorf("spawning actor %d: %w", i, err)
		}
	}

	sched := scheduler.New(reg, scheduler.Config{
		Workers: workers,
		Limit:   vm.Limit{Instructions: instrBudget},
		Logger:  logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), benchDuration)
	defer cancel()
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	report := sched.Snapshot()
	fmt.Printf("%d mailboxes after %s:\n", len(report.Mailboxes), benchDuration)
	for _, m := range report.Mailboxes {
		fmt.Fprintf(os.Stdout, "  %s  queue=%-4d heap=%-6d scratch=%d\n",
			m.ID, m.QueueDepth, m.HeapUsed, m.ScratchUsed)
	}
	return nil
}
