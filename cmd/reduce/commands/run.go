package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/kaptinlin/jsonrepair"
	"github.com/spf13/cobra"

	intconfig "github.com/logreduce/logreduce/internal/config"
	"github.com/logreduce/logreduce/pkg/event"
	"github.com/logreduce/logreduce/pkg/reduce"
	"github.com/logreduce/logreduce/pkg/stream"
)

var (
	configPath string
	inputPath  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the reducer over a newline-delimited JSON event stream",
	RunE:  runReduce,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "reducer configuration YAML file (required)")
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input NDJSON file (default: stdin)")
	runCmd.MarkFlagRequired("config")
}

func runReduce(cmd *cobra.Command, args []string) error {
	cfgBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	logger := slog.Default()
	cfg, err := intconfig.Load(cfgBytes, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	r, err := reduce.New(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("construct reducer: %w", err)
	}

	in := os.Stdin
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	events := make(chan *event.Object)
	out := stream.NewBatch[*event.Object]()

	go func() {
		defer close(events)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			obj, err := event.ParseObject(line)
			if err != nil {
				repaired, rerr := jsonrepair.JSONRepair(string(line))
				if rerr != nil {
					logger.Warn("reduce: dropping unparseable line", "error", err)
					continue
				}
				obj, err = event.ParseObject([]byte(repaired))
				if err != nil {
					logger.Warn("reduce: dropping unrepairable line", "error", err)
					continue
				}
			}
			select {
			case events <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	go r.Run(ctx, events, out)

	// writeEmissions runs to out's Close (set by Run's deferred call once
	// its final flush-all has already landed every emission), not to ctx
	// directly — otherwise a consumer unlucky enough to be waiting in
	// Next exactly when ctx is canceled could race the producer's
	// still-in-flight final flush and drop it.
	flushed := writeEmissions(cmd.OutOrStdout(), out)

	summaryStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	fmt.Fprintln(cmd.ErrOrStderr(), summaryStyle.Render(fmt.Sprintf("flushed %d groups", flushed)))
	return nil
}

// writeEmissions drains out until Run closes it (input EOF or context
// cancellation, after the final flush-all), writing each flushed event
// as one NDJSON line, and returns the number written.
func writeEmissions(w io.Writer, out *stream.Batch[*event.Object]) int {
	count := 0
	for {
		evt, ok := out.Next(context.Background())
		if !ok {
			return count
		}
		writeLine(w, evt)
		count++
	}
}

func writeLine(w io.Writer, evt *event.Object) {
	b, err := event.MarshalValue(evt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reduce: marshal emitted event: %v\n", err)
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}
