// Command unitworker is a conversion worker speaking the line protocol on
// stdin/stdout. It can stand in for any of the cpp, python or java workers.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/units"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var level string
	var delay time.Duration
	cmd := &cobra.Command{
		Use:           "unitworker",
		Short:         "Line-protocol unit conversion worker",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return err
			}
			log := zerolog.New(errOut).Level(lvl).With().Timestamp().Str("component", "unitworker").Logger()
			return serve(in, out, log, delay)
		},
	}
	cmd.Flags().StringVar(&level, "log-level", "info", "Log level for stderr diagnostics")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Artificial latency added to every reply")
	return cmd
}

// serve announces READY and answers every request line until in closes.
// Malformed lines without a usable id are logged and skipped.
func serve(in io.Reader, out io.Writer, log zerolog.Logger, delay time.Duration) error {
	w := bufio.NewWriter(out)
	if _, err := w.WriteString(protocol.ReadySentinel + "\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	log.Info().Msg("ready")

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		req, err := protocol.DecodeRequest(line)
		if err != nil {
			if errors.Is(err, protocol.ErrMalformedLine) || req.ID == "" {
				log.Warn().Str("line", line).Msg("skipping malformed request")
				continue
			}
		}
		var reply string
		if err != nil {
			reply = protocol.EncodeResponse(req.ID, 0, err)
		} else {
			v, cerr := units.Convert(req.Value, req.From, req.To)
			reply = protocol.EncodeResponse(req.ID, v, cerr)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		if _, err := w.WriteString(reply); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		log.Debug().Str("id", req.ID).Msg("answered")
	}
	return sc.Err()
}
