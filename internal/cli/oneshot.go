package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gtrackerpro/unitconverter/internal/config"
	"github.com/gtrackerpro/unitconverter/internal/history"
	"github.com/gtrackerpro/unitconverter/internal/manager"
	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// runConvert performs one conversion. Worker modes start only the
// requested worker, wait for READY and stop it afterwards. Nothing is
// recorded in the history database.
func runConvert(ctx context.Context, cfg config.Config, opts *Options, args []string, mode string, readyTimeout time.Duration, asJSON bool) error {
	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[0])
	}
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, opts.Stderr)
	if err != nil {
		return err
	}

	mcfg := manager.ManagerConfig{
		RequestTimeout: cfg.RequestTimeout(),
		RestartDelay:   cfg.RestartDelay(),
		StopGrace:      cfg.StopGrace(),
		Logger:         &log,
	}
	if k, err := worker.ParseKind(mode); err == nil {
		f, ok := workerFactories(cfg)[k]
		if !ok {
			return fmt.Errorf("%s worker is not configured", k.DisplayName())
		}
		mcfg.Workers = map[worker.Kind]worker.ProcessFactory{k: f}
	}
	mgr := manager.NewWithConfig(mcfg)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.StopGrace()+time.Second)
		defer cancel()
		_ = mgr.StopAll(sctx)
	}()
	if k, err := worker.ParseKind(mode); err == nil {
		if err := mgr.Start(); err != nil {
			return err
		}
		wctx, cancel := context.WithTimeout(ctx, readyTimeout)
		defer cancel()
		if err := mgr.WaitReady(wctx, k); err != nil {
			return fmt.Errorf("%s worker did not become ready: %w", k.DisplayName(), err)
		}
	}

	req := types.ConvertRequest{Value: value, From: strings.ToLower(args[1]), To: strings.ToLower(args[2]), Mode: mode}
	resp, err := mgr.Convert(ctx, req)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(opts.Stdout).Encode(resp)
	}
	_, err = fmt.Fprintf(opts.Stdout, "%s %s = %s %s (%s, %.2f ms)\n",
		strconv.FormatFloat(value, 'g', -1, 64), req.From,
		strconv.FormatFloat(resp.Result, 'g', -1, 64), req.To, mode, resp.TimeTakenMS)
	return err
}

func runUnits(w io.Writer) error {
	cats := units.Units()
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, string(c))
	}
	sort.Strings(names)
	for _, c := range names {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c, strings.Join(cats[units.Category(c)], ", ")); err != nil {
			return err
		}
	}
	return nil
}

func runHistory(ctx context.Context, cfg config.Config, w io.Writer, limit int, asJSON bool) error {
	store, err := history.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(w).Encode(entries)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMODE\tINPUT\tRESULT\tMS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s %s\t%.2f\n",
			e.Timestamp.Local().Format(time.DateTime), e.Mode,
			strconv.FormatFloat(e.InputValue, 'g', -1, 64), e.FromUnit,
			strconv.FormatFloat(e.ConvertedValue, 'g', -1, 64), e.ToUnit, e.TimeTakenMS)
	}
	return tw.Flush()
}
