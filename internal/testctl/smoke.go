package testctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gtrackerpro/unitconverter/internal/config"
	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// smokeCases cover a plain factor conversion, a temperature conversion and
// a cross-category request that must come back as an ERROR line.
var smokeCases = []protocol.Request{
	{ID: "smoke_1", Value: 1, From: "meter", To: "feet"},
	{ID: "smoke_2", Value: 100, From: "celsius", To: "fahrenheit"},
	{ID: "smoke_3", Value: 2.5, From: "pound", To: "kilogram"},
	{ID: "smoke_4", Value: 1, From: "meter", To: "kilogram"},
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b))
}

// checkWorker starts argv, waits for READY and checks every smoke case
// against the local conversion table.
func checkWorker(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no worker command")
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	defer func() {
		_ = stdin.Close()
		_ = cmd.Wait()
	}()

	sc := bufio.NewScanner(stdout)
	if !sc.Scan() {
		return fmt.Errorf("worker exited before printing %s", protocol.ReadySentinel)
	}
	if strings.TrimSpace(sc.Text()) != protocol.ReadySentinel {
		return fmt.Errorf("expected %s, got %q", protocol.ReadySentinel, sc.Text())
	}
	debug("[smoke] worker ready")

	for _, req := range smokeCases {
		line, err := protocol.EncodeRequest(req)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(stdin, line); err != nil {
			return fmt.Errorf("write %s: %w", req.ID, err)
		}
		if !sc.Scan() {
			return fmt.Errorf("%s: worker closed stdout", req.ID)
		}
		resp, err := protocol.DecodeResponse(sc.Text())
		if err != nil {
			return fmt.Errorf("%s: %w: %q", req.ID, err, sc.Text())
		}
		if resp.ID != req.ID {
			return fmt.Errorf("%s: reply carries id %q", req.ID, resp.ID)
		}
		want, wantErr := units.Convert(req.Value, req.From, req.To)
		switch {
		case wantErr != nil && resp.Err == nil:
			return fmt.Errorf("%s: expected ERROR reply, got %v", req.ID, resp.Value)
		case wantErr == nil && resp.Err != nil:
			return fmt.Errorf("%s: unexpected error reply: %v", req.ID, resp.Err)
		case wantErr == nil && !closeEnough(resp.Value, want):
			return fmt.Errorf("%s: got %v, want %v", req.ID, resp.Value, want)
		}
		info("[smoke] %s %v %s -> %s ok", req.ID, req.Value, req.From, req.To)
	}
	return nil
}

// smokeWorker checks cfg.WorkerCmd, or the freshly built reference worker.
func smokeWorker(cfg *Config) error {
	argv := strings.Fields(cfg.WorkerCmd)
	if len(argv) == 0 {
		b, err := fnBuild(cfg)
		if err != nil {
			return err
		}
		argv = []string{b.Worker}
	}
	info("==== Smoke worker %s ====", argv[0])
	return checkWorker(context.Background(), argv)
}

// writeServerConfig points every worker kind at workerCmd.
func writeServerConfig(dir string, workerCmd []string) (string, error) {
	w := config.WorkerConfig{Command: workerCmd[0], Args: workerCmd[1:]}
	cfg := config.Config{
		LogLevel:       "warn",
		RestartDelayMS: 500,
		StopGraceMS:    1000,
		Workers:        map[string]config.WorkerConfig{"cpp": w, "python": w, "java": w},
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "unitconverter.yaml")
	return p, os.WriteFile(p, b, 0o644)
}

func postConvert(base string, req types.ConvertRequest) (types.ConvertResponse, error) {
	var out types.ConvertResponse
	body, _ := json.Marshal(req)
	resp, err := http.Post(base+"/api/convert", "application/json", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("mode %s: status %d: %s", req.Mode, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return out, json.Unmarshal(raw, &out)
}

// smokeServer builds both binaries, serves on a free (or --port) port with
// all three workers enabled and converts once through every mode.
func smokeServer(cfg *Config) error {
	b, err := fnBuild(cfg)
	if err != nil {
		return err
	}
	workerCmd := []string{b.Worker}
	if f := strings.Fields(cfg.WorkerCmd); len(f) > 0 {
		workerCmd = f
	}
	port := cfg.Port
	if port == 0 {
		if port, err = chooseFreePort(); err != nil {
			return err
		}
	}
	if err := ensurePort(port, cfg.Force); err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "testctl-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	cfgPath, err := writeServerConfig(dir, workerCmd)
	if err != nil {
		return err
	}

	info("==== Smoke server on :%d ====", port)
	cmd := exec.Command(b.Server, "serve", "-c", cfgPath, "--db", filepath.Join(dir, "history.db"), "--addr", fmt.Sprintf("127.0.0.1:%d", port))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	TrackProcess(cmd)
	defer stopProcesses()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := waitHTTP(ctx, base+"/readyz", http.StatusOK); err != nil {
		return err
	}
	for _, mode := range []string{"local", "cpp", "python", "java"} {
		got, err := postConvert(base, types.ConvertRequest{Value: 1, From: "meter", To: "feet", Mode: mode})
		if err != nil {
			return err
		}
		if !closeEnough(got.Result, 3.28084) {
			return fmt.Errorf("mode %s: got %v, want 3.28084", mode, got.Result)
		}
		info("[smoke] %s ok in %.2fms", mode, got.TimeTakenMS)
	}
	return waitHTTP(ctx, base+"/status", http.StatusOK)
}
