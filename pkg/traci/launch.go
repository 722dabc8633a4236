package traci

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

type LaunchConfig struct {
	Binary     string
	ConfigFile string
	Port       int
	End        float64
	ExtraArgs  []string
	Retries    int
	RetryDelay time.Duration
}

// Process is a SUMO child process with its TraCI connection.
type Process struct {
	cmd    *exec.Cmd
	Client *Client
}

// Launch starts SUMO listening on cfg.Port and connects to it, retrying while SUMO boots.
func Launch(ctx context.Context, cfg LaunchConfig) (*Process, error) {
	args := []string{
		"-c", cfg.ConfigFile,
		"--remote-port", strconv.Itoa(cfg.Port),
	}
	if cfg.End > 0 {
		args = append(args, "--end", strconv.FormatFloat(cfg.End, 'f', -1, 64))
	}
	args = append(args, cfg.ExtraArgs...)

	cmd := exec.Command(cfg.Binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cfg.Binary, err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	client, err := DialRetry(ctx, addr, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	return &Process{cmd: cmd, Client: client}, nil
}

func DialRetry(ctx context.Context, addr string, retries int, delay time.Duration) (*Client, error) {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		client, err := Dial(ctx, addr)
		if err == nil {
			return client, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect %s after %d attempts: %w", addr, retries, lastErr)
}

// Close ends the TraCI session and waits for SUMO to exit.
func (p *Process) Close() error {
	err := p.Client.Close()
	if p.cmd != nil && p.cmd.Process != nil {
		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = p.cmd.Process.Kill()
			<-done
		}
	}
	return err
}
