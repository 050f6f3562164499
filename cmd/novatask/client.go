package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"time"

	"novatask/internal/api"
	"novatask/internal/config"
)

const (
	pingTimeout        = 500 * time.Millisecond
	serverStartTimeout = 3 * time.Second
	serverPollInterval = 100 * time.Millisecond
)

// withClient runs fn against the configured API. When nothing answers on a
// loopback API URL, a private `novatask srv` child is started for the call.
func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL)

	child, err := ensureServer(cfg, client)
	if err != nil {
		return err
	}
	if child != nil {
		defer stopChild(child)
	}

	return fn(client)
}

func ensureServer(cfg *config.Config, client *api.Client) (*exec.Cmd, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	err := client.Ping(ctx)
	cancel()
	if err == nil {
		return nil, nil
	}
	if !isLoopbackURL(cfg.APIURL) {
		return nil, fmt.Errorf("server at %s is unreachable: %w", cfg.APIURL, err)
	}

	child, err := startServerProcess(cfg)
	if err != nil {
		return nil, err
	}
	if err := waitForServer(client, serverStartTimeout); err != nil {
		stopChild(child)
		return nil, err
	}
	return child, nil
}

func startServerProcess(cfg *config.Config) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	child := exec.Command(exe, "srv")
	child.Env = append(os.Environ(),
		"NOVATASK_DB="+cfg.DBPath,
		"NOVATASK_API_URL="+cfg.APIURL,
	)
	child.Stdout = io.Discard
	child.Stderr = io.Discard

	if err := child.Start(); err != nil {
		return nil, fmt.Errorf("start local server: %w", err)
	}
	return child, nil
}

func stopChild(child *exec.Cmd) {
	_ = child.Process.Kill()
	_ = child.Wait()
}

func waitForServer(client *api.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		err := client.Ping(ctx)
		cancel()
		if err == nil {
			return nil
		}
		var opErr *net.OpError
		if !errors.As(err, &opErr) {
			// Something answered that is not a novatask server.
			return err
		}
		time.Sleep(serverPollInterval)
	}
	return errors.New("server did not start in time")
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
