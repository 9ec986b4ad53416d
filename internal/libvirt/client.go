package libvirt

import (
	"context"
	"fmt"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket/dialers"

	"github.com/jbweber/vmsnap/internal/errdefs"
)

const (
	// DefaultSocket is the qemu:///system UNIX socket.
	DefaultSocket = "/var/run/libvirt/libvirt-sock"

	// DefaultTimeout bounds dialing the socket.
	DefaultTimeout = 5 * time.Second
)

// Client wraps a go-libvirt connection.
type Client struct {
	libvirt *libvirt.Libvirt
}

// HostInfo describes the hypervisor a Client is connected to.
type HostInfo struct {
	Version  string `json:"version" yaml:"version"`
	Hostname string `json:"hostname" yaml:"hostname"`
	URI      string `json:"uri" yaml:"uri"`
}

// Connect establishes a connection to the local libvirt daemon.
// It returns a Client that must be closed via Close() when done.
//
// If socketPath is empty, defaults to DefaultSocket (qemu:///system).
// If timeout is zero, defaults to DefaultTimeout.
// Failures wrap errdefs.ErrConnection.
func Connect(socketPath string, timeout time.Duration) (*Client, error) {
	// Set defaults
	if socketPath == "" {
		socketPath = DefaultSocket
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	// Create local dialer with options
	dialer := dialers.NewLocal(
		dialers.WithSocket(socketPath),
		dialers.WithLocalTimeout(timeout),
	)

	// Create libvirt client and connect
	l := libvirt.NewWithDialer(dialer)
	if err := l.Connect(); err != nil {
		return nil, fmt.Errorf("%w: failed to connect to libvirt at %s: %w", errdefs.ErrConnection, socketPath, err)
	}

	return &Client{libvirt: l}, nil
}

// ConnectWithContext establishes a connection with context support for cancellation.
// A connection that completes after ctx is done is closed.
func ConnectWithContext(ctx context.Context, socketPath string, timeout time.Duration) (*Client, error) {
	dial := func() (*Client, error) {
		return Connect(socketPath, timeout)
	}
	release := func(c *Client) {
		_ = c.Close()
	}
	return connectWithDeps(ctx, dial, release)
}

// connectWithDeps runs dial in the background and waits for it or for ctx.
// This allows for testing by accepting the dial and release steps as functions.
func connectWithDeps(ctx context.Context, dial func() (*Client, error), release func(*Client)) (*Client, error) {
	// Create a channel for the connection result
	type result struct {
		client *Client
		err    error
	}
	resultCh := make(chan result, 1)

	// Attempt connection in a goroutine
	go func() {
		c, err := dial()
		resultCh <- result{client: c, err: err}
	}()

	// Wait for either context cancellation or connection completion
	select {
	case <-ctx.Done():
		// Nobody receives the client once we return, so close it when it arrives.
		go func() {
			if res := <-resultCh; res.client != nil {
				release(res.client)
			}
		}()
		return nil, fmt.Errorf("%w: connection cancelled: %w", errdefs.ErrConnection, ctx.Err())
	case res := <-resultCh:
		return res.client, res.err
	}
}

// Close closes the libvirt connection and releases resources.
// It is safe to call Close multiple times.
func (c *Client) Close() error {
	if c.libvirt == nil {
		return nil
	}

	if err := c.libvirt.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from libvirt: %w", err)
	}
	c.libvirt = nil

	return nil
}

// Libvirt returns the underlying go-libvirt client for direct API access.
// This should be used sparingly; prefer higher-level methods on Client.
func (c *Client) Libvirt() *libvirt.Libvirt {
	return c.libvirt
}

// Ping verifies the connection is still alive by calling a simple libvirt API.
func (c *Client) Ping() error {
	if c.libvirt == nil {
		return fmt.Errorf("%w: client not connected", errdefs.ErrConnection)
	}

	// Try to get libvirt version as a ping test
	_, err := c.libvirt.ConnectGetLibVersion()
	if err != nil {
		return fmt.Errorf("%w: libvirt connection is dead: %w", errdefs.ErrConnection, err)
	}

	return nil
}

// Info reports the libvirt version, hostname and URI of the connection.
func (c *Client) Info() (HostInfo, error) {
	if c.libvirt == nil {
		return HostInfo{}, fmt.Errorf("%w: client not connected", errdefs.ErrConnection)
	}

	version, err := c.libvirt.ConnectGetLibVersion()
	if err != nil {
		return HostInfo{}, fmt.Errorf("%w: failed to get libvirt version: %w", errdefs.ErrConnection, err)
	}

	hostname, err := c.libvirt.ConnectGetHostname()
	if err != nil {
		return HostInfo{}, fmt.Errorf("%w: failed to get hostname: %w", errdefs.ErrConnection, err)
	}

	uri, err := c.libvirt.ConnectGetUri()
	if err != nil {
		return HostInfo{}, fmt.Errorf("%w: failed to get URI: %w", errdefs.ErrConnection, err)
	}

	return HostInfo{
		Version:  FormatVersion(version),
		Hostname: hostname,
		URI:      uri,
	}, nil
}

// FormatVersion renders a libvirt version number (major*1000000 +
// minor*1000 + release) as "major.minor.release".
func FormatVersion(v uint64) string {
	return fmt.Sprintf("%d.%d.%d", v/1000000, (v/1000)%1000, v%1000)
}
