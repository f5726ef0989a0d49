package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/util"
	"github.com/newtron-network/newtcheck/pkg/version"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultMaxSessions = 8
)

// SSH runs commands over one SSH connection per device, opening a session
// per command.
type SSH struct {
	// DialTimeout bounds connection setup (default 10s).
	DialTimeout time.Duration
	// MaxSessions caps concurrent sessions per device (default 8).
	MaxSessions int64
	// HostKeyCallback verifies device host keys. Nil accepts any key.
	HostKeyCallback ssh.HostKeyCallback

	mu    sync.Mutex
	conns map[string]*sshConn
	dials singleflight.Group
}

type sshConn struct {
	client   *ssh.Client
	sessions *semaphore.Weighted
}

// NewSSH returns an SSH transport with default limits.
func NewSSH() *SSH {
	return &SSH{conns: make(map[string]*sshConn)}
}

func (s *SSH) clientConfig(dev *inventory.Device) *ssh.ClientConfig {
	hostKey := s.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey()
	}
	timeout := s.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	return &ssh.ClientConfig{
		User:            dev.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(dev.Password)},
		HostKeyCallback: hostKey,
		Timeout:         timeout,
		ClientVersion:   version.SSHClientVersion(),
	}
}

// Connect dials the device. Calling it again for a connected device is a
// no-op.
func (s *SSH) Connect(ctx context.Context, dev *inventory.Device) error {
	_, err := s.conn(ctx, dev)
	return err
}

func (s *SSH) lookup(name string) *sshConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[name]
}

// conn returns the device's connection, dialing it once even when many
// commands ask at the same time.
func (s *SSH) conn(ctx context.Context, dev *inventory.Device) (*sshConn, error) {
	if c := s.lookup(dev.Name); c != nil {
		return c, nil
	}
	v, err, _ := s.dials.Do(dev.Name, func() (any, error) {
		if c := s.lookup(dev.Name); c != nil {
			return c, nil
		}
		c, err := s.dial(ctx, dev)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.conns == nil {
			s.conns = make(map[string]*sshConn)
		}
		s.conns[dev.Name] = c
		s.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sshConn), nil
}

func (s *SSH) dial(ctx context.Context, dev *inventory.Device) (*sshConn, error) {
	cfg := s.clientConfig(dev)
	d := net.Dialer{Timeout: cfg.Timeout}
	nc, err := d.DialContext(ctx, "tcp", dev.Address())
	if err != nil {
		return nil, NewDeviceError(dev.Name, fmt.Errorf("SSH dial %s: %w", dev.Address(), err))
	}
	cc, chans, reqs, err := ssh.NewClientConn(nc, dev.Address(), cfg)
	if err != nil {
		nc.Close()
		return nil, NewDeviceError(dev.Name, fmt.Errorf("SSH handshake %s: %w", dev.Address(), err))
	}

	limit := s.MaxSessions
	if limit <= 0 {
		limit = defaultMaxSessions
	}
	util.WithDevice(dev.Name).Debugf("SSH connected to %s", dev.Address())
	return &sshConn{client: ssh.NewClient(cc, chans, reqs), sessions: semaphore.NewWeighted(limit)}, nil
}

// Close closes the device's connection, if any.
func (s *SSH) Close(dev *inventory.Device) error {
	s.mu.Lock()
	c, ok := s.conns[dev.Name]
	delete(s.conns, dev.Name)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return c.client.Close()
}

// Send runs req in a new session and decodes the reply. Cancelling ctx
// closes the session and returns ctx.Err().
func (s *SSH) Send(ctx context.Context, dev *inventory.Device, req Request) (any, error) {
	c, err := s.conn(ctx, dev)
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sessions.Release(1)

	session, err := c.client.NewSession()
	if err != nil {
		return nil, NewDeviceError(dev.Name, fmt.Errorf("SSH session: %w", err))
	}
	defer session.Close()

	type reply struct {
		out []byte
		err error
	}
	done := make(chan reply, 1)
	line := req.CLI()
	go func() {
		out, err := session.CombinedOutput(line)
		done <- reply{out, err}
	}()

	select {
	case <-ctx.Done():
		session.Close()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			var exit *ssh.ExitError
			if !errors.As(r.err, &exit) {
				return nil, NewDeviceError(dev.Name, fmt.Errorf("SSH run: %w", r.err))
			}
			if _, derr := decodeReply(req, r.out); derr != nil {
				return nil, derr
			}
			return nil, fmt.Errorf("%w: '%s' exited with status %d", util.ErrCommandFailed, line, exit.ExitStatus())
		}
		return decodeReply(req, r.out)
	}
}
