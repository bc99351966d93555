// Package settingsd connects to the COSMIC settings daemon over the session bus.
package settingsd

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-ps"

	"github.com/jmylchreest/tinct-cosmic/internal/retry"
)

// Well-known names of the settings daemon.
const (
	DaemonName      = "com.system76.CosmicSettingsDaemon"
	DaemonPath      = dbus.ObjectPath("/com/system76/CosmicSettingsDaemon")
	DaemonInterface = "com.system76.CosmicSettingsDaemon"
	DaemonProcess   = "cosmic-settings-daemon"
)

// Stage names the connection step that failed.
type Stage string

const (
	StageTransport Stage = "transport"
	StageProxy     Stage = "proxy"
)

// ConnectError reports that a connection stage exhausted its retries.
type ConnectError struct {
	Stage Stage
	Err   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("settings daemon %s connection failed: %v", e.Stage, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Bus is the part of a bus connection the manager needs. *dbus.Conn implements it.
type Bus interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// Manager opens the session bus and binds a proxy to the settings daemon,
// retrying each stage independently.
type Manager struct {
	Policy retry.Policy
	Logger hclog.Logger

	// Dial opens the transport. Defaults to the session bus.
	Dial func(ctx context.Context) (Bus, error)
	// Bind checks that the daemon answers on bus and returns its object.
	Bind func(ctx context.Context, bus Bus) (dbus.BusObject, error)
	// Processes lists running processes for diagnostics.
	Processes func() ([]ps.Process, error)
}

// NewManager returns a Manager using the session bus and retry.Default.
func NewManager(logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{
		Policy:    retry.Default,
		Logger:    logger,
		Dial:      dialSessionBus,
		Bind:      pingDaemon,
		Processes: ps.Processes,
	}
}

// Connect returns a live proxy. The transport is opened once; if binding the
// proxy is exhausted the transport is closed and a *ConnectError with
// StageProxy is returned.
func (m *Manager) Connect(ctx context.Context) (*Proxy, error) {
	logger := m.Logger.Named("settingsd")

	bus, err := retry.Do(ctx, m.Policy,
		func(attempt int, err error) {
			logger.Warn("failed to connect to session bus", "attempt", attempt, "error", err)
		},
		m.Dial)
	if err != nil {
		return nil, &ConnectError{Stage: StageTransport, Err: err}
	}

	obj, err := retry.Do(ctx, m.Policy,
		func(attempt int, err error) {
			logger.Warn("settings daemon not answering", "attempt", attempt, "error", err)
		},
		func(ctx context.Context) (dbus.BusObject, error) {
			return m.Bind(ctx, bus)
		})
	if err != nil {
		m.diagnose(logger)
		_ = bus.Close()
		return nil, &ConnectError{Stage: StageProxy, Err: err}
	}

	logger.Debug("connected to settings daemon")
	return &Proxy{bus: bus, obj: obj}, nil
}

// diagnose logs whether the daemon process exists, to tell a missing daemon
// apart from one that is running but not on this bus.
func (m *Manager) diagnose(logger hclog.Logger) {
	if m.Processes == nil {
		return
	}
	procs, err := m.Processes()
	if err != nil {
		logger.Debug("failed to get process list", "error", err)
		return
	}
	for _, p := range procs {
		if p.Executable() == DaemonProcess {
			logger.Error("settings daemon is running but not reachable on the session bus", "pid", p.Pid())
			return
		}
	}
	logger.Error("settings daemon process is not running", "process", DaemonProcess)
}

func dialSessionBus(ctx context.Context) (Bus, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func pingDaemon(ctx context.Context, bus Bus) (dbus.BusObject, error) {
	obj := bus.Object(DaemonName, DaemonPath)
	if call := obj.CallWithContext(ctx, "org.freedesktop.DBus.Peer.Ping", 0); call.Err != nil {
		return nil, call.Err
	}
	return obj, nil
}

// Proxy is a bound handle on the settings daemon. It is used for one theme
// application and then closed.
type Proxy struct {
	bus Bus
	obj dbus.BusObject
}

// WatchConfig asks the daemon to watch the config entry id so that changes
// written to it are broadcast to running COSMIC components.
func (p *Proxy) WatchConfig(ctx context.Context, id string) error {
	call := p.obj.CallWithContext(ctx, DaemonInterface+".WatchConfig", 0, id)
	if call.Err != nil {
		return fmt.Errorf("failed to watch config %s: %w", id, call.Err)
	}
	return nil
}

// Close closes the underlying bus connection.
func (p *Proxy) Close() error {
	return p.bus.Close()
}
