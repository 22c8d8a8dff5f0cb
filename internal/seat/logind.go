// Package seat implements open_restricted/close_restricted (§6): it
// acquires device fds through logind's session interface over D-Bus
// when a system bus and an active session are reachable, and falls
// back to opening the node directly otherwise — common in
// container/CI environments with no running logind.
package seat

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	login1Service       = "org.freedesktop.login1"
	login1ManagerPath   = "/org/freedesktop/login1"
	login1ManagerIface  = "org.freedesktop.login1.Manager"
	login1SessionIface  = "org.freedesktop.login1.Session"
)

// Seat acquires and releases device fds, preferring logind session
// takeover and falling back to a direct open.
type Seat struct {
	conn    *dbus.Conn
	session dbus.BusObject
}

// Open connects to the system bus and resolves the caller's current
// session. If no bus is reachable, it returns a Seat that always uses
// the direct-open fallback; this is not an error, since "no session
// manager" is an expected topology outside a desktop login.
func Open() *Seat {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return &Seat{}
	}

	manager := conn.Object(login1Service, dbus.ObjectPath(login1ManagerPath))
	var sessionPath dbus.ObjectPath
	if err := manager.Call(login1ManagerIface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&sessionPath); err != nil {
		conn.Close()
		return &Seat{}
	}

	return &Seat{
		conn:    conn,
		session: conn.Object(login1Service, sessionPath),
	}
}

// Close releases the D-Bus connection, if one was established.
func (s *Seat) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// OpenDevice implements open_restricted: it takes the device through
// logind when a session is available, else opens path directly.
func (s *Seat) OpenDevice(path string) (*os.File, error) {
	if s.session == nil {
		return os.OpenFile(path, os.O_RDWR, 0)
	}

	major, minor, err := statRdev(path)
	if err != nil {
		return nil, fmt.Errorf("seat: stat %s: %w", path, err)
	}

	var fd dbus.UnixFD
	var paused bool
	call := s.session.Call(login1SessionIface+".TakeDevice", 0, major, minor)
	if call.Err != nil {
		// logind refused (not the active session, device already
		// taken by someone else, etc.) — fall back rather than fail
		// device open outright.
		return os.OpenFile(path, os.O_RDWR, 0)
	}
	if err := call.Store(&fd, &paused); err != nil {
		return os.OpenFile(path, os.O_RDWR, 0)
	}

	return os.NewFile(uintptr(fd), path), nil
}

// CloseDevice implements close_restricted: it releases the device
// back to logind, or just closes the fd if opened directly.
func (s *Seat) CloseDevice(f *os.File) error {
	if s.session != nil {
		if major, minor, err := statRdev(f.Name()); err == nil {
			_ = s.session.Call(login1SessionIface+".ReleaseDevice", 0, major, minor).Err
		}
	}
	return f.Close()
}
