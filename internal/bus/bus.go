// Package bus is the control surface between the voxinv CLI and the daemon: a
// unix socket carrying one JSON request/response pair per connection, plus the
// pid file guarding against double starts.
package bus

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/voxinv/voxinv/internal/items"
)

const SockName = "control.sock"
const PidName = "voxinv.pid"
const ProtoVer = "0.1"

// Request operations.
const (
	OpProcess = "process"
	OpChat    = "chat"
	OpStatus  = "status"
	OpStop    = "stop"
)

// Error kinds carried on the wire. Callers branch on the kind: config errors
// need operator action, connectivity errors are retryable, upstream errors
// carry the provider status, bad_request means the request itself was
// malformed and internal covers everything else.
const (
	KindConfig       = "config"
	KindConnectivity = "connectivity"
	KindUpstream     = "upstream"
	KindBadRequest   = "bad_request"
	KindInternal     = "internal"
)

// Request is the single JSON document a client writes per connection. Audio
// travels base64-encoded (encoding/json's []byte representation).
type Request struct {
	Op        string                 `json:"op"`
	Mode      string                 `json:"mode,omitempty"`
	MimeType  string                 `json:"mime_type,omitempty"`
	Audio     []byte                 `json:"audio,omitempty"`
	Catalog   []items.CatalogItem    `json:"catalog,omitempty"`
	Locations items.LocationsContext `json:"locations,omitempty"`
	Query     string                 `json:"query,omitempty"`
}

// Response is the single JSON document the daemon writes back. Exactly one of
// the payload fields is set; Error is nil on success.
type Response struct {
	Items  []items.RecognizedItem `json:"items,omitempty"`
	Reply  string                 `json:"reply,omitempty"`
	Status *StatusInfo            `json:"status,omitempty"`
	Error  *ErrorInfo             `json:"error,omitempty"`
}

type StatusInfo struct {
	State  string `json:"state"`
	PID    int    `json:"pid"`
	Uptime string `json:"uptime"`
	Proto  string `json:"proto"`
}

type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Status is the upstream HTTP status, set only for kind "upstream".
	Status int `json:"status,omitempty"`
}

func (e *ErrorInfo) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type socketManager struct {
	path string
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	return net.Dial("unix", s.path)
}

type pidManager struct {
	path string
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

// checkExisting returns an error when a live daemon owns the pid file. Stale
// or unreadable pid files are removed.
func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		_ = os.Remove(p.path)
		return nil
	}

	if !p.isProcessAlive(pid) {
		_ = os.Remove(p.path)
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func getSockPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxinv", SockName), nil
}

func getPidPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxinv", PidName), nil
}

// SockPath returns ~/.cache/voxinv/control.sock (respecting XDG_CACHE_HOME).
func SockPath() (string, error) {
	return getSockPath()
}

// PidPath returns ~/.cache/voxinv/voxinv.pid (respecting XDG_CACHE_HOME).
func PidPath() (string, error) {
	return getPidPath()
}

func Listen() (net.Listener, error) {
	sp, err := getSockPath()
	if err != nil {
		return nil, err
	}
	sm := &socketManager{path: sp}
	return sm.listen()
}

func Dial() (net.Conn, error) {
	sp, err := getSockPath()
	if err != nil {
		return nil, err
	}
	sm := &socketManager{path: sp}
	return sm.dial()
}

// Send performs one request/response exchange with the daemon.
func Send(req Request) (*Response, error) {
	c, err := Dial()
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable: %w", err)
	}
	defer c.Close()

	return roundTrip(c, req)
}

// roundTrip writes one request and reads one response on an open connection.
func roundTrip(c net.Conn, req Request) (*Response, error) {
	if err := json.NewEncoder(c).Encode(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(c).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &resp, nil
}

func CheckExistingDaemon() error {
	pp, err := getPidPath()
	if err != nil {
		return err
	}
	pm := &pidManager{path: pp}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pp, err := getPidPath()
	if err != nil {
		return err
	}
	pm := &pidManager{path: pp}
	return pm.create()
}

func RemovePidFile() error {
	pp, err := getPidPath()
	if err != nil {
		return err
	}
	pm := &pidManager{path: pp}
	return pm.remove()
}
