package bus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/voxinv/voxinv/internal/items"
)

func TestPidManagerBasics(t *testing.T) {
	pm := &pidManager{path: filepath.Join(t.TempDir(), PidName)}

	t.Run("create and remove", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		pidData, err := os.ReadFile(pm.path)
		if err != nil {
			t.Fatalf("failed to read pid file: %v", err)
		}
		if string(pidData) != strconv.Itoa(os.Getpid()) {
			t.Errorf("pid file contains %q, expected %d", string(pidData), os.Getpid())
		}

		if err := pm.remove(); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("pid file should not exist after removal")
		}
	})

	t.Run("checkExisting with no pid file", func(t *testing.T) {
		if err := pm.checkExisting(); err != nil {
			t.Errorf("checkExisting should not error when no pid file exists: %v", err)
		}
	})

	t.Run("checkExisting with live process", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		defer pm.remove()

		if err := pm.checkExisting(); err == nil {
			t.Error("checkExisting should fail while the owning process is alive")
		}
	})

	t.Run("checkExisting removes stale pid file", func(t *testing.T) {
		if err := os.WriteFile(pm.path, []byte("99999"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := pm.checkExisting(); err != nil {
			t.Errorf("checkExisting should succeed with a stale pid: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("stale pid file should be removed")
		}
	})

	t.Run("checkExisting removes invalid pid file", func(t *testing.T) {
		if err := os.WriteFile(pm.path, []byte("not-a-pid"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := pm.checkExisting(); err != nil {
			t.Errorf("checkExisting should succeed with an invalid pid file: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("invalid pid file should be removed")
		}
	})
}

func TestIsProcessAlive(t *testing.T) {
	pm := &pidManager{}

	if !pm.isProcessAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
	if pm.isProcessAlive(99999) {
		t.Error("non-existent process should not be alive")
	}
}

func TestSocketManagerRoundTrip(t *testing.T) {
	sm := &socketManager{path: filepath.Join(t.TempDir(), SockName)}

	listener, err := sm.listen()
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer listener.Close()

	// Daemon side: answer one decoded request.
	serveErr := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			serveErr <- err
			return
		}
		defer conn.Close()

		var req Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			serveErr <- err
			return
		}
		if req.Op != OpProcess || req.Mode != "plain" || string(req.Audio) != "raw audio" {
			serveErr <- &ErrorInfo{Kind: KindBadRequest, Message: "unexpected request on the wire"}
			return
		}
		serveErr <- json.NewEncoder(conn).Encode(Response{
			Items: []items.RecognizedItem{{ID: 1, Name: "Perceuse"}},
		})
	}()

	time.Sleep(10 * time.Millisecond)

	conn, err := sm.dial()
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	resp, err := roundTrip(conn, Request{Op: OpProcess, Mode: "plain", MimeType: "audio/webm", Audio: []byte("raw audio")})
	if err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
	if err := <-serveErr; err != nil {
		t.Fatalf("server side: %v", err)
	}

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if len(resp.Items) != 1 || resp.Items[0].Name != "Perceuse" {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestSocketManagerDialWithoutListener(t *testing.T) {
	sm := &socketManager{path: filepath.Join(t.TempDir(), SockName)}
	if _, err := sm.dial(); err == nil {
		t.Error("dial should fail when no listener exists")
	}
}

func TestAudioIsBase64OnTheWire(t *testing.T) {
	raw, err := json.Marshal(Request{Op: OpProcess, Audio: []byte{0xde, 0xad, 0xbe, 0xef}})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["audio"] != "3q2+7w==" {
		t.Errorf("audio on the wire = %v", decoded["audio"])
	}
}

func TestErrorInfoError(t *testing.T) {
	e := &ErrorInfo{Kind: KindUpstream, Message: "boom", Status: 502}
	if got := e.Error(); got != "upstream: boom (status 502)" {
		t.Errorf("Error() = %q", got)
	}
	e = &ErrorInfo{Kind: KindConfig, Message: "no key"}
	if got := e.Error(); got != "config: no key" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPathFunctions(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	sp, err := SockPath()
	if err != nil {
		t.Fatalf("SockPath: %v", err)
	}
	if !filepath.IsAbs(sp) || filepath.Base(sp) != SockName {
		t.Errorf("SockPath = %q", sp)
	}

	pp, err := PidPath()
	if err != nil {
		t.Fatalf("PidPath: %v", err)
	}
	if !filepath.IsAbs(pp) || filepath.Base(pp) != PidName {
		t.Errorf("PidPath = %q", pp)
	}
}
