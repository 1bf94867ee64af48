// Package daemon runs the long-lived voxinv service: a unix-socket listener
// answering one JSON request per connection, backed by the hot-reloading
// configuration manager. A fresh pipeline is built per request from the
// current config snapshot, so credential and model changes apply without a
// restart.
package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxinv/voxinv/internal/bus"
	"github.com/voxinv/voxinv/internal/config"
	"github.com/voxinv/voxinv/internal/items"
	"github.com/voxinv/voxinv/internal/logging"
	"github.com/voxinv/voxinv/internal/pipeline"
	"github.com/voxinv/voxinv/internal/upstream"
)

// runner is the slice of pipeline.Pipeline the daemon needs per request.
type runner interface {
	Process(ctx context.Context, audio io.Reader, mimeType string, mode pipeline.Mode, req pipeline.Request) ([]items.RecognizedItem, error)
	Chat(ctx context.Context, catalog []items.CatalogItem, query string) (string, error)
}

type Daemon struct {
	manager *config.Manager
	log     *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	started time.Time

	// newRunner builds the per-request pipeline. Tests swap it for a fake.
	newRunner func(cfg *config.Config) (runner, error)
}

func New(log *logging.Logger) (*Daemon, error) {
	manager, err := config.NewManager(log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		manager: manager,
		log:     log.WithComponent("daemon"),
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
		newRunner: func(cfg *config.Config) (runner, error) {
			return pipeline.FromConfig(cfg, log)
		},
	}, nil
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.manager.StartWatching(d.ctx); err != nil {
		d.log.WithError(err).Warn("configuration watch unavailable, edits need a restart")
	}
	defer d.manager.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		d.log.WithField("signal", sig.String()).Info("shutting down")
		d.cancel()
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.log.Info("daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.log.Info("shutdown requested")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	var req bus.Request
	if err := json.NewDecoder(c).Decode(&req); err != nil {
		d.log.WithError(err).Warn("unreadable request")
		_ = json.NewEncoder(c).Encode(errResponse(bus.KindBadRequest, fmt.Sprintf("malformed request: %v", err)))
		return
	}

	resp := d.handleRequest(req)
	if err := json.NewEncoder(c).Encode(resp); err != nil {
		d.log.WithError(err).Warn("failed to write response")
	}

	if req.Op == bus.OpStop {
		d.cancel()
	}
}

func (d *Daemon) handleRequest(req bus.Request) bus.Response {
	switch req.Op {
	case bus.OpProcess:
		return d.process(req)
	case bus.OpChat:
		return d.chat(req)
	case bus.OpStatus:
		return bus.Response{Status: &bus.StatusInfo{
			State:  "running",
			PID:    os.Getpid(),
			Uptime: time.Since(d.started).Round(time.Second).String(),
			Proto:  bus.ProtoVer,
		}}
	case bus.OpStop:
		return bus.Response{Reply: "stopping"}
	default:
		return errResponse(bus.KindBadRequest, fmt.Sprintf("unknown op %q", req.Op))
	}
}

func (d *Daemon) process(req bus.Request) bus.Response {
	mode, err := pipeline.ParseMode(req.Mode)
	if err != nil {
		return errResponse(bus.KindBadRequest, err.Error())
	}
	if len(req.Audio) == 0 {
		return errResponse(bus.KindBadRequest, "empty audio payload")
	}

	p, err := d.newRunner(d.manager.GetConfig())
	if err != nil {
		return classifyResponse(err)
	}

	recognized, err := p.Process(d.ctx, bytes.NewReader(req.Audio), req.MimeType, mode, pipeline.Request{
		Catalog:   req.Catalog,
		Locations: req.Locations,
	})
	if err != nil {
		return classifyResponse(err)
	}

	if recognized == nil {
		recognized = []items.RecognizedItem{}
	}
	return bus.Response{Items: recognized}
}

func (d *Daemon) chat(req bus.Request) bus.Response {
	if req.Query == "" {
		return errResponse(bus.KindBadRequest, "empty query")
	}

	p, err := d.newRunner(d.manager.GetConfig())
	if err != nil {
		return classifyResponse(err)
	}

	reply, err := p.Chat(d.ctx, req.Catalog, req.Query)
	if err != nil {
		return classifyResponse(err)
	}
	return bus.Response{Reply: reply}
}

func errResponse(kind, message string) bus.Response {
	return bus.Response{Error: &bus.ErrorInfo{Kind: kind, Message: message}}
}

// classifyResponse maps the upstream error taxonomy onto wire error kinds.
func classifyResponse(err error) bus.Response {
	var ue *upstream.UpstreamError
	switch {
	case upstream.IsConfig(err):
		return errResponse(bus.KindConfig, err.Error())
	case upstream.IsConnectivity(err):
		return errResponse(bus.KindConnectivity, err.Error())
	case errors.As(err, &ue):
		return bus.Response{Error: &bus.ErrorInfo{Kind: bus.KindUpstream, Message: err.Error(), Status: ue.StatusCode}}
	default:
		return errResponse(bus.KindInternal, err.Error())
	}
}
