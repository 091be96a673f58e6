// Package app builds the drink exchange from a Config and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/rustyeddy/drinkx/api"
	"github.com/rustyeddy/drinkx/broadcast"
	"github.com/rustyeddy/drinkx/config"
	"github.com/rustyeddy/drinkx/journal"
	"github.com/rustyeddy/drinkx/market"
	"github.com/rustyeddy/drinkx/pricing"
	"github.com/rustyeddy/drinkx/scheduler"
)

// Service holds every long-lived component. It is built once per process.
type Service struct {
	cfg *config.Config

	Engine    *pricing.Engine
	Hub       *broadcast.Hub
	Scheduler *scheduler.Decay
	API       *api.Server
	Journal   journal.Journal

	ready  chan struct{}
	addr   string
	wsAddr string
}

// Build loads the drink list and wires the components. Any error here is
// fatal; nothing is served with partial pricing state.
func Build(cfg *config.Config, now time.Time) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seeds, err := cfg.Drinks.Seeds()
	if err != nil {
		return nil, err
	}

	store := market.NewStore(market.NewHistoryTracker(cfg.Pricing.HistorySize))
	if err := store.SeedAll(seeds, now); err != nil {
		return nil, fmt.Errorf("seed drinks: %w", err)
	}

	rules, err := cfg.Pricing.Rules()
	if err != nil {
		return nil, err
	}
	tick, err := cfg.Pricing.TickIntervalDuration()
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(cfg.Journal.Type, cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	engine := pricing.New(store, rules)
	engine.SetListener(journal.Recorder{J: j})

	hub := broadcast.NewHub(engine.Snapshot, broadcast.AllowOrigins(cfg.Server.CORSOrigins))
	// Purchases and decay ticks must publish through the same Publisher.
	pub := broadcast.NewPublisher(engine.Snapshot, hub)

	svc := &Service{
		cfg:       cfg,
		Engine:    engine,
		Hub:       hub,
		Scheduler: scheduler.New(engine, pub, tick),
		API: api.New(engine, pub, api.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			AccessLog:   true,
		}),
		Journal: j,
		ready:   make(chan struct{}),
	}

	glog.Infof("loaded %d drinks", store.Len())
	return svc, nil
}

// Ready is closed once both listeners are bound.
func (s *Service) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound HTTP API address once Ready is closed.
func (s *Service) Addr() string { return s.addr }

// WSAddr returns the bound websocket address once Ready is closed, or ""
// when the websocket listener is disabled.
func (s *Service) WSAddr() string { return s.wsAddr }

// Run serves until ctx is cancelled or a listener fails, then shuts
// everything down and closes the journal.
func (s *Service) Run(ctx context.Context) error {
	defer func() {
		if err := s.Journal.Close(); err != nil {
			glog.Warningf("close journal: %s", err)
		}
	}()

	apiLn, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	s.addr = apiLn.Addr().String()

	var (
		ws   *http.Server
		wsLn net.Listener
	)
	if s.cfg.Server.WSAddr != "" {
		wsLn, err = net.Listen("tcp", s.cfg.Server.WSAddr)
		if err != nil {
			apiLn.Close()
			return fmt.Errorf("listen %s: %w", s.cfg.Server.WSAddr, err)
		}
		s.wsAddr = wsLn.Addr().String()

		mux := http.NewServeMux()
		mux.Handle("/ws", s.Hub)
		mux.Handle("/", s.Hub)
		ws = &http.Server{
			Handler:     mux,
			ReadTimeout: 5 * time.Second,
			IdleTimeout: 60 * time.Second,
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		errc = make(chan error, 2)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Scheduler.Run(ctx)
	}()

	if ws != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			glog.Infof("websocket broadcast listening on %s", s.wsAddr)
			if err := ws.Serve(wsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("websocket server: %w", err)
				cancel()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		glog.Infof("http api listening on %s", s.addr)
		if err := s.API.Serve(apiLn); err != nil && !errors.Is(err, net.ErrClosed) {
			errc <- fmt.Errorf("http server: %w", err)
			cancel()
		}
	}()

	close(s.ready)
	<-ctx.Done()
	glog.Infof("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	s.Hub.Close()
	if ws != nil {
		if err := ws.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("websocket shutdown: %s", err)
		}
	}
	if err := s.API.Shutdown(); err != nil {
		glog.Warningf("http shutdown: %s", err)
	}
	// Shutdown is a no-op if Serve has not started yet.
	apiLn.Close()
	wg.Wait()

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}
