package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"

	"github.com/conletkit/console/internal/app"
	"github.com/conletkit/console/internal/config"
	"github.com/conletkit/console/internal/console"
	"github.com/conletkit/console/internal/eventloop"
	"github.com/conletkit/console/internal/resource"
	"github.com/conletkit/console/internal/store"
	"github.com/conletkit/console/internal/transport"
	"github.com/conletkit/console/internal/views/debug"

	tea "github.com/charmbracelet/bubbletea"
)

type localStore interface {
	store.LocalStore
	io.Closer
}

func openStore(path string) (localStore, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// run starts the console on an event loop and blocks in the Bubble Tea
// program until the user quits. reload re-reads the configuration when
// the server asks for a reload.
func run(cfg *config.Config, reload func() (*config.Config, error)) error {
	st, err := openStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	var program atomic.Pointer[tea.Program]
	send := func(msg tea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	}
	logger := log.New(debug.NewWriter(func(e debug.Entry) {
		send(app.LogMsg{Entry: e})
	}), "", 0)

	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-loop.Done()
	}()
	go loop.Run(ctx)

	bridge := app.NewBridge(send, loop.Post, cfg.Console.Locale)

	// Loop goroutine only.
	var current *console.Console
	var start func(cfg *config.Config) error
	start = func(cfg *config.Config) error {
		c, err := newConsole(cfg, loop, st, bridge, logger, func() {
			next, err := reload()
			if err != nil {
				logger.Printf("console: reload: %v, keeping configuration", err)
				next = cfg
			}
			for _, change := range config.Diff(cfg, next) {
				logger.Printf("console: config %s", change)
			}
			current.Abandon()
			if err := start(next); err != nil {
				logger.Printf("console: restart failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		current = c
		bridge.Attach(c)
		c.Start()
		return nil
	}

	var sessionID string
	loop.Call(func() {
		if err = start(cfg); err == nil {
			sessionID = current.SessionID()
		}
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(app.New(bridge, sessionID), tea.WithAltScreen())
	program.Store(p)
	_, err = p.Run()
	program.Store(nil)

	loop.Call(func() { current.Close() })
	if err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func newConsole(cfg *config.Config, loop *eventloop.Loop, st store.LocalStore, bridge *app.Bridge,
	logger *log.Logger, onReload func()) (*console.Console, error) {
	fetcher, err := resource.NewHTTPFetcher(strings.TrimSuffix(cfg.Console.URL, "/")+"/", cfg.HTTP.Timeout)
	if err != nil {
		return nil, err
	}
	return console.New(console.Options{
		BaseURL:             cfg.Console.URL,
		Namespace:           cfg.Console.Namespace,
		SessionID:           cfg.Console.SessionID,
		Locale:              cfg.Console.Locale,
		RefreshInterval:     cfg.Session.RefreshInterval,
		InactivityTimeout:   cfg.Session.InactivityTimeout,
		ReconnectDelay:      cfg.Session.ReconnectDelay,
		ResourceReportAfter: cfg.Session.ResourceReportAfter,
		Scheduler:           loop,
		Dialer:              transport.WebSocketDialer{},
		Head:                resource.NewMemoryHead(fetcher),
		Store:               st,
		Renderer:            bridge,
		OnReload:            onReload,
		Logger:              logger,
	})
}
