package main

import (
	"fmt"

	"github.com/kardianos/service"

	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/logging"
	"dev.c0redev.netcopy/internal/server"
)

func svcConfig() *service.Config {
	return &service.Config{
		Name:        "netcopy-server",
		DisplayName: "NetCopy Server",
		Description: "Secure point-to-point file transfer server",
		Arguments:   []string{"-service"},
	}
}

// program adapts the server to the service manager lifecycle.
type program struct {
	cfg config.ServerConfig
	srv *server.Server
}

func (p *program) Start(s service.Service) error {
	log, _, err := logging.Setup(p.cfg.LogLevel, false, p.cfg.LogFile)
	if err != nil {
		return err
	}
	p.srv, err = server.New(p.cfg, log)
	if err != nil {
		return err
	}
	if err := p.srv.Listen(); err != nil {
		return err
	}
	go p.srv.Serve()
	return nil
}

func (p *program) Stop(s service.Service) error {
	p.srv.Stop()
	p.srv.Wait()
	return nil
}

// runServiceVerb dispatches the service-manager flags. Returns handled
// false when the process should run in the foreground instead.
func runServiceVerb(cfg config.ServerConfig, run, install, uninstall, start, stop bool) (bool, error) {
	if !run && !install && !uninstall && !start && !stop {
		return false, nil
	}
	svc, err := service.New(&program{cfg: cfg}, svcConfig())
	if err != nil {
		return true, err
	}
	switch {
	case run:
		return true, svc.Run()
	case install:
		if err := svc.Install(); err != nil {
			return true, err
		}
		fmt.Println("Service installed")
	case uninstall:
		if err := svc.Uninstall(); err != nil {
			return true, err
		}
		fmt.Println("Service uninstalled")
	case start:
		if err := svc.Start(); err != nil {
			return true, err
		}
		fmt.Println("Service started")
	case stop:
		if err := svc.Stop(); err != nil {
			return true, err
		}
		fmt.Println("Service stopped")
	}
	return true, nil
}
