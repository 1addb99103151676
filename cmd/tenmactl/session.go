package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/tenmactl"
	"github.com/mdouchement/tenmactl/capture"
	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
)

const dummyModel = "72-2550"

type options struct {
	cpath   string
	port    string
	model   string
	capture string
	channel int
	debug   bool
	dummy   bool
	quiet   bool
}

// session lazily connects the power supply shared by all commands.
type session struct {
	opts     options
	cfg      tenmactl.Config
	log      logger.Logger
	ps       *tenma.PowerSupply
	recorder *capture.FileRecorder
}

func (s *session) setup(cmd *cobra.Command, _ []string) error {
	var err error
	s.cfg, err = loadConfig(s.opts.cpath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if s.opts.debug {
		s.cfg.Debug = true
	}

	level := slog.LevelInfo
	switch {
	case s.cfg.Debug:
		level = slog.LevelDebug
	case s.opts.quiet:
		level = slog.LevelWarn
	}

	h := logger.NewSlogTextHandler(os.Stderr, &logger.SlogTextOption{
		Level:            level,
		ForceColors:      true,
		ForceFormatting:  true,
		PrefixRE:         regexp.MustCompile(`^(\[.*?\])\s`),
		DisableTimestamp: true,
	})
	s.log = logger.WrapSlogHandler(h)
	cmd.SetContext(logger.WithLogger(cmd.Context(), s.log))

	return nil
}

func loadConfig(path string) (tenmactl.Config, error) {
	if path != "" {
		return tenmactl.Load(path)
	}

	path, err := tenmactl.ConfigPath()
	if err != nil {
		return tenmactl.Default(), nil
	}

	cfg, err := tenmactl.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return tenmactl.Default(), nil
	}
	return cfg, err
}

// connect opens the power supply on first use.
func (s *session) connect() (*tenma.PowerSupply, error) {
	if s.ps != nil {
		return s.ps, nil
	}

	opts := []tenma.Option{
		tenma.WithLogger(s.log),
		tenma.WithSettleDelay(s.cfg.SettleDelay.Duration),
	}

	model := s.opts.model
	if model == "" {
		model = s.cfg.Model
	}
	if model != "" {
		opts = append(opts, tenma.WithModel(model))
	}

	cpath := s.opts.capture
	if cpath == "" {
		cpath = s.cfg.Capture
	}
	if cpath != "" {
		rec, err := capture.NewFileRecorder(cpath)
		if err != nil {
			return nil, fmt.Errorf("capture: %w", err)
		}
		s.recorder = rec
		opts = append(opts, tenma.WithRecorder(rec))
		s.log.Debugf("Capturing session %s into %s", rec.SessionID(), cpath)
	}

	var err error
	if s.opts.dummy {
		if model == "" {
			model = dummyModel
		}
		p, ok := tenma.Lookup(model)
		if !ok {
			return nil, fmt.Errorf("unknown model %s", model)
		}

		emulator := tenmactl.NewEmulator(p)
		if s.cfg.Debug {
			emulator.SetLogger(s.log)
		}
		opts = append(opts, tenma.WithOpener(emulator.Open), tenma.WithSettleDelay(0))

		s.ps, err = tenma.Detect(emulator.Port(), emulator, opts...)
	} else {
		var port string
		port, err = s.findPort()
		if err != nil {
			return nil, err
		}

		s.ps, err = tenma.Open(port, opts...)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debugf("Power supply %s on port `%s`", s.ps.Profile().Name, s.ps.Port())
	return s.ps, nil
}

func (s *session) close() {
	if s.ps != nil {
		if err := s.ps.Close(); err != nil {
			s.log.WithError(err).Error("Could not close power supply")
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.log.WithError(err).Error("Could not close capture")
		}
	}
}

// findPort resolves the port from the flags, the configuration, the USB
// devices and finally asks for it, persisting the answer.
func (s *session) findPort() (string, error) {
	if s.opts.port != "" {
		return s.opts.port, nil
	}
	if s.cfg.Port != "" {
		return s.cfg.Port, nil
	}

	port, err := tenma.FindPort()
	if err == nil {
		return port, nil
	}
	if !errors.Is(err, tenma.ErrNotFound) {
		return "", err
	}

	fmt.Print("Enter a serial port: ")
	r := bufio.NewReader(os.Stdin)
	port, err = r.ReadString('\n')
	if err != nil {
		return "", err
	}

	port = strings.TrimSpace(port)
	if port == "" {
		return "", tenma.ErrNotFound
	}

	cpath, err := tenmactl.ConfigPath()
	if err != nil {
		return "", err
	}
	return port, tenmactl.SavePort(cpath, port)
}

// print writes human output, or only the values in quiet mode.
func (s *session) print(values []any, format string, args ...any) {
	if s.opts.quiet {
		fmt.Println(values...)
		return
	}
	fmt.Printf(format+"\n", args...)
}
