package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"wasend/internal/app"
	"wasend/internal/infra/config"
	"wasend/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error kind to a process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, session.ErrAuthentication):
		return 2
	case errors.Is(err, session.ErrUnsupportedMedia):
		return 3
	case errors.Is(err, session.ErrUploadRequest), errors.Is(err, session.ErrUpload):
		return 4
	case errors.Is(err, session.ErrTransport):
		return 5
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("command required")
	}

	command, args := args[0], args[1:]
	switch command {
	case "send":
		return runSend(args)
	case "media":
		return runMedia(args)
	case "pair":
		return runPair(args)
	case "history":
		return runHistory(args)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %q", command)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: wasend <command> [flags]

Commands:
  send <to> <text>     Send a text message and wait for the server ack
  media <to> <file>    Upload an image, audio or video file and send it
  pair                 Link this device by scanning a QR code
  history <to>         Show messages previously sent to a recipient

Recipients are phone numbers in international format without '+', or
full JIDs (e.g. 123456789-987654321@g.us).

Common flags:
  --config string      config file (.json, .toml or .yaml)
  --log-level string   override the configured log level
`)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath string
	logLevel   string
	timeout    time.Duration
}

func newFlagSet(name string, common *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("wasend "+name, pflag.ContinueOnError)
	fs.StringVarP(&common.configPath, "config", "c", "", "config file (.json, .toml or .yaml)")
	fs.StringVar(&common.logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	fs.DurationVar(&common.timeout, "timeout", 0, "give up after this long (0 uses the configured value)")
	return fs
}

// open loads configuration and creates the App.
func open(common *commonFlags) (*app.App, error) {
	cfg, err := config.Load(common.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if common.logLevel != "" {
		cfg.LogLevel = common.logLevel
	}
	if common.timeout > 0 {
		cfg.Timeout = common.timeout
	}

	application, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return application, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runSend(args []string) error {
	var common commonFlags
	fs := newFlagSet("send", &common)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: wasend send <to> <text>")
	}
	to, text := fs.Arg(0), strings.Join(fs.Args()[1:], " ")

	application, err := open(&common)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signalContext()
	defer stop()

	ack, err := application.SendMessage(ctx, to, text)
	if err != nil {
		return err
	}
	fmt.Printf("%s delivered to server in %s\n", ack.MessageID, ack.Elapsed.Round(time.Millisecond))
	return nil
}

func runMedia(args []string) error {
	var common commonFlags
	fs := newFlagSet("media", &common)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: wasend media <to> <file>")
	}

	application, err := open(&common)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signalContext()
	defer stop()

	ack, err := application.SendMedia(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) delivered to server in %s\n", ack.MessageID, ack.Kind, ack.Elapsed.Round(time.Millisecond))
	return nil
}

func runPair(args []string) error {
	var common commonFlags
	var qrFile string
	fs := newFlagSet("pair", &common)
	fs.StringVar(&qrFile, "qr-file", "", "also save each QR code as a PNG at this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	application, err := open(&common)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signalContext()
	defer stop()

	return application.Pair(ctx, os.Stdout, qrFile)
}

func runHistory(args []string) error {
	var common commonFlags
	var limit int
	fs := newFlagSet("history", &common)
	fs.IntVarP(&limit, "limit", "n", 20, "number of messages to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: wasend history <to>")
	}

	application, err := open(&common)
	if err != nil {
		return err
	}
	defer application.Close()

	msgs, err := application.History(fs.Arg(0), limit)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		status := "pending"
		if m.AckedAt != nil {
			status = "acked " + m.AckedAt.Format(time.DateTime)
		}
		body := m.Text
		if m.FilePath != "" {
			body = m.FilePath
		}
		fmt.Printf("%s  %-5s  %-20s  %s\n", m.SentAt.Format(time.DateTime), m.Kind, status, body)
	}
	return nil
}
