// Command extract runs the invoice pipeline against a saved page or PDF and prints the JSON result.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kirillkom/invoice-autofill/internal/adapters/actions"
	"github.com/kirillkom/invoice-autofill/internal/bootstrap"
	"github.com/kirillkom/invoice-autofill/internal/config"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/invoice-autofill/internal/observability/logging"
)

type options struct {
	file        string
	url         string
	contentType string
	textOnly    bool
	viaNATS     bool
	logLevel    string
	timeout     time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(run(opts, os.Stdout))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.file, "file", "f", "", "saved HTML page or PDF file")
	fs.StringVarP(&opts.url, "url", "u", "", "page URL of the saved file, or a PDF URL to fetch when --file is absent")
	fs.StringVar(&opts.contentType, "content-type", "", "content type of the saved page (default text/html)")
	fs.BoolVar(&opts.textOnly, "text-only", false, "recover PDF text without calling the AI provider")
	fs.BoolVar(&opts.viaNATS, "nats", false, "send the action to a running worker over NATS")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.DurationVar(&opts.timeout, "timeout", 3*time.Minute, "overall deadline")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: extract --file invoice.pdf | --file page.html --url https://... | --url https://.../invoice.pdf")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.file == "" && opts.url == "" {
		fs.Usage()
		return options{}, errors.New("--file or --url is required")
	}
	return opts, nil
}

func run(opts options, stdout io.Writer) int {
	cfg := config.Load()
	logger := installLogger(os.Stderr, opts.logLevel)

	env, err := buildEnvelope(opts, os.ReadFile)
	if err != nil {
		logger.Error("build_request_failed", "error", err)
		return 2
	}
	payload, err := json.Marshal(env)
	if err != nil {
		logger.Error("encode_request_failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var reply []byte
	if opts.viaNATS {
		bus, err := bootstrap.ConnectBus(cfg)
		if err != nil {
			logger.Error("bus_connect_failed", "error", err)
			return 1
		}
		defer bus.Close()
		reply, err = bus.Request(ctx, payload)
		if err != nil {
			logger.Error("bus_request_failed", "error", err)
			return 1
		}
	} else {
		app, err := bootstrap.New(ctx, cfg, nil)
		if err != nil {
			logger.Error("bootstrap_failed", "error", err)
			return 1
		}
		defer app.Close()
		reply = app.Dispatcher.Dispatch(ctx, payload)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, reply, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(reply)
	}
	fmt.Fprintln(stdout, pretty.String())
	if isErrorReply(reply) {
		return 1
	}
	return 0
}

// installLogger sets the CLI logger as the process default.
func installLogger(w io.Writer, level string) *slog.Logger {
	logger := logging.New(w, "extract", level, "text")
	slog.SetDefault(logger)
	return logger
}

func buildEnvelope(opts options, readFile func(string) ([]byte, error)) (actions.Envelope, error) {
	if opts.file == "" {
		return actions.Envelope{Action: actions.ActionProcessPDF, URL: opts.url}, nil
	}
	data, err := readFile(opts.file)
	if err != nil {
		return actions.Envelope{}, fmt.Errorf("read %s: %w", opts.file, err)
	}

	if pdftext.HasSignature(data) {
		action := actions.ActionProcessPDFFile
		if opts.textOnly {
			action = actions.ActionExtractPDFText
		}
		return actions.Envelope{
			Action: action,
			Name:   filepath.Base(opts.file),
			Data:   base64.StdEncoding.EncodeToString(data),
		}, nil
	}
	if opts.textOnly {
		return actions.Envelope{}, fmt.Errorf("%s is not a PDF", opts.file)
	}

	contentType := strings.TrimSpace(opts.contentType)
	if contentType == "" {
		contentType = "text/html"
	}
	pageURL := opts.url
	if pageURL == "" {
		abs, err := filepath.Abs(opts.file)
		if err != nil {
			abs = opts.file
		}
		pageURL = "file://" + filepath.ToSlash(abs)
	}
	return actions.Envelope{
		Action:      actions.ActionExtractInvoice,
		URL:         pageURL,
		ContentType: contentType,
		HTML:        string(data),
	}, nil
}

func isErrorReply(reply []byte) bool {
	var probe struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(reply, &probe); err != nil {
		return false
	}
	return probe.Error != "" && probe.Kind != ""
}
