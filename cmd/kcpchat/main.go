// Command kcpchat drives two engine sessions wired back to back, either from
// the command line or through an interactive terminal UI.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-kcp/engine"
	"github.com/wippyai/wasm-kcp/internal/testengine"
	"github.com/wippyai/wasm-kcp/session"
)

type options struct {
	engine      string
	config      string
	cacheDir    string
	from        string
	messages    []string
	count       int
	timeout     time.Duration
	interactive bool
	verbose     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options

	flagSet := pflag.NewFlagSet("kcpchat", pflag.ContinueOnError)
	flagSet.StringVar(&opts.engine, "engine", "", "path to the engine wasm file, optionally zstd-compressed (default: built-in loopback engine)")
	flagSet.StringVar(&opts.config, "config", "", "YAML file with the session configuration of both peers")
	flagSet.StringVar(&opts.cacheDir, "cache-dir", "", "directory for the compilation cache")
	flagSet.StringVar(&opts.from, "from", "a", "sending side: a or b")
	flagSet.StringArrayVarP(&opts.messages, "message", "m", nil, "message to send (repeatable; default: lines from stdin)")
	flagSet.IntVar(&opts.count, "count", 1, "times to send each message")
	flagSet.DurationVar(&opts.timeout, "timeout", 5*time.Second, "receive timeout per message")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "interactive mode with TUI")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.from != "a" && opts.from != "b" {
		return fmt.Errorf("--from must be a or b, got %q", opts.from)
	}

	cfg := defaultPairConfig()
	if opts.config != "" {
		c, err := loadConfig(opts.config)
		if err != nil {
			return err
		}
		cfg = c
	}
	if opts.engine == "" {
		opts.engine = cfg.Engine
	}
	if opts.cacheDir != "" {
		cfg.CacheDir = opts.cacheDir
	}

	wasm := testengine.Wasm()
	if opts.engine != "" {
		data, err := os.ReadFile(opts.engine)
		if err != nil {
			return fmt.Errorf("read engine: %w", err)
		}
		wasm = data
	}

	if opts.interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	log, err := newLogger(opts.verbose, opts.interactive)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	engine.SetLogger(log.Named("engine"))
	session.SetLogger(log.Named("session"))

	ctx := context.Background()
	p, err := openPair(ctx, wasm, cfg, log)
	if err != nil {
		return err
	}

	if opts.interactive {
		err = runInteractive(p, opts.engine)
	} else {
		err = exchange(ctx, p, &opts, os.Stdin, os.Stdout)
	}
	return multierr.Append(err, p.close(ctx))
}

// newLogger builds a development logger when verbose. In interactive mode
// the terminal belongs to the UI, so logs go to kcpchat.log.
func newLogger(verbose, interactive bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	if interactive {
		cfg.OutputPaths = []string{"kcpchat.log"}
		cfg.ErrorOutputPaths = []string{"kcpchat.log"}
	}
	return cfg.Build()
}

// exchange sends every message from one side and waits for it on the other.
func exchange(ctx context.Context, p *pair, opts *options, stdin io.Reader, out io.Writer) error {
	messages := opts.messages
	if len(messages) == 0 {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return fmt.Errorf("no messages: pass -m or pipe lines on stdin")
		}
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			messages = append(messages, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	src, dst := p.side(opts.from)
	to := "b"
	if opts.from == "b" {
		to = "a"
	}

	for i := 0; i < opts.count; i++ {
		for _, msg := range messages {
			start := time.Now()
			if err := src.Send([]byte(msg)); err != nil {
				return fmt.Errorf("send: %w", err)
			}

			rctx, cancel := context.WithTimeout(ctx, opts.timeout)
			got, err := dst.Recv(rctx, 0)
			cancel()
			if err != nil {
				return fmt.Errorf("recv: %w", err)
			}
			fmt.Fprintf(out, "%s -> %s  %q  (%s)\n", opts.from, to, got, time.Since(start).Round(time.Millisecond))
		}
	}

	stats := p.inst.Stats()
	digest := p.inst.Digest()
	fmt.Fprintf(out, "\nengine %s  calls=%d outputs=%d dropped=%d memory=%d\n",
		hex.EncodeToString(digest[:8]), stats.Calls, stats.Outputs, stats.Dropped, p.inst.MemorySize())
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `kcpchat runs two sessions of the engine back to back and exchanges messages.

Usage:
  kcpchat [--engine kcp.wasm] -m hello -m world
  echo hello | kcpchat --from b
  kcpchat -i

Flags:
%s`, flagSet.FlagUsages())
}
