// Command exdctl inspects sheet archives through the exdcache provider.
//
// Configuration is read from flags, environment variables and an optional
// JSON config file (see goconfig). Examples:
//
//	exdctl -backend local -path ./sqpack -command list
//	exdctl -backend web -baseurl https://example.org/exd -command rows -sheet Item -language en -ids 1-20
//	exdctl -backend local -path ./sqpack -command pack -out archive.db -codec zstd
//	exdctl -backend local -path ./sqpack -command watch
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fulldump/goconfig"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Config holds every exdctl setting.
type Config struct {
	Backend string `usage:"archive backend: local | bolt | s3 | minio | web"`
	Path    string `usage:"local directory or bolt file"`

	Bucket    string `usage:"s3/minio bucket"`
	Prefix    string `usage:"s3/minio key prefix"`
	Endpoint  string `usage:"s3/minio endpoint (empty uses the AWS default)"`
	Region    string `usage:"s3 region"`
	AccessKey string `usage:"minio access key"`
	SecretKey string `usage:"minio secret key"`
	UseSSL    bool   `usage:"minio: use TLS"`
	PathStyle bool   `usage:"s3: use path-style addressing"`

	BaseURL string `usage:"web backend base URL"`
	Version string `usage:"web backend version (empty selects the latest)"`

	Compressed  bool   `usage:"read .zst and .lz4 compressed files"`
	CacheMB     int64  `usage:"block cache size in MiB (0 disables)"`
	CacheDir    string `usage:"store the block cache on disk in this directory"`
	MaxFetches  int64  `usage:"maximum concurrent backend reads (0 is unlimited)"`
	IOLimit     int64  `usage:"maximum backend read rate in bytes/s (0 is unlimited)"`
	MemoryMB    int64  `usage:"memory limit for loaded sheets in MiB (0 is unlimited)"`
	HeaderCache int    `usage:"number of cached sheet headers"`
	Timeout     string `usage:"per-request timeout, e.g. 30s"`

	Command  string `usage:"list | header | rows | pack | watch"`
	Sheet    string `usage:"sheet name"`
	Language string `usage:"language name or code (en, de, ...)"`
	IDs      string `usage:"row ids, e.g. 1-10,42"`
	Limit    int    `usage:"maximum number of rows printed (0 is unlimited)"`
	JSON     bool   `usage:"print rows as JSON lines"`

	Out   string `usage:"pack: output bolt file"`
	Codec string `usage:"pack: none | zstd | lz4"`

	LogLevel string `usage:"log level: debug | info | warn | error"`
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "exdctl: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	c := Config{
		Backend:     "local",
		Path:        ".",
		Region:      "us-east-1",
		HeaderCache: 64,
		Timeout:     "30s",
		Command:     "list",
		Limit:       50,
		Codec:       "zstd",
		LogLevel:    "info",
	}
	goconfig.Read(&c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	level := &slog.LevelVar{}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	switch strings.ToLower(c.Command) {
	case "list":
		return cmdList(ctx, c, logger)
	case "header":
		return cmdHeader(ctx, c, logger)
	case "rows":
		return cmdRows(ctx, c, logger)
	case "pack":
		return cmdPack(ctx, c, logger)
	case "watch":
		return cmdWatch(ctx, c, logger)
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
}
