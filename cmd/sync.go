package cmd

import (
	"context"
	"fmt"
	"os"

	internalApp "github.com/haierkeys/cloudnav-sync-service/internal/app"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/syncengine"

	"github.com/gookit/goutil/dump"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// PasswordEnv 客户端访问密码的环境变量
const PasswordEnv = "CLOUDNAV_PASSWORD"

type syncFlags struct {
	config   string
	server   string
	password string
	cacheDir string
	dump     bool
}

// clientSession 命令行客户端使用的同步引擎
type clientSession struct {
	engine *syncengine.Engine
	cache  *syncengine.LocalCache
	cfg    *internalApp.AppConfig
}

func newClientSession(f *syncFlags) (*clientSession, error) {
	path, err := resolveConfig(f.config)
	if err != nil {
		return nil, err
	}
	cfg, _, err := internalApp.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	server := cfg.Client.ServerURL
	if f.server != "" {
		server = f.server
	}
	password := cfg.Client.Password
	if env := os.Getenv(PasswordEnv); env != "" {
		password = env
	}
	if f.password != "" {
		password = f.password
	}
	cacheDir := cfg.Client.CacheDir
	if f.cacheDir != "" {
		cacheDir = f.cacheDir
	}
	if err := os.MkdirAll(cacheDir, 0o754); err != nil {
		return nil, errors.Wrap(err, "create cache dir")
	}

	cache := syncengine.NewLocalCache(cacheDir)
	opts := []syncengine.Option{syncengine.WithLogger(bootstrapLogger)}
	if password != "" {
		opts = append(opts, syncengine.WithCredential(password))
	}
	return &clientSession{
		engine: syncengine.New(syncengine.NewHTTPStore(server, cfg.GetClientTimeout()), cache, opts...),
		cache:  cache,
		cfg:    cfg,
	}, nil
}

func printSnapshot(cmd *cobra.Command, snap syncengine.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state:       %s\n", snap.State)
	fmt.Fprintf(out, "version:     %d\n", snap.ConfirmedVersion)
	fmt.Fprintf(out, "links:       %d\n", len(snap.Links))
	fmt.Fprintf(out, "categories:  %d\n", len(snap.Categories))
	fmt.Fprintf(out, "auth:        required=%t credential=%t\n", snap.RequiresAuth, snap.HasCredential)
	if snap.LastError != nil {
		fmt.Fprintf(out, "last error:  %v\n", snap.LastError)
	}
}

func init() {
	f := new(syncFlags)

	syncCommand := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the local cache with a running server",
	}

	statusCommand := &cobra.Command{
		Use:   "status",
		Short: "Load the document and print the sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClientSession(f)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.GetClientTimeout())
			defer cancel()

			if err := s.engine.Load(ctx); err != nil {
				return err
			}
			snap := s.engine.Snapshot()
			printSnapshot(cmd, snap)
			if f.dump {
				dump.P(snap.Categories, snap.Links)
			}
			return nil
		},
	}

	pullCommand := &cobra.Command{
		Use:   "pull",
		Short: "Fetch the cloud document into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClientSession(f)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.GetClientTimeout())
			defer cancel()

			if err := s.engine.Load(ctx); err != nil {
				return err
			}
			snap := s.engine.Snapshot()
			printSnapshot(cmd, snap)
			if snap.State != syncengine.CloudLoaded {
				if snap.LastError != nil {
					return errors.Wrap(snap.LastError, "pull")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cloud document is empty, local cache kept")
			}
			return nil
		},
	}

	pushCommand := &cobra.Command{
		Use:   "push",
		Short: "Overwrite the cloud document with the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClientSession(f)
			if err != nil {
				return err
			}
			links, cats, ok, err := s.cache.Load()
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("no local cache at %s", s.cache.Path())
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.GetClientTimeout())
			defer cancel()

			// Load 会用云端数据覆盖缓存，先读出待推送的内容
			if err := s.engine.Load(ctx); err != nil {
				return err
			}
			if snap := s.engine.Snapshot(); snap.ConfirmedVersion == 0 {
				return errors.Errorf("push: server unavailable: %v", snap.LastError)
			}
			err = s.engine.Mutate(ctx, func(_ []domain.Link, _ []domain.Category) ([]domain.Link, []domain.Category, error) {
				return links, cats, nil
			})
			printSnapshot(cmd, s.engine.Snapshot())
			if err != nil {
				return err
			}
			// 未认证时只写入了本地缓存
			if s.engine.Snapshot().State != syncengine.CloudLoaded {
				return domain.ErrAuthRequired
			}
			return nil
		},
	}

	syncCommand.AddCommand(statusCommand, pullCommand, pushCommand)
	rootCmd.AddCommand(syncCommand)

	fs := syncCommand.PersistentFlags()
	fs.StringVarP(&f.config, "config", "c", "", "config file")
	fs.StringVarP(&f.server, "server", "s", "", "server url, overrides client.server-url")
	fs.StringVarP(&f.password, "password", "P", "", "access password, overrides "+PasswordEnv)
	fs.StringVar(&f.cacheDir, "cache-dir", "", "local cache directory")
	statusCommand.Flags().BoolVar(&f.dump, "dump", false, "dump categories and links")
}
