package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	f := new(syncFlags)

	importCommand := &cobra.Command{
		Use:   "import <bookmarks.html>",
		Short: "Merge a browser bookmark export into the cloud document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open bookmark file")
			}
			defer file.Close()

			res, err := dataset.ParseBookmarks(file, time.Now())
			if err != nil {
				return err
			}

			s, err := newClientSession(f)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.GetClientTimeout())
			defer cancel()

			if err := s.engine.Load(ctx); err != nil {
				return err
			}
			if err := s.engine.ImportMerge(ctx, res); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d links, %d categories\n", len(res.Links), len(res.Categories))
			printSnapshot(cmd, s.engine.Snapshot())
			return nil
		},
	}

	rootCmd.AddCommand(importCommand)

	fs := importCommand.Flags()
	fs.StringVarP(&f.config, "config", "c", "", "config file")
	fs.StringVarP(&f.server, "server", "s", "", "server url, overrides client.server-url")
	fs.StringVarP(&f.password, "password", "P", "", "access password, overrides "+PasswordEnv)
	fs.StringVar(&f.cacheDir, "cache-dir", "", "local cache directory")
}
