package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lekha-app/lekha/internal/backup"
	"github.com/lekha-app/lekha/internal/cli"
	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/config"
	"github.com/lekha-app/lekha/internal/service"
	"github.com/lekha-app/lekha/internal/sync"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync backups with Google Drive",
		Long: `Replicate the full backup file to Google Drive. A single file named
` + sync.BackupFileName + ` is created on first push and updated in place
afterwards. If saved credentials are rejected, re-authentication is
attempted once before the operation fails.`,
	}

	cmd.AddCommand(syncAuthCmd())
	cmd.AddCommand(syncPushCmd())
	cmd.AddCommand(syncPullCmd())

	return cmd
}

func syncAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Drive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDriveConfig()
			if err != nil {
				return err
			}

			if _, err := sync.AuthenticateInteractive(cmd.Context(), *cfg); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Authenticated with Google Drive"))
			return nil
		},
	}
}

func syncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the full backup to Drive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := newSyncService(ctx, store)
			if err != nil {
				return err
			}

			if err := svc.Push(ctx); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(cli.CloudIcon + " Backup pushed to Drive"))
			return nil
		},
	}
}

func syncPullCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download the Drive backup and restore it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !yes {
				confirmed, err := cli.NewPrompter(nil, nil).Confirm("Pulling overwrites local records with matching IDs. Continue?", false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println(cli.FormatInfo("Aborted."))
					return nil
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, err := newSyncService(ctx, store)
			if err != nil {
				return err
			}

			if err := svc.Pull(ctx); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(cli.CloudIcon + " Backup pulled from Drive"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation prompt")
	return cmd
}

// newSyncService wires storage, Drive, and the one-shot re-auth fallback.
func newSyncService(ctx context.Context, store service.Storage) (*sync.Service, error) {
	cfg, err := config.LoadDriveConfig()
	if err != nil {
		return nil, err
	}

	client, err := sync.NewDriveClient(ctx, *cfg)
	if errors.Is(err, common.ErrNotAuthenticated) {
		if _, authErr := sync.AuthenticateInteractive(ctx, *cfg); authErr != nil {
			return nil, authErr
		}
		client, err = sync.NewDriveClient(ctx, *cfg)
	}
	if err != nil {
		return nil, err
	}

	reauth := func(ctx context.Context) (sync.Remote, error) {
		if _, authErr := sync.AuthenticateInteractive(ctx, *cfg); authErr != nil {
			return nil, authErr
		}
		return sync.NewDriveClient(ctx, *cfg)
	}

	return sync.NewService(backup.NewService(store), client, reauth), nil
}
