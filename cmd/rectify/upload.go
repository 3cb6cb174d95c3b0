package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/rectifier/rectify/pkg/config"
	"github.com/rectifier/rectify/pkg/console"
	"github.com/rectifier/rectify/pkg/mirror"
	"github.com/rectifier/rectify/pkg/remote"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	uploadPath        string
	uploadFolder      string
	uploadConcurrency int
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a local directory tree",
	Long: `Upload every file below a local directory into a remote folder,
creating a remote folder for each subdirectory. Missing --path or --folder
values are asked for interactively.`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadPath, "path", "",
		"Local directory to upload")
	uploadCmd.Flags().StringVar(&uploadFolder, "folder", "",
		"Remote folder ID (Drive) or prefix (S3) to upload into")
	uploadCmd.Flags().IntVar(&uploadConcurrency, "concurrency", 0,
		"Maximum uploads in flight (overrides upload.concurrency)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if uploadConcurrency > 0 {
		cfg.Upload.Concurrency = uploadConcurrency
	}

	printer := console.NewPrinter(cmd.OutOrStdout())
	printer.Banner()

	// Set up context with signal handling.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Warn("Interrupted, abandoning pending uploads")
			cancel()
		case <-ctx.Done():
		}
	}()

	answers, err := console.Prompt(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), console.Answers{
		LocalPath: uploadPath,
		FolderID:  uploadFolder,
	})
	if err != nil {
		return err
	}

	runLog := log.WithFields(logrus.Fields{
		"run_id":  uuid.NewString(),
		"backend": cfg.Upload.Backend,
	})

	if err := upload(ctx, runLog, cfg, printer, answers); err != nil {
		printer.Failure(err)

		return err
	}

	return nil
}

// upload validates the local root before touching the remote side, then
// mirrors it into the destination folder.
func upload(
	ctx context.Context,
	log logrus.FieldLogger,
	cfg *config.Config,
	printer *console.Printer,
	answers console.Answers,
) error {
	abs, err := filepath.Abs(answers.LocalPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", answers.LocalPath, err)
	}

	fs := osfs.New(filepath.Dir(abs))
	root := filepath.Base(abs)

	info, err := fs.Stat(root)
	if err != nil {
		return fmt.Errorf("opening %s: %w", abs, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", abs, mirror.ErrNotDirectory)
	}

	store, err := newStorage(ctx, log, cfg)
	if err != nil {
		return err
	}

	if cfg.Upload.Preflight {
		if err := store.Preflight(ctx, answers.FolderID); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"path":        abs,
		"folder":      answers.FolderID,
		"concurrency": cfg.Upload.Concurrency,
	}).Info("Uploading directory tree")

	b := mirror.New(log, fs, store,
		mirror.WithConcurrency(cfg.Upload.Concurrency),
		mirror.WithReporter(printer),
	)

	if err := b.Mirror(ctx, root, answers.FolderID); err != nil {
		return fmt.Errorf("uploading %s: %w", abs, err)
	}

	summary := b.Summary()

	log.WithFields(logrus.Fields{
		"folders":  summary.ContainersCreated,
		"uploaded": summary.FilesUploaded,
		"failed":   summary.FilesFailed,
		"skipped":  summary.EntriesSkipped,
		"bytes":    summary.BytesUploaded,
	}).Info("Upload completed")

	printer.Success(summary)

	return nil
}

// newStorage returns the backend selected by upload.backend.
func newStorage(
	ctx context.Context,
	log logrus.FieldLogger,
	cfg *config.Config,
) (remote.Storage, error) {
	switch cfg.Upload.Backend {
	case config.BackendDrive:
		store, err := remote.NewDrive(ctx, log, cfg.Drive.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("creating drive client: %w", err)
		}

		return store, nil
	case config.BackendS3:
		return remote.NewS3(log, &cfg.S3), nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Upload.Backend, config.ErrUnsupportedBackend)
	}
}
