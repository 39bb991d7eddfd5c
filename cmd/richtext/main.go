// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp"
	"github.com/mdhender/richtext"
	"github.com/mdhender/richtext/config"
	"github.com/mdhender/richtext/model"
	"github.com/mdhender/richtext/outline"
	"github.com/mdhender/richtext/pipelines/stages"
	"github.com/mdhender/richtext/renderer"
	store "github.com/mdhender/richtext/stores/sqlite"
	"github.com/mdhender/richtext/web/handlers"
	"github.com/spf13/cobra"
)

// cfg is loaded from the environment before any command runs.
var cfg = &config.Config{}

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "richtext",
		Short: "Rich text command line utility",
		Long:  `Render rich-text documents to HTML and run the rendering pipeline`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("richtext: version %q\n", richtext.Version().Core())
			}

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
	}
	cmdRoot.AddCommand(cmdRender())
	cmdRoot.AddCommand(cmdOutline())
	cmdRoot.AddCommand(cmdDB())
	cmdRoot.AddCommand(cmdServe())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

// addRenderFlags binds the flags that override the rendering settings in cfg.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("sanitize", false, "pass the output through the UGC sanitizer")
	cmd.Flags().String("normalize", "", "normalize text values (NFC, NFD, NFKC, NFKD)")
	cmd.Flags().Bool("preserve-whitespace", false, "keep runs of spaces and line breaks visible")
}

// newRenderer builds a renderer from cfg and any render flags set on cmd.
func newRenderer(cmd *cobra.Command) (*renderer.Renderer, error) {
	if cmd.Flags().Changed("sanitize") {
		cfg.Sanitize, _ = cmd.Flags().GetBool("sanitize")
	}
	if cmd.Flags().Changed("normalize") {
		cfg.Normalize, _ = cmd.Flags().GetString("normalize")
	}
	if cmd.Flags().Changed("preserve-whitespace") {
		cfg.PreserveWhitespace, _ = cmd.Flags().GetBool("preserve-whitespace")
	}
	options, err := cfg.RendererOptions()
	if err != nil {
		return nil, err
	}
	return renderer.New(options...)
}

// readDocument loads and decodes a document file.
func readDocument(path string, verbose bool) (*richtext.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("%s: read %s\n", path, humanize.Bytes(uint64(len(data))))
	}
	doc, err := richtext.DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func cmdRender() *cobra.Command {
	var outputFile string
	var cmd = &cobra.Command{
		Use:          "render <document.json>",
		Short:        "render a rich-text document to HTML",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			verbose, _ := cmd.Flags().GetBool("verbose")
			debug, _ := cmd.Flags().GetBool("debug")
			if quiet {
				verbose = false
			}

			started := time.Now()
			doc, err := readDocument(args[0], verbose)
			if err != nil {
				return err
			}
			if debug {
				pp.Fprintln(os.Stderr, doc)
			}

			r, err := newRenderer(cmd)
			if err != nil {
				return err
			}
			html, err := r.RenderString(cmd.Context(), doc)
			if err != nil {
				return err
			}

			if outputFile == "" {
				fmt.Println(html)
			} else if err := os.WriteFile(outputFile, []byte(html+"\n"), 0o644); err != nil {
				return err
			} else if !quiet {
				log.Printf("%s: wrote %s\n", outputFile, humanize.Bytes(uint64(len(html)+1)))
			}
			if verbose {
				log.Printf("%s: rendered in %v\n", args[0], time.Since(started))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save html to file")
	addRenderFlags(cmd)
	return cmd
}

func cmdOutline() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "outline <document.json|page.html>",
		Short:        "print the element tree of a rendered document",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			var text string
			if ext := strings.ToLower(filepath.Ext(args[0])); ext == ".html" || ext == ".htm" {
				fd, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer fd.Close()
				if text, err = outline.FromHTML(fd); err != nil {
					return err
				}
			} else {
				doc, err := readDocument(args[0], verbose)
				if err != nil {
					return err
				}
				r, err := newRenderer(cmd)
				if err != nil {
					return err
				}
				if text, err = outline.Render(cmd.Context(), r.Render(doc)); err != nil {
					return err
				}
			}
			fmt.Print(text)
			return nil
		},
	}
	addRenderFlags(cmd)
	return cmd
}

func cmdDB() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "db",
		Short: "manage the rendering pipeline database",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DB, _ = cmd.Flags().GetString("db")
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
			}
			return nil
		},
	}
	cmd.PersistentFlags().String("db", "", "path to the database file (default from RICHTEXT_DB)")
	cmd.PersistentFlags().String("data-dir", "", "directory for documents and renderings (default from RICHTEXT_DATA_DIR)")
	cmd.AddCommand(cmdDBInit())
	cmd.AddCommand(cmdDBIngest())
	cmd.AddCommand(cmdDBWork())
	cmd.AddCommand(cmdDBResetFailed())
	cmd.AddCommand(cmdDBStats())
	cmd.AddCommand(cmdDBCompact())
	return cmd
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: cfg.DB})
}

func cmdDBInit() *cobra.Command {
	return &cobra.Command{
		Use:          "init",
		Short:        "create a new database file",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.InitDatabase(cfg.DB); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return err
			}
			log.Printf("%s: created database\n", cfg.DB)
			return nil
		},
	}
}

func cmdDBIngest() *cobra.Command {
	createdBy := os.Getenv("USER")
	var cmd = &cobra.Command{
		Use:          "ingest <document.json>...",
		Short:        "store documents and queue them for rendering",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")

			var files []stages.IngestRequest
			var total uint64
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				total += uint64(len(data))
				files = append(files, stages.IngestRequest{Filename: path, Data: data})
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			svc := stages.NewIngestService(s, cfg.DataDir)
			batchID, results, err := svc.IngestBatch(cmd.Context(), createdBy, files)
			if err != nil {
				return err
			}
			duplicates := 0
			for _, result := range results {
				if result.Duplicate {
					duplicates++
				}
			}
			if !quiet {
				log.Printf("batch %d: ingested %d files (%s), %d duplicates\n",
					batchID, len(results), humanize.Bytes(total), duplicates)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&createdBy, "created-by", createdBy, "name recorded on the batch")
	return cmd
}

func cmdDBWork() *cobra.Command {
	staleAfter := 10 * time.Minute
	var cmd = &cobra.Command{
		Use:          "work",
		Short:        "render queued documents until the queue is empty",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			if cmd.Flags().Changed("workers") {
				cfg.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if cmd.Flags().Changed("worker-id") {
				cfg.WorkerID, _ = cmd.Flags().GetString("worker-id")
			}
			if cmd.Flags().Changed("max-attempts") {
				cfg.MaxAttempts, _ = cmd.Flags().GetInt("max-attempts")
			}
			if cmd.Flags().Changed("retry-backoff") {
				cfg.RetryBackoff, _ = cmd.Flags().GetDuration("retry-backoff")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			r, err := newRenderer(cmd)
			if err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if staleAfter > 0 {
				n, err := s.RequeueStaleWork(ctx, model.WorkStageRender, time.Now().Add(-staleAfter))
				if err != nil {
					return err
				} else if n != 0 && !quiet {
					log.Printf("requeued %d stale jobs\n", n)
				}
			}

			svc, err := stages.NewWorkerService(s, cfg.DataDir, cfg.WorkerID, r)
			if err != nil {
				return err
			}
			svc.SetRetryPolicy(stages.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.RetryBackoff})
			started := time.Now()
			result, err := svc.Drain(ctx, model.WorkStageRender, cfg.Workers)
			if !quiet {
				log.Printf("%s: processed %d jobs, %d failed, in %v\n",
					svc.WorkerID(), result.Processed, result.Failed, time.Since(started))
			}
			if err != nil {
				return err
			}
			if result.Failed != 0 {
				failed, err := s.GetFailedWork(ctx, model.WorkStageRender)
				if err != nil {
					return err
				}
				for _, w := range failed {
					log.Printf("job %d: document %d: %s: %s\n", w.ID, w.DocumentFileID, deref(w.ErrorCode), deref(w.ErrorMessage))
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", 0, "number of concurrent workers (default from RICHTEXT_WORKERS)")
	cmd.Flags().String("worker-id", "", "identifier recorded on claimed jobs")
	cmd.Flags().Int("max-attempts", 0, "claims per job before a retryable failure is final (default from RICHTEXT_MAX_ATTEMPTS)")
	cmd.Flags().Duration("retry-backoff", 0, "delay per attempt before a failed job is retried (default from RICHTEXT_RETRY_BACKOFF)")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", staleAfter, "requeue running jobs locked longer than this (0 disables)")
	addRenderFlags(cmd)
	return cmd
}

func cmdDBResetFailed() *cobra.Command {
	return &cobra.Command{
		Use:          "reset-failed",
		Short:        "queue failed render jobs again",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			n, err := s.ResetFailedWork(cmd.Context(), model.WorkStageRender)
			if err != nil {
				return err
			}
			log.Printf("reset %d failed jobs\n", n)
			return nil
		},
	}
}

func cmdDBStats() *cobra.Command {
	return &cobra.Command{
		Use:          "stats",
		Short:        "show row counts",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("documents:  %s\n", humanize.Comma(int64(stats.Documents)))
			fmt.Printf("renderings: %s\n", humanize.Comma(int64(stats.Renderings)))
			fmt.Printf("queued:     %s\n", humanize.Comma(int64(stats.Queued)))
			fmt.Printf("failed:     %s\n", humanize.Comma(int64(stats.Failed)))
			return nil
		},
	}
}

func cmdDBCompact() *cobra.Command {
	return &cobra.Command{
		Use:          "compact",
		Short:        "checkpoint and vacuum the database file",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var before int64
			if fi, err := os.Stat(cfg.DB); err == nil {
				before = fi.Size()
			}
			if err := store.CompactDatabase(cfg.DB); err != nil {
				return err
			}
			if fi, err := os.Stat(cfg.DB); err == nil {
				log.Printf("%s: compacted %s to %s\n", cfg.DB, humanize.Bytes(uint64(before)), humanize.Bytes(uint64(fi.Size())))
			}
			return nil
		},
	}
}

func cmdServe() *cobra.Command {
	addr := ":8787"
	var timeout time.Duration
	var cmd = &cobra.Command{
		Use:          "serve",
		Short:        "serve a preview of ingested documents",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("db") {
				cfg.DB, _ = cmd.Flags().GetString("db")
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
			}
			r, err := newRenderer(cmd)
			if err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			log.Printf("store: using %s", cfg.DB)

			h := handlers.New(s, cfg.DataDir, r)
			server := &http.Server{
				Addr:         addr,
				Handler:      h.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			if timeout > 0 {
				go func() {
					log.Printf("server: will auto-shutdown in %v", timeout)
					time.Sleep(timeout)
					log.Printf("server: timeout reached, initiating shutdown")
					shutdown <- os.Interrupt
				}()
			}

			go func() {
				log.Printf("server: listening on %s", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("server: %v", err)
					shutdown <- os.Interrupt
				}
			}()

			<-shutdown
			log.Printf("server: shutting down gracefully")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server: shutdown error: %w", err)
			}
			log.Printf("server: stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "HTTP listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "auto-shutdown after duration (e.g., 5s, 1m)")
	cmd.Flags().String("db", "", "path to the database file (default from RICHTEXT_DB)")
	cmd.Flags().String("data-dir", "", "directory for documents and renderings (default from RICHTEXT_DATA_DIR)")
	addRenderFlags(cmd)
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(richtext.Version().String())
				return nil
			}
			fmt.Println(richtext.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
