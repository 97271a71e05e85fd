package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jswider/quizforge/internal/config"
	"github.com/jswider/quizforge/internal/httpapi"
	"github.com/jswider/quizforge/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := store.Open(resolveDBPath(cmd, cfg))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		orch, err := buildOrchestrator(cmd.Context(), cfg, st)
		if err != nil {
			return err
		}

		opts := httpapi.DefaultOptions()
		opts.ChunkSize = cfg.ChunkSize
		opts.ChunkCount = cfg.ChunkCount
		opts.DefaultQuestionCount = cfg.QuestionCount

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewServer(orch, opts).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Println("listening on", cfg.HTTPAddr)
			errCh <- srv.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCh:
			fmt.Println("shutting down")
			return srv.Close()
		}
	},
}
