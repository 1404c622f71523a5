package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cgi"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"awsview/configuration"
	"awsview/errors"
	"awsview/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func bindFlag(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.handler()
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", a.cfg.ListenAddr)
			if err != nil {
				return errors.New(errors.ErrServe, "unable to listen",
					map[string]interface{}{
						"listen_addr": a.cfg.ListenAddr,
					}, err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Handle OS signals
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case sig := <-sigChan:
					a.logger.Info("Received signal, initiating shutdown",
						zap.String("operation", "shutdown"),
						zap.String("signal", sig.String()),
					)
					cancel()
				case <-ctx.Done():
				}
			}()

			return a.serve(ctx, ln, h)
		},
	}
	cmd.Flags().String("listen", "", "address to listen on (default :8080)")
	bindFlag(cmd.Flags().Lookup("listen"), "LISTEN_ADDR")
	return cmd
}

// serve runs an HTTP server on ln until ctx is cancelled, then shuts it down
// gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()
	a.logger.Info("Server listening",
		zap.String("operation", "serve"),
		zap.String("listen_addr", ln.Addr().String()),
	)

	select {
	case err := <-errChan:
		return errors.New(errors.ErrServe, "server stopped unexpectedly", nil, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New(errors.ErrServe, "graceful shutdown failed", nil, err)
	}
	if err := <-errChan; err != nil && err != http.ErrServerClosed {
		return errors.New(errors.ErrServe, "server stopped unexpectedly", nil, err)
	}

	a.logger.Info("Shutdown complete",
		zap.String("operation", "shutdown_complete"),
	)
	return nil
}

func newCGICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cgi",
		Short: "Answer a single request as a CGI program",
		Long: `Answer the request described by the CGI environment. The page is
served at the script URL itself; assets live below it, so set STATIC_URL to
the script name followed by /static/.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			h, err := a.handler()
			if err != nil {
				return err
			}
			if err := cgi.Serve(server.CGIHandler(h, os.Getenv)); err != nil {
				return errors.New(errors.ErrServe, "unable to answer CGI request", nil, err)
			}
			return nil
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	var key, output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dashboard page once",
		Long: `Render the page a browser would get for ?key=NAME and write it to
stdout or to --output. Without --key only the menu is rendered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.handler()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.New(errors.ErrServe, "unable to create output file",
						map[string]interface{}{
							"output": output,
						}, err)
				}
				defer f.Close()
				w = f
			}

			s := startFetchSpinner(key)
			status, err := h.Render(cmd.Context(), w, key)
			s.Stop()

			a.logger.Debug("Page rendered",
				zap.String("operation", "render"),
				zap.String("section", key),
				zap.Int("status", status),
			)
			return err
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "keys file section to list instances for")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to this file instead of stdout")
	return cmd
}

// startFetchSpinner shows progress on stderr while instances are fetched. It
// stays silent when stderr is not a terminal.
func startFetchSpinner(key string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	if key != "" {
		s.Suffix = fmt.Sprintf(" Fetching %s instances ...", key)
		s.Start()
	}
	return s
}

func newSectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the sections of the keys file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := configuration.LoadKeyStore(a.cfg.KeysFile)
			if err != nil {
				return err
			}
			for _, name := range store.Sections() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
