package main

import (
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"actionkit/internal/logging"
	"actionkit/internal/transport"
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Remote rewrite engine",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rewrite engine over gRPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("listen")
		srv, err := transport.Listen(addr)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			srv.Stop()
		}()
		color.New(color.FgCyan).Fprintf(cmd.ErrOrStderr(), "engine listening on %s\n", srv.Addr())
		logging.L().Info("engine serving", "addr", srv.Addr().String())
		return srv.Serve()
	},
}

func init() {
	serveCmd.Flags().String("listen", ":7071", "listen address")
	engineCmd.AddCommand(serveCmd)
}
