package main

import (
	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/web"
)

func newWebCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the conversation practice UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			cfg := web.Config{Addr: e.cfg.Web.Addr, AllowedOrigins: e.cfg.Web.AllowedOrigins}
			if addr != "" {
				cfg.Addr = addr
			}
			srv := web.NewServer(cfg, e.generator(), e.logger)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: web.addr)")
	return cmd
}
