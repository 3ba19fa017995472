package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/infrastructure/postgres"
)

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export reports",
	}

	var (
		threshold int
		out       string
	)
	lowStock := &cobra.Command{
		Use:   "low-stock",
		Short: "Write the low-stock CSV to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, a.cfg.PostgresDSN(), postgres.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := application.NewReportService(postgres.NewBookRepository(postgres.NewGateway(pool, a.logger)), nil, a.logger)
			name, data, err := svc.LowStockExport(ctx, threshold)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if out == "." {
				out = name
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.logger.WithField("file", out).Info("low-stock report written")
			return nil
		},
	}
	lowStock.Flags().IntVar(&threshold, "threshold", application.DefaultLowStockThreshold, "maximum available copies to include")
	lowStock.Flags().StringVarP(&out, "out", "o", "", `output file; "." uses the default report name`)

	cmd.AddCommand(lowStock)
	return cmd
}
