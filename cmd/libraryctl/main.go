// Command libraryctl runs maintenance tasks against the library database:
// migrations, demo data, account bootstrap and report exports.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-library-management/config"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

type app struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Library management maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			a.cfg = config.Load()
			a.logger = helpers.NewLogger(a.cfg.AppName+"-ctl", a.cfg.Env)
		},
	}
	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.userCmd(),
		a.reportCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if a.logger != nil {
			a.logger.WithError(err).Error("command failed")
		} else {
			root.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}
