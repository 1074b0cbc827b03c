// Command use-case is the minimal wiring: one line from stdin in, one
// line dumped to stdout, a single echo service in between. The smallest
// possible demonstration of the engine.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemunozm/service-io/connectors/stdin"
	"github.com/lemunozm/service-io/connectors/stdout"
	"github.com/lemunozm/service-io/engine"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/services/echo"
	"github.com/lemunozm/service-io/utils"
)

func main() {
	cmd := &cobra.Command{
		Use:   "use-case",
		Short: "Echo one stdin line to stdout through the engine",
		RunE:  run,
	}

	if err := cmd.Execute(); err != nil {
		logger.Fatal("command failed", "error", err)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logger.InitGlobalLogger()

	ctx, cancel := context.WithCancel(cmd.Context())
	utils.TrapSignal(cancel)

	e := engine.New().
		Input(stdin.New("stdin-user", os.Stdin)).
		Output(stdout.New(os.Stdout)).
		AddService("s-echo", echo.New())

	return e.Run(ctx)
}
