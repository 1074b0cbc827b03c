// Command email-to-stdout polls an IMAP inbox and dumps every resulting
// message to stdout — the debugging rig for the mailbox source, mirrors
// the original email_to_stdout example one-for-one.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemunozm/service-io/connectors/imap"
	"github.com/lemunozm/service-io/connectors/stdout"
	"github.com/lemunozm/service-io/credential"
	"github.com/lemunozm/service-io/engine"
	"github.com/lemunozm/service-io/env"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/message"
	"github.com/lemunozm/service-io/services/alarm"
	"github.com/lemunozm/service-io/services/echo"
	"github.com/lemunozm/service-io/services/process"
	"github.com/lemunozm/service-io/services/publicip"
	"github.com/lemunozm/service-io/utils"
)

type flags struct {
	imapDomain   string
	email        string
	password     string
	accessToken  string
	pollingTime  time.Duration
	jsonLogs     bool
	processUsers []string
}

func main() {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "email-to-stdout",
		Short: "Read emails over IMAP and dump each as a message to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.imapDomain, "imap-domain", "", "IMAP server domain, e.g. imap.gmail.com")
	cmd.Flags().StringVar(&f.email, "email", "", "mailbox address")
	cmd.Flags().StringVar(&f.password, "password", "", "mailbox password (conflicts with --access-token)")
	cmd.Flags().StringVar(&f.accessToken, "access-token", "", "OAuth2 access token (conflicts with --password)")
	cmd.Flags().DurationVar(&f.pollingTime, "polling-time", imap.DefaultPollingInterval, "interval between inbox polls")
	cmd.Flags().BoolVar(&f.jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	cmd.Flags().StringSliceVar(&f.processUsers, "process-users", nil, "users allowed to invoke s-process; unset disables the service")
	cmd.MarkFlagsMutuallyExclusive("password", "access-token")
	cmd.MarkFlagRequired("imap-domain")
	cmd.MarkFlagRequired("email")

	if err := cmd.Execute(); err != nil {
		logger.Fatal("command failed", "error", err)
	}
}

func run(cmd *cobra.Command, f *flags) error {
	_ = env.LoadEnvsFromFile(".env")
	initLogger(f.jsonLogs)

	ctx, cancel := context.WithCancel(cmd.Context())
	utils.TrapSignal(cancel)

	store, err := credentialFor(f.password, f.accessToken)
	if err != nil {
		return err
	}

	e := engine.New().
		Input(imap.New(f.imapDomain, store, imap.WithPollingInterval(f.pollingTime))).
		Output(stdout.New(os.Stdout)).
		MapInput(message.FirstCharLowercase).
		AddService("s-echo", echo.New()).
		AddService("s-public-ip", publicip.New()).
		AddService("s-alarm", alarm.New())

	if len(f.processUsers) > 0 {
		e.AddServiceFor("s-process", process.New(), f.processUsers)
	} else {
		logger.Warn("s-process not registered: no --process-users allow-list given")
	}

	return e.Run(ctx)
}

func credentialFor(password, accessToken string) (credential.Store, error) {
	switch {
	case accessToken != "":
		return credential.NewStaticBearerStore(accessToken), nil
	case password != "":
		return credential.NewPasswordStore(password), nil
	default:
		return nil, fmt.Errorf("one of --password or --access-token is required")
	}
}

func initLogger(jsonLogs bool) {
	if jsonLogs {
		logger.InitGlobalLoggerWithHandler(logger.WithJSONHandler(os.Stdout, 0))

		return
	}

	logger.InitGlobalLogger()
}
