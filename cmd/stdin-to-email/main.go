// Command stdin-to-email reads whitespace-tokenized lines from stdin and
// submits each resulting message as an email to the same mailbox — the
// "talk to your own inbox" demo, mirrors the original stdin_to_email
// example.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemunozm/service-io/connectors/smtp"
	"github.com/lemunozm/service-io/connectors/stdin"
	"github.com/lemunozm/service-io/credential"
	"github.com/lemunozm/service-io/engine"
	"github.com/lemunozm/service-io/env"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/services/alarm"
	"github.com/lemunozm/service-io/services/echo"
	"github.com/lemunozm/service-io/services/process"
	"github.com/lemunozm/service-io/services/publicip"
	"github.com/lemunozm/service-io/utils"
)

type flags struct {
	smtpDomain   string
	email        string
	secret       string
	oauth2       bool
	senderName   string
	jsonLogs     bool
	processUsers []string
}

func main() {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "stdin-to-email",
		Short: "Submit each stdin line as an email sent to the same mailbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.smtpDomain, "smtp-domain", "", "SMTP server domain, e.g. smtp.gmail.com")
	cmd.Flags().StringVar(&f.email, "email", "", "mailbox address, used as both sender and recipient")
	cmd.Flags().StringVar(&f.secret, "secret", "", "password or OAuth2 access token, per --oauth2")
	cmd.Flags().BoolVar(&f.oauth2, "oauth2", false, "treat --secret as an OAuth2 access token instead of a password")
	cmd.Flags().StringVar(&f.senderName, "sender-name", "", "display name for the From header")
	cmd.Flags().BoolVar(&f.jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	cmd.Flags().StringSliceVar(&f.processUsers, "process-users", nil, "users allowed to invoke s-process; unset disables the service")
	cmd.MarkFlagRequired("smtp-domain")
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

	var store credential.Store
	if f.oauth2 {
		store = credential.NewStaticBearerStore(f.secret)
	} else {
		store = credential.NewPasswordStore(f.secret)
	}

	e := engine.New().
		Input(stdin.New(f.email, os.Stdin)).
		Output(smtp.New(f.smtpDomain, f.email, store, smtp.WithSenderName(f.senderName))).
		AddService("s-echo", echo.New()).
		AddService("s-alarm", alarm.New()).
		AddService("s-public-ip", publicip.New())

	if len(f.processUsers) > 0 {
		e.AddServiceFor("s-process", process.New(), f.processUsers)
	} else {
		logger.Warn("s-process not registered: no --process-users allow-list given")
	}

	return e.Run(ctx)
}

func initLogger(jsonLogs bool) {
	if jsonLogs {
		logger.InitGlobalLoggerWithHandler(logger.WithJSONHandler(os.Stdout, 0))

		return
	}

	logger.InitGlobalLogger()
}
