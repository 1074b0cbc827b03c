// Command email-server runs the engine as a standing mail-in, mail-out
// server: every inbound email is routed to s-echo and replied to over
// SMTP. Mirrors the original email_server example.
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemunozm/service-io/connectors/imap"
	"github.com/lemunozm/service-io/connectors/smtp"
	"github.com/lemunozm/service-io/credential"
	"github.com/lemunozm/service-io/engine"
	"github.com/lemunozm/service-io/env"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/services/echo"
	"github.com/lemunozm/service-io/utils"
)

type flags struct {
	imapDomain  string
	smtpDomain  string
	email       string
	password    string
	pollingTime time.Duration
	senderName  string
	jsonLogs    bool
}

func main() {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "email-server",
		Short: "Run the engine as a standing IMAP-in, SMTP-out echo server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.imapDomain, "imap-domain", "", "IMAP server domain, e.g. imap.gmail.com")
	cmd.Flags().StringVar(&f.smtpDomain, "smtp-domain", "", "SMTP server domain, e.g. smtp.gmail.com")
	cmd.Flags().StringVar(&f.email, "email", "", "mailbox address")
	cmd.Flags().StringVar(&f.password, "password", "", "mailbox password")
	cmd.Flags().DurationVar(&f.pollingTime, "polling-time", imap.DefaultPollingInterval, "interval between inbox polls")
	cmd.Flags().StringVar(&f.senderName, "sender-name", "", "display name for the From header")
	cmd.Flags().BoolVar(&f.jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	cmd.MarkFlagRequired("imap-domain")
	cmd.MarkFlagRequired("smtp-domain")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	if err := cmd.Execute(); err != nil {
		logger.Fatal("command failed", "error", err)
	}
}

func run(cmd *cobra.Command, f *flags) error {
	_ = env.LoadEnvsFromFile(".env")
	initLogger(f.jsonLogs)

	ctx, cancel := context.WithCancel(cmd.Context())
	utils.TrapSignal(cancel)

	store := credential.NewPasswordStore(f.password)
	shared := credential.NewShared(store)

	e := engine.New().
		Input(imap.New(f.imapDomain, shared, imap.WithPollingInterval(f.pollingTime))).
		Output(smtp.New(f.smtpDomain, f.email, shared.Clone(), smtp.WithSenderName(f.senderName))).
		AddService("s-echo", echo.New())

	return e.Run(ctx)
}

func initLogger(jsonLogs bool) {
	if jsonLogs {
		logger.InitGlobalLoggerWithHandler(logger.WithJSONHandler(os.Stdout, 0))

		return
	}

	logger.InitGlobalLogger()
}
