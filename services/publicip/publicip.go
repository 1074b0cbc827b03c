// Package publicip implements a service that reports the caller's public
// IP address, looked up over HTTPS against api.ipify.org.
package publicip

import (
	"context"
	"io"
	"net/http"

	svcioerr "github.com/lemunozm/service-io/errors"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/message"
)

const defaultLookupURL = "https://api.ipify.org"

// Service answers every request with the process's public IP address.
type Service struct {
	client    *http.Client
	lookupURL string
}

// Option configures a Service.
type Option func(*Service)

// WithLookupURL overrides the address-lookup endpoint, for tests.
func WithLookupURL(url string) Option {
	return func(s *Service) { s.lookupURL = url }
}

// WithHTTPClient overrides the HTTP client, for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// New returns a PublicIp service using http.DefaultClient against
// api.ipify.org.
func New(opts ...Option) Service {
	s := Service{client: http.DefaultClient, lookupURL: defaultLookupURL}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

func (s Service) Run(
	ctx context.Context,
	receiver *channel.Receiver[message.Message],
	sender *channel.Sender[message.Message],
) error {
	for {
		req, err := receiver.Recv(ctx)
		if err != nil {
			return err
		}

		resp := message.Response(req)

		addr, lookupErr := s.lookup(ctx)
		if lookupErr != nil {
			logger.Error("failed to get public IP address", "error", lookupErr)
			resp.Args = []string{"error"}
			resp.Body = "Failed to get IP address"
		} else {
			resp.Body = addr
		}

		if err := sender.Send(ctx, resp); err != nil {
			return err
		}
	}
}

func (s Service) lookup(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.lookupURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", svcioerr.New(svcioerr.CodeTransient, "ipify responded with "+resp.Status)
	}

	return string(body), nil
}
