package errors

import "github.com/lemunozm/service-io/message"

// FormatError builds the response a service sends when it receives
// ill-formed args: Args leads with "format error" and Body explains the
// shape the service expected. This is never an engine concern (spec
// §7) — the engine routes the response like any other message.
func FormatError(req message.Message, expected string) message.Message {
	resp := message.Response(req)
	resp.Args = []string{"format error"}
	resp.Body = expected

	return resp
}
