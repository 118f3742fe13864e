package mailer

// Gateway abstracts the outbound email provider
type Gateway interface {
	Send(to, subject, body string) error
}
