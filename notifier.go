package auth

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// Sender delivers a rendered email. The default sender logs the message
// body, which is what local development wants.
type Sender func(ctx context.Context, to, subject, body string) error

// TemplateNotifier renders activation emails from django templates and
// hands them to a Sender.
type TemplateNotifier struct {
	engine  *django.Engine
	baseURL string
	sender  Sender
	logger  Logger
}

var _ Notifier = (*TemplateNotifier)(nil)

// NewTemplateNotifier loads templates from the given directory. baseURL is
// the public address activation links point at.
func NewTemplateNotifier(templatesDir, baseURL string) (*TemplateNotifier, error) {
	return newTemplateNotifier(django.New(templatesDir, ".html"), baseURL)
}

// NewEmbeddedTemplateNotifier uses the templates compiled into the binary.
func NewEmbeddedTemplateNotifier(baseURL string) (*TemplateNotifier, error) {
	sub, err := fs.Sub(templatesFS, "data/templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open embedded templates")
	}
	return newTemplateNotifier(django.NewFileSystem(http.FS(sub), ".html"), baseURL)
}

func newTemplateNotifier(engine *django.Engine, baseURL string) (*TemplateNotifier, error) {
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load email templates")
	}

	n := &TemplateNotifier{
		engine:  engine,
		baseURL: baseURL,
		logger:  defLogger{},
	}
	n.sender = n.logSender

	return n, nil
}

func (n *TemplateNotifier) WithLogger(logger Logger) *TemplateNotifier {
	n.logger = logger
	return n
}

// WithSender swaps in a real delivery backend.
func (n *TemplateNotifier) WithSender(sender Sender) *TemplateNotifier {
	n.sender = sender
	return n
}

// Send renders the email's template and delivers it.
func (n *TemplateNotifier) Send(ctx context.Context, email Email) error {
	var body bytes.Buffer
	err := n.engine.Render(&body, string(email.Template), map[string]any{
		"username":        email.DisplayName,
		"activation_code": email.Code,
		"confirmationUrl": fmt.Sprintf("%s/auth/activate-account?token=%s", n.baseURL, email.Code),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to render email template").
			WithMetadata(map[string]any{"template": email.Template})
	}

	return n.sender(ctx, email.To, email.Subject, body.String())
}

func (n *TemplateNotifier) logSender(_ context.Context, to, subject, body string) error {
	n.logger.Info("outbound email", "to", to, "subject", subject)
	n.logger.Debug("email body", "body", body)
	return nil
}
