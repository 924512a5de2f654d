package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/email"
)

const (
	defaultMailTimeout  = 10 * time.Second
	defaultStoreTimeout = 5 * time.Second
)

// Notification is the outcome mailed to an applicant. Credential is set only
// for approvals.
type Notification struct {
	Request    *models.SignupRequest
	Credential *models.Credential
}

// OutcomeNotifier tells applicants how their request was resolved
type OutcomeNotifier interface {
	// Dispatch delivers in the background and records notified_at on success
	Dispatch(n Notification)
	// Deliver renders and sends synchronously without touching the store
	Deliver(ctx context.Context, n Notification) error
}

// NotifierConfig configures outcome mails
type NotifierConfig struct {
	Timeout      time.Duration
	StoreTimeout time.Duration
	PortalURL    string
}

var (
	approvedTemplate = template.Must(template.New("approved").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Your signup request was approved</h2>
		<p>Hello {{.Name}},</p>
		<p>Your account on the university portal is ready. Use the credentials below to sign in and change your password right away.</p>
		<table style="margin: 20px 0;">
			<tr><td><strong>Roll number</strong></td><td>{{.RollNumber}}</td></tr>
			<tr><td><strong>Temporary password</strong></td><td><code>{{.Password}}</code></td></tr>
		</table>
		{{if .Note}}<p>Note from the reviewer: {{.Note}}</p>{{end}}
		<p><a href="{{.PortalURL}}">Open the portal</a></p>
		<p>This password is sent only once and is not stored in readable form.</p>
	</div>
</body>
</html>`))

	declinedTemplate = template.Must(template.New("declined").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Your signup request was declined</h2>
		<p>Hello {{.Name}},</p>
		<p>Your request to join the portal was reviewed and could not be approved.</p>
		{{if .Note}}<p>Reason: {{.Note}}</p>{{end}}
		<p>You may submit a new request from <a href="{{.PortalURL}}">the portal</a>.</p>
	</div>
</body>
</html>`))
)

type mailView struct {
	Name       string
	RollNumber string
	Password   string
	Note       string
	PortalURL  string
}

// Notifier mails approval and decline outcomes through an email.Sender
type Notifier struct {
	sender   email.Sender
	requests repositories.SignupRequestRepository
	config   NotifierConfig
	logger   zerolog.Logger
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewNotifier creates a new Notifier. requests must not be bound to a transaction.
func NewNotifier(sender email.Sender, requests repositories.SignupRequestRepository, config NotifierConfig, logger zerolog.Logger) *Notifier {
	if config.Timeout <= 0 {
		config.Timeout = defaultMailTimeout
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = defaultStoreTimeout
	}
	return &Notifier{
		sender:   sender,
		requests: requests,
		config:   config,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch sends n in a new goroutine. Failures are logged; the committed
// resolution is never changed by them.
func (n *Notifier) Dispatch(note Notification) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		requestID := note.Request.ID.String()
		if err := n.Deliver(context.Background(), note); err != nil {
			n.logger.Error().Err(err).
				Str("requestId", requestID).
				Str("status", string(note.Request.Status)).
				Msg("Failed to deliver signup outcome, resend required")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), n.config.StoreTimeout)
		defer cancel()
		if err := n.requests.MarkNotified(ctx, note.Request.ID, n.now()); err != nil {
			n.logger.Warn().Err(err).Str("requestId", requestID).Msg("Delivered signup outcome but could not record it")
			return
		}
		n.logger.Info().Str("requestId", requestID).Str("status", string(note.Request.Status)).Msg("Signup outcome delivered")
	}()
}

// Deliver renders and sends the outcome mail within the configured timeout
func (n *Notifier) Deliver(ctx context.Context, note Notification) error {
	msg, err := n.render(note)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()
	return n.sender.Send(ctx, msg)
}

// Wait blocks until in-flight dispatches finish or ctx is done
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) render(note Notification) (email.Message, error) {
	req := note.Request
	view := mailView{Name: req.StudentName, PortalURL: n.config.PortalURL}
	if req.ResolutionNote != nil {
		view.Note = *req.ResolutionNote
	}

	var (
		tmpl    *template.Template
		subject string
	)
	switch req.Status {
	case models.StatusApproved:
		if note.Credential == nil {
			return email.Message{}, fmt.Errorf("approved request %s has no credential to send", req.ID)
		}
		tmpl = approvedTemplate
		subject = "Your university portal account is ready"
		view.RollNumber = note.Credential.RollNumber
		view.Password = note.Credential.TemporaryPassword
	case models.StatusDeclined:
		tmpl = declinedTemplate
		subject = "Your university portal signup request"
	default:
		return email.Message{}, fmt.Errorf("request %s is %s, nothing to notify", req.ID, req.Status)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, view); err != nil {
		return email.Message{}, fmt.Errorf("render %s mail: %w", tmpl.Name(), err)
	}

	return email.Message{
		To:       req.Email,
		ToName:   req.StudentName,
		Subject:  subject,
		HTMLBody: body.String(),
	}, nil
}

var _ OutcomeNotifier = (*Notifier)(nil)
