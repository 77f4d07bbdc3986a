package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/pkg/helpers"
	"github.com/oksasatya/go-task-rbac/pkg/mailer"
	mailtpl "github.com/oksasatya/go-task-rbac/pkg/mailer/templates"
)

// EmailHandler renders and sends EmailJob messages.
type EmailHandler struct {
	Sender mailer.Sender
	Logger *logrus.Logger
}

func (h *EmailHandler) Handle(ctx context.Context, body []byte) Outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		h.Logger.WithError(err).Warn("bad email job")
		return Drop
	}
	job.To = strings.TrimSpace(job.To)
	if job.To == "" {
		h.Logger.Warn("email job without recipient")
		return Drop
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, hb, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			helpers.LogError(h.Logger, "render failed", err, logrus.Fields{"template": job.Template})
			return Drop
		}
		subject, text, html = s, t, hb
	}

	if err := h.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		h.Logger.WithError(err).WithField("to", job.To).Warn("send failed")
		return Requeue
	}
	helpers.LogInfo(h.Logger, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
	return Ack
}
