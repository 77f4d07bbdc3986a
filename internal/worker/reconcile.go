package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/application"
)

// Reconciler converges a user profile to its role claim. *application.RoleService satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, job application.ReconcileJob) error
}

// ReconcileHandler retries role reconciliation with linear backoff. A failed
// attempt is republished with Attempt+1; after MaxAttempts the job is dropped
// with an error log naming the uid that stays inconsistent.
type ReconcileHandler struct {
	Roles       Reconciler
	Requeue     application.JobPublisher
	MaxAttempts int
	Backoff     time.Duration
	Logger      *logrus.Logger
}

func (h *ReconcileHandler) Handle(ctx context.Context, body []byte) Outcome {
	var job application.ReconcileJob
	if err := json.Unmarshal(body, &job); err != nil {
		h.Logger.WithError(err).Warn("bad reconcile job")
		return Drop
	}
	fields := logrus.Fields{"target_uid": job.UID, "role": job.Role, "attempt": job.Attempt}

	err := h.Roles.Reconcile(ctx, job)
	if err == nil {
		h.Logger.WithFields(fields).Info("role reconciled")
		return Ack
	}
	if k := application.KindOf(err); k == application.KindValidation || k == application.KindNotFound {
		h.Logger.WithError(err).WithFields(fields).Error("unreconcilable job dropped")
		return Drop
	}

	next := job.Attempt + 1
	if next >= h.MaxAttempts {
		h.Logger.WithError(err).WithFields(fields).Error("reconcile gave up; claim and profile still disagree")
		return Ack
	}

	h.Logger.WithError(err).WithFields(fields).Warn("reconcile failed; retrying")
	select {
	case <-ctx.Done():
		return Requeue
	case <-time.After(h.Backoff * time.Duration(next)):
	}
	job.Attempt = next
	if err := h.Requeue.PublishJSON(ctx, job); err != nil {
		h.Logger.WithError(err).WithFields(fields).Warn("republish failed")
		return Requeue
	}
	return Ack
}
