package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
	"github.com/oksasatya/go-task-rbac/pkg/mailer"
	mailtpl "github.com/oksasatya/go-task-rbac/pkg/mailer/templates"
)

// JobPublisher enqueues a JSON job. *helpers.RabbitPublisher satisfies it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ReconcileJob asks the worker to bring claim and profile back in line.
type ReconcileJob struct {
	UID         string      `json:"uid"`
	Role        entity.Role `json:"role"`
	RequestedBy string      `json:"requested_by"`
	Attempt     int         `json:"attempt"`
	EnqueuedAt  time.Time   `json:"enqueued_at"`
}

const (
	auditActionAssign    = "assign_role"
	auditActionReconcile = "reconcile_role"

	outcomeOK              = "ok"
	outcomeClaimFailed     = "claim_failed"
	outcomeProfileFailed   = "profile_failed"
	outcomeReconcileQueued = "reconcile_queued"
	outcomeSuperseded      = "superseded"
)

// RoleService assigns roles. The identity provider claim and the local
// profile live in different stores; there is no transaction spanning both.
// The claim is written first. When the profile write then fails, a reconcile
// job is queued and the worker re-applies both writes until they agree.
type RoleService struct {
	Claims     repo.ClaimStore
	Profiles   repo.UserProfileRepository
	Audit      repo.AuditRepository
	Reconciler JobPublisher
	Notifier   JobPublisher
	Mail       mailtpl.Settings
	Logger     *logrus.Logger
}

func NewRoleService(claims repo.ClaimStore, profiles repo.UserProfileRepository, audit repo.AuditRepository, logger *logrus.Logger) *RoleService {
	return &RoleService{Claims: claims, Profiles: profiles, Audit: audit, Logger: logger}
}

// AssignRole sets role on targetUID in both stores and returns the updated profile.
func (s *RoleService) AssignRole(ctx context.Context, caller entity.Identity, targetUID, role string) (*entity.UserProfile, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	targetUID = strings.TrimSpace(targetUID)
	if targetUID == "" {
		return nil, ErrUIDRequired
	}
	r, ok := entity.ParseRole(role)
	if !ok {
		return nil, ErrInvalidRole
	}
	if s.Claims == nil {
		return nil, ErrClaimsNotReady
	}

	fields := logrus.Fields{"actor_uid": caller.UID, "target_uid": targetUID, "role": r}

	if err := s.Claims.SetRoleClaim(ctx, targetUID, r); err != nil {
		s.audit(ctx, caller.UID, targetUID, auditActionAssign, r, outcomeClaimFailed, err)
		s.logError("set role claim failed", err, fields)
		return nil, Dependency("Failed to assign role", err)
	}

	profile, err := s.Profiles.Upsert(ctx, targetUID, r)
	if err != nil {
		s.logError("upsert profile failed; claim and profile now disagree", err, fields)
		outcome := outcomeProfileFailed
		if s.enqueueReconcile(ctx, ReconcileJob{UID: targetUID, Role: r, RequestedBy: caller.UID}) {
			outcome = outcomeReconcileQueued
		}
		s.audit(ctx, caller.UID, targetUID, auditActionAssign, r, outcome, err)
		return nil, Dependency("Failed to assign role", err)
	}

	s.audit(ctx, caller.UID, targetUID, auditActionAssign, r, outcomeOK, nil)
	if s.Logger != nil {
		s.Logger.WithFields(fields).Info("role assigned")
	}
	s.notify(ctx, targetUID, r, caller)
	return profile, nil
}

// Reconcile converges the profile to the account's current role claim. The
// claim is authoritative: when a later assignment has already replaced the
// job's role, the profile follows that later role and the claim is left alone.
// The job's role is written to the claim only when the account carries none.
func (s *RoleService) Reconcile(ctx context.Context, job ReconcileJob) error {
	if !job.Role.Valid() || strings.TrimSpace(job.UID) == "" {
		return ErrInvalidRole
	}
	if s.Claims == nil {
		return ErrClaimsNotReady
	}

	current, err := s.claimedRole(ctx, job.UID)
	if err != nil {
		return err
	}
	target, outcome := job.Role, outcomeOK
	switch {
	case current == "":
		if err := s.Claims.SetRoleClaim(ctx, job.UID, job.Role); err != nil {
			s.audit(ctx, job.RequestedBy, job.UID, auditActionReconcile, job.Role, outcomeClaimFailed, err)
			return Dependency("reconcile claim", err)
		}
	case current != job.Role:
		target, outcome = current, outcomeSuperseded
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"target_uid": job.UID, "job_role": job.Role, "claim_role": current}).
				Info("reconcile job superseded by a later assignment")
		}
	}

	if _, err := s.Profiles.Upsert(ctx, job.UID, target); err != nil {
		s.audit(ctx, job.RequestedBy, job.UID, auditActionReconcile, target, outcomeProfileFailed, err)
		return Dependency("reconcile profile", err)
	}

	// An assignment may have landed between the read and the upsert.
	after, err := s.claimedRole(ctx, job.UID)
	if err != nil {
		return err
	}
	if after != target {
		return Dependency("role claim changed during reconcile", nil)
	}
	s.audit(ctx, job.RequestedBy, job.UID, auditActionReconcile, target, outcome, nil)
	return nil
}

// claimedRole reads the role currently held in the account's custom claims,
// or "" when the account has no valid role claim.
func (s *RoleService) claimedRole(ctx context.Context, uid string) (entity.Role, error) {
	acct, err := s.Claims.GetAccount(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", Dependency("reconcile read claim", err)
	}
	if r := entity.Role(acct.CustomClaims.String("role")); r.Valid() {
		return r, nil
	}
	return "", nil
}

// Profile returns the local profile, or nil when none has been written yet.
func (s *RoleService) Profile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	p, err := s.Profiles.GetByUID(ctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError("get profile failed", err, logrus.Fields{"uid": uid})
		return nil, Dependency("Failed to get profile", err)
	}
	return p, nil
}

func (s *RoleService) enqueueReconcile(ctx context.Context, job ReconcileJob) bool {
	if s.Reconciler == nil {
		return false
	}
	job.EnqueuedAt = time.Now().UTC()
	if err := s.Reconciler.PublishJSON(ctx, job); err != nil {
		s.logError("enqueue reconcile job failed", err, logrus.Fields{"target_uid": job.UID})
		return false
	}
	return true
}

func (s *RoleService) notify(ctx context.Context, uid string, r entity.Role, caller entity.Identity) {
	if s.Notifier == nil || s.Claims == nil {
		return
	}
	acct, err := s.Claims.GetAccount(ctx, uid)
	if err != nil || acct == nil || acct.Email == "" {
		return
	}
	data := mailtpl.NewRoleAssignedData(s.Mail, acct.Email, r.String(), caller.Email, mailtpl.WithTime(time.Now()))
	job := mailer.EmailJob{To: acct.Email, Template: mailtpl.RoleAssigned, Data: data}
	if err := s.Notifier.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("target_uid", uid).Warn("failed to publish email job")
	}
}

func (s *RoleService) audit(ctx context.Context, actor, target, action string, r entity.Role, outcome string, cause error) {
	if s.Audit == nil {
		return
	}
	e := entity.AuditEntry{ActorUID: actor, TargetUID: target, Action: action, Role: r, Outcome: outcome}
	if cause != nil {
		e.Error = cause.Error()
	}
	if err := s.Audit.Insert(ctx, e); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("target_uid", target).Warn("audit insert failed")
	}
}

func (s *RoleService) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Error(msg)
	}
}
