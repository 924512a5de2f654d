package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/helpers"
)

// MaxResolutionNoteLength bounds the reviewer note in characters
const MaxResolutionNoteLength = 1000

// SignupRequestServiceConfig holds the workflow timeouts
type SignupRequestServiceConfig struct {
	StoreTimeout time.Duration
	// MailTimeout bounds the synchronous send of a manual resend
	MailTimeout time.Duration
}

// TransitionResult is the committed request plus, on approval, the one-time credential
type TransitionResult struct {
	Request    *models.SignupRequest
	Credential *models.Credential
}

// SignupRequestService runs the signup approval workflow
type SignupRequestService struct {
	repos    *repositories.Repositories
	tx       repositories.TxManager
	issuer   *CredentialIssuer
	notifier OutcomeNotifier
	config   SignupRequestServiceConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSignupRequestService creates a new SignupRequestService
func NewSignupRequestService(
	repos *repositories.Repositories,
	tx repositories.TxManager,
	issuer *CredentialIssuer,
	notifier OutcomeNotifier,
	config SignupRequestServiceConfig,
	logger zerolog.Logger,
) *SignupRequestService {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = defaultStoreTimeout
	}
	if config.MailTimeout <= 0 {
		config.MailTimeout = defaultMailTimeout
	}
	return &SignupRequestService{
		repos:    repos,
		tx:       tx,
		issuer:   issuer,
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a new pending request from the public signup form
func (s *SignupRequestService) Submit(ctx context.Context, req *models.SignupRequest) (*models.SignupRequest, error) {
	if req.TotalMarks <= 0 || req.ObtainedMarks < 0 || req.ObtainedMarks > req.TotalMarks {
		return nil, apperrors.NewBadRequestError("obtained marks must be between 0 and total marks")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if _, err := s.repos.Departments.GetByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, apperrors.ErrDepartmentNotFound) {
			return nil, apperrors.NewBadRequestError("unknown department")
		}
		return nil, err
	}

	req.ID = uuid.New()
	req.Status = models.StatusPending
	req.CreatedAt = s.now()
	req.ResolutionNote, req.ResolvedBy, req.ResolvedAt, req.NotifiedAt = nil, nil, nil, nil

	if err := s.repos.SignupRequests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("requestId", req.ID.String()).
		Int64("departmentId", req.DepartmentID).
		Msg("Signup request submitted")
	return req, nil
}

// List returns requests visible to role. A coordinator is pinned to its own
// department; asking for another one is Forbidden.
func (s *SignupRequestService) List(ctx context.Context, role models.Role, filter models.SignupRequestFilter) ([]*models.SignupRequest, int64, error) {
	if !role.IsAuthorized() {
		return nil, 0, apperrors.NewForbiddenError("caller may not review signup requests")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, apperrors.NewBadRequestError("unknown status filter")
	}

	if role.Kind == models.RoleCoordinator {
		if filter.DepartmentID != nil && *filter.DepartmentID != role.DepartmentID {
			return nil, 0, apperrors.NewForbiddenError("coordinators may only list their own department")
		}
		dept := role.DepartmentID
		filter.DepartmentID = &dept
	}
	filter.Page, filter.Size = helpers.NormalizePage(filter.Page, filter.Size)

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	return s.repos.SignupRequests.List(ctx, filter)
}

// Get returns one request subject to the same scope check as Transition
func (s *SignupRequestService) Get(ctx context.Context, role models.Role, id uuid.UUID) (*models.SignupRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()
	return s.load(ctx, role, id)
}

// Transition resolves a pending request. Approval provisions the account in
// the same transaction as the status write, so a failed issuance leaves the
// request pending with no account. The applicant is notified after commit.
func (s *SignupRequestService) Transition(ctx context.Context, role models.Role, actor string, id uuid.UUID, target models.RequestStatus, note *string) (*TransitionResult, error) {
	if !target.IsTerminal() {
		return nil, apperrors.NewBadRequestError("status must be approved or declined")
	}
	note, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	req, err := s.load(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(target) {
		return nil, apperrors.ErrAlreadyResolved
	}

	var secret Secret
	if target == models.StatusApproved {
		if secret, err = s.issuer.NewSecret(); err != nil {
			return nil, err
		}
	}

	resolution := models.Resolution{
		Status:     target,
		Note:       note,
		ResolvedBy: actor,
		ResolvedAt: s.now(),
	}

	result := &TransitionResult{}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		if err := repos.SignupRequests.Resolve(ctx, id, resolution); err != nil {
			return err
		}

		if target == models.StatusApproved {
			cred, err := s.issuer.Issue(ctx, repos, req, secret)
			if err != nil {
				return err
			}
			result.Credential = cred
		}

		updated, err := repos.SignupRequests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		result.Request = updated
		return nil
	})
	if err != nil {
		event := s.logger.Warn()
		if !apperrors.Is(err, apperrors.ErrAlreadyResolved, apperrors.ErrConflict) {
			event = s.logger.Error()
		}
		event.Err(err).
			Str("requestId", id.String()).
			Int64("departmentId", req.DepartmentID).
			Str("status", string(target)).
			Str("actor", actor).
			Msg("Signup request transition failed")
		return nil, err
	}

	s.logger.Info().
		Str("requestId", id.String()).
		Int64("departmentId", req.DepartmentID).
		Str("status", string(target)).
		Str("actor", actor).
		Msg("Signup request resolved")

	s.notifier.Dispatch(Notification{Request: result.Request.Clone(), Credential: result.Credential})
	return result, nil
}

// ResendNotification mails the outcome of a resolved request again. For
// approvals a fresh temporary password replaces the old one; the rotation
// only commits when the mail was handed to the sender.
func (s *SignupRequestService) ResendNotification(ctx context.Context, role models.Role, actor string, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout+s.config.MailTimeout)
	defer cancel()

	req, err := s.load(ctx, role, id)
	if err != nil {
		return err
	}
	if !req.Status.IsTerminal() {
		return apperrors.ErrNotResolved
	}

	var secret Secret
	if req.Status == models.StatusApproved {
		if secret, err = s.issuer.NewSecret(); err != nil {
			return err
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		note := Notification{Request: req}
		if req.Status == models.StatusApproved {
			account, err := repos.Accounts.GetBySignupRequestID(ctx, id)
			if err != nil {
				return err
			}
			if note.Credential, err = s.issuer.Rotate(ctx, repos, account, secret); err != nil {
				return err
			}
		}

		if err := s.notifier.Deliver(ctx, note); err != nil {
			return apperrors.Unavailable("deliver signup outcome", err)
		}
		return repos.SignupRequests.MarkNotified(ctx, id, s.now())
	})

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.Str("requestId", id.String()).
		Int64("departmentId", req.DepartmentID).
		Str("status", string(req.Status)).
		Str("actor", actor).
		Msg("Signup outcome resend")
	return err
}

func (s *SignupRequestService) load(ctx context.Context, role models.Role, id uuid.UUID) (*models.SignupRequest, error) {
	if !role.IsAuthorized() {
		return nil, apperrors.NewForbiddenError("caller may not review signup requests")
	}
	req, err := s.repos.SignupRequests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.CanAccessDepartment(req.DepartmentID) {
		return nil, apperrors.NewForbiddenError("signup request belongs to another department")
	}
	return req, nil
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxResolutionNoteLength {
		return nil, apperrors.NewBadRequestError("note must be at most 1000 characters")
	}
	return &trimmed, nil
}
