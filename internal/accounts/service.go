// Package accounts orchestrates account administration and the public
// identity flows: registration, email verification, login and profile.
package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/internal/router"
	"github.com/angelmondragon/staffdesk/internal/session"
	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/metrics"
	"github.com/angelmondragon/staffdesk/pkg/security"
	"github.com/angelmondragon/staffdesk/pkg/types"
	"github.com/angelmondragon/staffdesk/pkg/validate"
)

const entity = "account"

type Service interface {
	RenderModel(ctx context.Context) (Model, error)
	EditIntent(ctx context.Context, id string) (Intent, error)
	Submit(ctx context.Context, intent Intent) (types.Outcome, error)
	Delete(ctx context.Context, id string) (types.Outcome, error)
	ResetPassword(ctx context.Context, id, newPassword string) (types.Outcome, error)

	Register(ctx context.Context, intent RegisterIntent) (types.Outcome, error)
	VerifyModel(ctx context.Context) (VerifyModel, error)
	Verify(ctx context.Context, email string) (types.Outcome, error)
	Login(ctx context.Context, email, password string) (types.Outcome, error)
	Logout(ctx context.Context) (types.Outcome, error)
	Profile(ctx context.Context) (ProfileModel, error)
}

type accountStore interface {
	ListAccounts() []records.Account
	FindAccountByID(id string) (records.Account, error)
	FindAccountByEmail(email string) (records.Account, error)
	InsertAccount(a records.Account) (records.Account, error)
	UpdateAccount(id string, patch records.AccountPatch) (records.Account, error)
	RemoveAccount(id, activeID string) (int, error)
}

type snapshotSaver interface {
	Save(ctx context.Context) error
}

type sessionManager interface {
	Current(ctx context.Context) *records.Account
	ActiveID() string
	Authenticate(ctx context.Context, email, password string) (records.Account, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	RememberUnverified(ctx context.Context, email string) error
	UnverifiedEmail(ctx context.Context) (string, error)
	ForgetUnverified(ctx context.Context) error
}

// ServiceParams bundles the dependencies required to build an accounts service.
type ServiceParams struct {
	Store        accountStore
	Saver        snapshotSaver
	Session      sessionManager
	Password     config.PasswordConfig
	Registration config.RegistrationConfig
	Logger       *logger.Logger
	Metrics      *metrics.StoreMetrics
}

type service struct {
	store       accountStore
	saver       snapshotSaver
	session     sessionManager
	passwordCfg config.PasswordConfig
	defaultRole enums.Role
	logg        *logger.Logger
	metrics     *metrics.StoreMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if params.Saver == nil {
		return nil, fmt.Errorf("snapshot saver is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	role := enums.RoleUser
	if raw := strings.TrimSpace(params.Registration.DefaultRole); raw != "" {
		parsed, err := enums.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("registration default role: %w", err)
		}
		role = parsed
	}
	return &service{
		store:       params.Store,
		saver:       params.Saver,
		session:     params.Session,
		passwordCfg: params.Password,
		defaultRole: role,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

func (s *service) admin(ctx context.Context) (context.Context, error) {
	identity := s.session.Current(ctx)
	if err := session.RequireAdmin(identity); err != nil {
		return ctx, err
	}
	return s.logg.WithAccountID(ctx, identity.ID), nil
}

func (s *service) RenderModel(ctx context.Context) (Model, error) {
	if _, err := s.admin(ctx); err != nil {
		return Model{}, err
	}
	return s.model(), nil
}

func (s *service) model() Model {
	accounts := s.store.ListAccounts()
	rows := make([]Row, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, Row{
			ID:       a.ID,
			FullName: a.FullName(),
			Email:    a.Email,
			Role:     a.Role,
			Verified: a.Verified,
			Password: maskedPassword,
		})
	}
	return Model{Rows: rows}
}

// EditIntent prefills an update with the stored account. The password stays
// blank so submitting it unchanged keeps the current hash.
func (s *service) EditIntent(ctx context.Context, id string) (Intent, error) {
	if _, err := s.admin(ctx); err != nil {
		return Intent{}, err
	}
	account, err := s.store.FindAccountByID(strings.TrimSpace(id))
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		EditID:    account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      string(account.Role),
		Verified:  account.Verified,
	}, nil
}

func (s *service) Submit(ctx context.Context, intent Intent) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	intent.EditID = strings.TrimSpace(intent.EditID)
	intent.FirstName = strings.TrimSpace(intent.FirstName)
	intent.LastName = strings.TrimSpace(intent.LastName)
	intent.Email = records.NormalizeEmail(intent.Email)
	if err := validate.Struct(intent); err != nil {
		return types.Outcome{}, err
	}
	role, err := enums.ParseRole(intent.Role)
	if err != nil {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "Role must be Admin or User")
	}

	if existing, err := s.store.FindAccountByEmail(intent.Email); err == nil && existing.ID != intent.EditID {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeDuplicateKey, "Email already exists")
	}

	if intent.EditID != "" {
		return s.update(ctx, intent, role)
	}
	return s.create(ctx, intent, role)
}

func (s *service) create(ctx context.Context, intent Intent, role enums.Role) (types.Outcome, error) {
	if intent.Password == "" {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "Password is required for new accounts")
	}
	hash, err := s.hashPassword(intent.Password)
	if err != nil {
		return types.Outcome{}, err
	}

	created, err := s.store.InsertAccount(records.Account{
		FirstName: intent.FirstName,
		LastName:  intent.LastName,
		Email:     intent.Email,
		Password:  hash,
		Role:      role,
		Verified:  intent.Verified,
	})
	s.metrics.ObserveMutation(entity, "create", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, created.ID)
	s.logg.Info(ctx, "account created")
	return s.commit(ctx, "Account created successfully"), nil
}

func (s *service) update(ctx context.Context, intent Intent, role enums.Role) (types.Outcome, error) {
	// The active admin cannot lock itself out.
	if intent.EditID == s.session.ActiveID() && (role != enums.RoleAdmin || !intent.Verified) {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeSelfLockout, "You cannot remove admin access or verification from your own account")
	}

	patch := records.AccountPatch{
		FirstName: &intent.FirstName,
		LastName:  &intent.LastName,
		Email:     &intent.Email,
		Role:      &role,
		Verified:  &intent.Verified,
	}
	if intent.Password != "" {
		hash, err := s.hashPassword(intent.Password)
		if err != nil {
			return types.Outcome{}, err
		}
		patch.Password = &hash
	}

	updated, err := s.store.UpdateAccount(intent.EditID, patch)
	s.metrics.ObserveMutation(entity, "update", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, updated.ID)
	s.logg.Info(ctx, "account updated")

	out := s.commit(ctx, "Account updated successfully")
	if updated.ID == s.session.ActiveID() {
		if err := s.session.Refresh(ctx); err != nil {
			out.Notices = append(out.Notices, types.NoticeFromError(err))
		}
	}
	return out, nil
}

func (s *service) hashPassword(password string) (string, error) {
	if err := security.CheckLength(password, s.passwordCfg); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, s.lengthMessage())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func (s *service) lengthMessage() string {
	min := s.passwordCfg.MinLength
	if min <= 0 {
		min = 1
	}
	return fmt.Sprintf("Password must be at least %d characters", min)
}

// Delete removes the account and its employee records. The active account
// cannot delete itself.
func (s *service) Delete(ctx context.Context, id string) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	id = strings.TrimSpace(id)
	cascaded, err := s.store.RemoveAccount(id, s.session.ActiveID())
	s.metrics.ObserveMutation(entity, "delete", err)
	ctx = s.logg.WithEntity(ctx, entity, id)
	if err != nil {
		return types.Outcome{}, err
	}
	if cascaded > 0 {
		s.metrics.ObserveMutation("employee", "cascade", nil)
	}

	s.logg.Info(s.logg.WithField(ctx, "employees_removed", cascaded), "account deleted")
	return s.commit(ctx, "Account deleted"), nil
}

func (s *service) ResetPassword(ctx context.Context, id, newPassword string) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	id = strings.TrimSpace(id)
	if _, err := s.store.FindAccountByID(id); err != nil {
		return types.Outcome{}, err
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return types.Outcome{}, err
	}

	_, err = s.store.UpdateAccount(id, records.AccountPatch{Password: &hash})
	s.metrics.ObserveMutation(entity, "reset_password", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, id)
	s.logg.Info(ctx, "account password reset")
	return s.commit(ctx, "Password reset successfully"), nil
}

func (s *service) commit(ctx context.Context, message string) types.Outcome {
	saveErr := s.saver.Save(ctx)
	if saveErr != nil {
		s.logg.Warn(ctx, "account change kept in memory only")
	}
	return types.Outcome{Model: s.model(), Notices: types.CommitNotices(message, saveErr)}
}

// Register creates an unverified account with the default role and hands
// its email to the verify-email page.
func (s *service) Register(ctx context.Context, intent RegisterIntent) (types.Outcome, error) {
	intent.FirstName = strings.TrimSpace(intent.FirstName)
	intent.LastName = strings.TrimSpace(intent.LastName)
	intent.Email = records.NormalizeEmail(intent.Email)
	if err := validate.Struct(intent); err != nil {
		return types.Outcome{}, err
	}
	if _, err := s.store.FindAccountByEmail(intent.Email); err == nil {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeDuplicateKey, "Email already registered")
	}
	hash, err := s.hashPassword(intent.Password)
	if err != nil {
		return types.Outcome{}, err
	}

	created, err := s.store.InsertAccount(records.Account{
		FirstName: intent.FirstName,
		LastName:  intent.LastName,
		Email:     intent.Email,
		Password:  hash,
		Role:      s.defaultRole,
	})
	s.metrics.ObserveMutation(entity, "register", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, created.ID)
	s.logg.Info(ctx, "account registered")

	saveErr := s.saver.Save(ctx)
	notices := types.CommitNotices("Registration successful! Please verify your email.", saveErr)
	if err := s.session.RememberUnverified(ctx, created.Email); err != nil && saveErr == nil {
		notices = append(notices, types.NoticeFromError(err))
	}
	return types.Outcome{
		Model:      VerifyModel{Email: created.Email},
		Notices:    notices,
		Navigation: types.NavigateTo(router.RouteVerifyEmail.Path()),
	}, nil
}

func (s *service) VerifyModel(ctx context.Context) (VerifyModel, error) {
	email, err := s.session.UnverifiedEmail(ctx)
	if err != nil {
		return VerifyModel{}, err
	}
	return VerifyModel{Email: email}, nil
}

// Verify marks the pending registration verified. An empty email means the
// pending one; any other email is refused.
func (s *service) Verify(ctx context.Context, email string) (types.Outcome, error) {
	pending, err := s.session.UnverifiedEmail(ctx)
	if err != nil {
		return types.Outcome{}, err
	}
	pending = records.NormalizeEmail(pending)
	if pending == "" {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "No email awaiting verification")
	}
	if email = records.NormalizeEmail(email); email != "" && email != pending {
		s.logg.Warn(ctx, "verification refused for non-pending email")
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "Email is not awaiting verification")
	}
	email = pending

	account, err := s.store.FindAccountByEmail(email)
	if err != nil {
		return types.Outcome{}, err
	}
	verified := true
	_, err = s.store.UpdateAccount(account.ID, records.AccountPatch{Verified: &verified})
	s.metrics.ObserveMutation(entity, "verify", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, account.ID)
	s.logg.Info(ctx, "account verified")

	saveErr := s.saver.Save(ctx)
	notices := types.CommitNotices("Email verified successfully!", saveErr)
	if err := s.session.ForgetUnverified(ctx); err != nil && saveErr == nil {
		notices = append(notices, types.NoticeFromError(err))
	}
	return types.Outcome{Notices: notices, Navigation: types.NavigateTo(router.RouteLogin.Path())}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (types.Outcome, error) {
	account, err := s.session.Authenticate(ctx, email, password)
	if err != nil && !pkgerrors.Is(err, pkgerrors.CodeStorage) {
		return types.Outcome{}, err
	}
	return types.Outcome{
		Model:      toProfile(account),
		Notices:    types.CommitNotices("Login successful!", err),
		Navigation: types.NavigateTo(router.RouteProfile.Path()),
	}, nil
}

func (s *service) Logout(ctx context.Context) (types.Outcome, error) {
	err := s.session.Logout(ctx)
	return types.Outcome{
		Notices:    types.CommitNotices("Logged out successfully", err),
		Navigation: types.NavigateTo(router.RouteHome.Path()),
	}, nil
}

func (s *service) Profile(ctx context.Context) (ProfileModel, error) {
	identity := s.session.Current(ctx)
	if err := session.RequireAuthenticated(identity); err != nil {
		return ProfileModel{}, err
	}
	return toProfile(*identity), nil
}

func toProfile(a records.Account) ProfileModel {
	return ProfileModel{
		ID:        a.ID,
		Name:      a.FullName(),
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      a.Role,
	}
}
