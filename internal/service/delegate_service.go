package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type delegateRepository interface {
	List(ctx context.Context, filter models.DelegateFilter) ([]models.Delegate, int, error)
	FindByID(ctx context.Context, id int64) (*models.Delegate, error)
	Create(ctx context.Context, delegate *models.Delegate) error
	Update(ctx context.Context, delegate *models.Delegate) error
	TopDelegate(ctx context.Context) (*models.Delegate, error)
}

type networkUserRepository interface {
	ListByReferrer(ctx context.Context, referrerID int64) ([]models.User, error)
}

type bankAccountRepository interface {
	ListByDelegate(ctx context.Context, delegateID int64) ([]models.BankAccount, error)
	Create(ctx context.Context, account *models.BankAccount) error
	Delete(ctx context.Context, id int64) error
}

// CreateDelegateRequest holds payload for creating a delegate profile.
type CreateDelegateRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"required"`
}

// UpdateDelegateRequest holds payload for editing a delegate profile.
type UpdateDelegateRequest struct {
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"required"`
	Active bool   `json:"active"`
}

// CreateBankAccountRequest holds payout coordinates for a delegate.
type CreateBankAccountRequest struct {
	BankName      string `json:"bank_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	IBAN          string `json:"iban"`
}

// DelegateService handles delegate profiles, payout accounts and the
// read-side network derivation.
type DelegateService struct {
	delegates delegateRepository
	users     networkUserRepository
	accounts  bankAccountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDelegateService constructs the delegate service.
func NewDelegateService(delegates delegateRepository, users networkUserRepository, accounts bankAccountRepository, validate *validator.Validate, logger *zap.Logger) *DelegateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DelegateService{delegates: delegates, users: users, accounts: accounts, validator: validate, logger: logger}
}

// List returns delegates and pagination metadata.
func (s *DelegateService) List(ctx context.Context, filter models.DelegateFilter) ([]models.Delegate, *models.Pagination, error) {
	delegates, total, err := s.delegates.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list delegates")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return delegates, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one delegate.
func (s *DelegateService) Get(ctx context.Context, id int64) (*models.Delegate, error) {
	delegate, err := s.delegates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "delegate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegate")
	}
	return delegate, nil
}

// Create registers a new delegate profile with a zero student count.
func (s *DelegateService) Create(ctx context.Context, req CreateDelegateRequest) (*models.Delegate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delegate payload")
	}
	delegate := &models.Delegate{
		UserID: req.UserID,
		Name:   req.Name,
		Phone:  req.Phone,
		Active: true,
	}
	if err := s.delegates.Create(ctx, delegate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create delegate")
	}
	return delegate, nil
}

// Update edits delegate profile fields.
func (s *DelegateService) Update(ctx context.Context, id int64, req UpdateDelegateRequest) (*models.Delegate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delegate payload")
	}
	delegate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	delegate.Name = req.Name
	delegate.Phone = req.Phone
	delegate.Active = req.Active
	if err := s.delegates.Update(ctx, delegate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update delegate")
	}
	return delegate, nil
}

// Network returns the users a delegate personally recruited (direct
// referrals of the delegate's user account only).
func (s *DelegateService) Network(ctx context.Context, id int64) ([]models.User, error) {
	delegate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListByReferrer(ctx, delegate.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load network")
	}
	return users, nil
}

// Top returns the active delegate with the most students.
func (s *DelegateService) Top(ctx context.Context) (*models.Delegate, error) {
	delegate, err := s.delegates.TopDelegate(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active delegates")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load top delegate")
	}
	return delegate, nil
}

// BankAccounts lists payout coordinates for a delegate.
func (s *DelegateService) BankAccounts(ctx context.Context, delegateID int64) ([]models.BankAccount, error) {
	if _, err := s.Get(ctx, delegateID); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByDelegate(ctx, delegateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bank accounts")
	}
	return accounts, nil
}

// AddBankAccount registers payout coordinates for a delegate.
func (s *DelegateService) AddBankAccount(ctx context.Context, delegateID int64, req CreateBankAccountRequest) (*models.BankAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bank account payload")
	}
	if _, err := s.Get(ctx, delegateID); err != nil {
		return nil, err
	}
	account := &models.BankAccount{
		DelegateID:    delegateID,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IBAN:          req.IBAN,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bank account")
	}
	return account, nil
}

// RemoveBankAccount deletes payout coordinates.
func (s *DelegateService) RemoveBankAccount(ctx context.Context, id int64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bank account")
	}
	return nil
}
