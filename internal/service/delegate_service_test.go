package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type fullDelegateRepoStub struct {
	delegates map[int64]*models.Delegate
	nextID    int64
}

func newFullDelegateRepoStub(delegates ...*models.Delegate) *fullDelegateRepoStub {
	stub := &fullDelegateRepoStub{delegates: make(map[int64]*models.Delegate), nextID: 1}
	for _, d := range delegates {
		stub.delegates[d.ID] = d
		if d.ID >= stub.nextID {
			stub.nextID = d.ID + 1
		}
	}
	return stub
}

func (d *fullDelegateRepoStub) List(ctx context.Context, filter models.DelegateFilter) ([]models.Delegate, int, error) {
	result := make([]models.Delegate, 0, len(d.delegates))
	for _, del := range d.delegates {
		if filter.Active != nil && del.Active != *filter.Active {
			continue
		}
		result = append(result, *del)
	}
	return result, len(result), nil
}

func (d *fullDelegateRepoStub) FindByID(ctx context.Context, id int64) (*models.Delegate, error) {
	if del, ok := d.delegates[id]; ok {
		copy := *del
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (d *fullDelegateRepoStub) Create(ctx context.Context, delegate *models.Delegate) error {
	delegate.ID = d.nextID
	d.nextID++
	copy := *delegate
	d.delegates[delegate.ID] = &copy
	return nil
}

func (d *fullDelegateRepoStub) Update(ctx context.Context, delegate *models.Delegate) error {
	if _, ok := d.delegates[delegate.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *delegate
	d.delegates[delegate.ID] = &copy
	return nil
}

func (d *fullDelegateRepoStub) TopDelegate(ctx context.Context) (*models.Delegate, error) {
	var top *models.Delegate
	for _, del := range d.delegates {
		if !del.Active {
			continue
		}
		if top == nil || del.Students > top.Students {
			top = del
		}
	}
	if top == nil {
		return nil, sql.ErrNoRows
	}
	copy := *top
	return &copy, nil
}

type networkUsersStub struct {
	byReferrer map[int64][]models.User
}

func (n *networkUsersStub) ListByReferrer(ctx context.Context, referrerID int64) ([]models.User, error) {
	return n.byReferrer[referrerID], nil
}

type bankAccountRepoStub struct {
	accounts map[int64]*models.BankAccount
	nextID   int64
}

func newBankAccountRepoStub() *bankAccountRepoStub {
	return &bankAccountRepoStub{accounts: make(map[int64]*models.BankAccount), nextID: 1}
}

func (b *bankAccountRepoStub) ListByDelegate(ctx context.Context, delegateID int64) ([]models.BankAccount, error) {
	result := make([]models.BankAccount, 0)
	for _, acc := range b.accounts {
		if acc.DelegateID == delegateID {
			result = append(result, *acc)
		}
	}
	return result, nil
}

func (b *bankAccountRepoStub) Create(ctx context.Context, account *models.BankAccount) error {
	account.ID = b.nextID
	b.nextID++
	copy := *account
	b.accounts[account.ID] = &copy
	return nil
}

func (b *bankAccountRepoStub) Delete(ctx context.Context, id int64) error {
	delete(b.accounts, id)
	return nil
}

func TestDelegateServiceNetworkReturnsDirectReferrals(t *testing.T) {
	delegates := newFullDelegateRepoStub(&models.Delegate{ID: 7, UserID: 70, Name: "سالم", Active: true})
	users := &networkUsersStub{byReferrer: map[int64][]models.User{
		70: {
			{ID: 80, Username: "laila", Role: models.RoleDelegate},
			{ID: 81, Username: "zaid", Role: models.RoleDelegate},
		},
	}}
	svc := NewDelegateService(delegates, users, newBankAccountRepoStub(), nil, nil)

	network, err := svc.Network(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, network, 2)

	_, err = svc.Network(context.Background(), 99)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDelegateServiceTopIgnoresInactive(t *testing.T) {
	delegates := newFullDelegateRepoStub(
		&models.Delegate{ID: 1, Name: "سالم", Active: true, Students: 5},
		&models.Delegate{ID: 2, Name: "ليلى", Active: true, Students: 9},
		&models.Delegate{ID: 3, Name: "زيد", Active: false, Students: 20},
	)
	svc := NewDelegateService(delegates, &networkUsersStub{}, newBankAccountRepoStub(), nil, nil)

	top, err := svc.Top(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ليلى", top.Name)
}

func TestDelegateServiceTopWithNoDelegates(t *testing.T) {
	svc := NewDelegateService(newFullDelegateRepoStub(), &networkUsersStub{}, newBankAccountRepoStub(), nil, nil)

	_, err := svc.Top(context.Background())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDelegateServiceCreateStartsActiveWithZeroStudents(t *testing.T) {
	repo := newFullDelegateRepoStub()
	svc := NewDelegateService(repo, &networkUsersStub{}, newBankAccountRepoStub(), nil, nil)

	delegate, err := svc.Create(context.Background(), CreateDelegateRequest{UserID: 70, Name: "سالم", Phone: "0911111111"})
	require.NoError(t, err)
	require.True(t, delegate.Active)
	require.Equal(t, 0, delegate.Students)
}

func TestDelegateServiceBankAccounts(t *testing.T) {
	repo := newFullDelegateRepoStub(&models.Delegate{ID: 7, Name: "سالم", Active: true})
	svc := NewDelegateService(repo, &networkUsersStub{}, newBankAccountRepoStub(), nil, nil)

	account, err := svc.AddBankAccount(context.Background(), 7, CreateBankAccountRequest{
		BankName:      "مصرف الجمهورية",
		AccountNumber: "123456",
		IBAN:          "LY83002048000020100120361",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), account.DelegateID)

	accounts, err := svc.BankAccounts(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	require.NoError(t, svc.RemoveBankAccount(context.Background(), account.ID))
	accounts, err = svc.BankAccounts(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, accounts)

	// Accounts cannot be attached to a missing delegate.
	_, err = svc.AddBankAccount(context.Background(), 99, CreateBankAccountRequest{BankName: "بنك", AccountNumber: "1"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
