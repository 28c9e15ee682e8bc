package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynamo/internal/models/db_models"
	"dynamo/internal/models/request_models"
	"dynamo/internal/models/response_models"
	"dynamo/internal/repositories"
	"dynamo/pkg/memcache"
	"dynamo/pkg/utils"
)

const resetTokenTTL = 30 * time.Minute

type AccountServiceInterface interface {
	Login(ctx context.Context, request request_models.LoginRequest) (string, error)
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) error
	GetProfile(ctx context.Context, accountID uuid.UUID) (*response_models.AccountResponse, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]response_models.TransactionResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	txnRepo     repositories.TransactionRepository
	resetTokens memcache.ResetTokenStore
	notifier    NotificationPublisher
	logger      *zap.Logger
}

func NewAccountService(
	accountRepo repositories.AccountRepository,
	txnRepo repositories.TransactionRepository,
	resetTokens memcache.ResetTokenStore,
	notifier NotificationPublisher,
	logger *zap.Logger,
) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		resetTokens: resetTokens,
		notifier:    notifier,
		logger:      logger,
	}
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (string, error) {
	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return "", utils.ErrDatabaseError
	}
	if account == nil {
		return "", utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return "", utils.ErrInvalidCredentials
	}

	token, err := utils.CreateToken(account.ID, account.Role)
	if err != nil {
		a.logger.Error("token generation failed", zap.Error(err))
		return "", utils.ErrInvalidCredentials
	}

	return token, nil
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) error {
	existingAccount, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if existingAccount != nil {
		return utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return utils.ErrDatabaseError
	}

	newAccount := &db_models.Account{
		Name:         request.DisplayName,
		Email:        request.Email,
		PasswordHash: hashedPassword,
		Phone:        request.Phone,
		Role:         "user",
	}

	if err := a.accountRepo.InsertTx(newAccount, ctx); err != nil {
		return utils.ErrDatabaseError
	}

	return nil
}

func (a *AccountService) GetProfile(ctx context.Context, accountID uuid.UUID) (*response_models.AccountResponse, error) {
	account, err := a.accountRepo.FindById(ctx, accountID.String())
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	return &response_models.AccountResponse{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
		Phone: account.Phone,
		Role:  account.Role,
	}, nil
}

func (a *AccountService) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]response_models.TransactionResponse, error) {
	txns, err := a.txnRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		result = append(result, response_models.TransactionResponse{
			ID:                txn.ID,
			PlanID:            txn.PlanID,
			AmountMinor:       txn.AmountMinor,
			Currency:          txn.Currency,
			ProviderOrderID:   txn.ProviderOrderID,
			ProviderPaymentID: txn.ProviderPaymentID,
			Status:            string(txn.Status),
			PaymentMethod:     txn.PaymentMethod,
			CreatedAt:         txn.CreatedAt,
		})
	}

	return result, nil
}

// RequestPasswordReset always reports success to the caller; whether the
// email exists is not observable from the API.
func (a *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return nil
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return utils.ErrDatabaseError
	}
	a.resetTokens.Set(token, account.Email, resetTokenTTL)

	event := PasswordResetEvent{Email: account.Email, Token: token}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.notifier.PasswordReset(ctx, event); err != nil {
			a.logger.Warn("password reset notification failed", zap.Error(err))
		}
	}()

	return nil
}

func (a *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email := a.resetTokens.Consume(token)
	if email == "" {
		return utils.ErrInvalidResetToken
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return utils.ErrDatabaseError
	}

	if err := a.accountRepo.UpdatePasswordByEmail(ctx, email, hashedPassword); err != nil {
		return utils.ErrDatabaseError
	}

	return nil
}
