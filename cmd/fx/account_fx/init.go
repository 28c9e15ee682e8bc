package account_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dynamo/internal/api/controllers"
	"dynamo/internal/repositories"
	"dynamo/internal/services"
	"dynamo/pkg/memcache"
)

var Module = fx.Provide(
	provideAccountRepo,
	provideResetTokenStore,
	provideAccountService,
	provideAccountController,
)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideResetTokenStore() memcache.ResetTokenStore {
	return memcache.NewResetTokens()
}

func provideAccountService(
	accountRepo repositories.AccountRepository,
	txnRepo repositories.TransactionRepository,
	resetTokens memcache.ResetTokenStore,
	notifier services.NotificationPublisher,
	logger *zap.Logger,
) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, txnRepo, resetTokens, notifier, logger)
}

func provideAccountController(accountService services.AccountServiceInterface, logger *zap.Logger) *controllers.AccountController {
	return controllers.NewAccountController(accountService, logger)
}
