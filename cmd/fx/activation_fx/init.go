package activation_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dynamo/internal/api/controllers"
	"dynamo/internal/repositories"
	"dynamo/internal/services"
)

var Module = fx.Provide(
	provideActivationRepo,
	provideActivationService,
	provideActivationController,
)

func provideActivationRepo(db *gorm.DB) repositories.ActivationRepository {
	return repositories.NewActivationRepository(db)
}

func provideActivationService(activationRepo repositories.ActivationRepository, planRepo repositories.IPlanRepository) services.ActivationServiceInterface {
	return services.NewActivationService(activationRepo, planRepo)
}

func provideActivationController(activationService services.ActivationServiceInterface, logger *zap.Logger) *controllers.ActivationController {
	return controllers.NewActivationController(activationService, logger)
}
