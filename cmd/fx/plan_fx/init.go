package plan_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dynamo/internal/api/controllers"
	"dynamo/internal/repositories"
	"dynamo/internal/services"
)

var Module = fx.Provide(
	providePlanRepo,
	providePlanService,
	providePlanController,
)

func providePlanRepo(db *gorm.DB) repositories.IPlanRepository {
	return repositories.NewPlanRepository(db)
}

func providePlanService(planRepo repositories.IPlanRepository) services.PlanServiceInterface {
	return services.NewPlanService(planRepo)
}

func providePlanController(planService services.PlanServiceInterface, logger *zap.Logger) *controllers.PlanController {
	return controllers.NewPlanController(planService, logger)
}
