package container

import (
	"database/sql"

	"assetdesk/internal/assets"
	"assetdesk/internal/assignments"
	"assetdesk/internal/auditlog"
	"assetdesk/internal/categories"
	"assetdesk/internal/repository"
	"assetdesk/internal/returns"
	"assetdesk/internal/users"
	"assetdesk/pkg/security"

	"go.uber.org/zap"
)

type Container struct {
	Repository        *repository.Repository
	LoginHandler      *security.LoginHandler
	CategoryHandler   *categories.CategoryHandler
	AssetHandler      *assets.AssetHandler
	UserHandler       *users.UsersHandler
	AssignmentHandler *assignments.AssignmentHandler
	ReturnHandler     *returns.ReturnHandler
	AuditLogHandler   *auditlog.AuditLogHandler
}

func NewAppContainer(db *sql.DB, log *zap.Logger) *Container {
	repo := repository.NewRepository(db)

	categoryRepo := categories.NewRepository(repo)
	assetRepo := assets.NewRepository(repo)
	userRepo := users.NewRepository(repo)
	assignmentRepo := assignments.NewRepository(repo)
	returnRepo := returns.NewRepository(repo)
	auditRepo := auditlog.NewRepository(repo)

	assetService := assets.NewAssetService(assetRepo, categoryRepo, repo, log)
	userService := users.NewUserService(userRepo, assignmentRepo, repo, log)
	assignmentService := assignments.NewAssignmentService(assignmentRepo, assetRepo, userRepo, auditRepo, repo, log)
	returnService := returns.NewReturnService(returnRepo, assignmentRepo, assetRepo, userRepo, auditRepo, repo, log)

	return &Container{
		Repository:        repo,
		LoginHandler:      security.NewLoginHandler(repo, log),
		CategoryHandler:   categories.NewHandler(categoryRepo),
		AssetHandler:      assets.NewAssetHandler(assetService),
		UserHandler:       users.NewHandler(userService),
		AssignmentHandler: assignments.NewHandler(assignmentService),
		ReturnHandler:     returns.NewHandler(returnService),
		AuditLogHandler:   auditlog.NewHandler(auditRepo),
	}
}
