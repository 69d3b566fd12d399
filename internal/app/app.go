// Package app provides application-level wiring and dependency injection
// for the groups service.
package app

import (
	"database/sql"
	"log/slog"

	"groups-service/internal/config"
	"groups-service/internal/docstore"
	"groups-service/internal/repository"
	"groups-service/internal/service"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application: the document store, the repositories
// the auth middleware needs, and the group service.
type App struct {
	Store  docstore.Store
	Tokens *repository.TokenRepo
	Users  *repository.UserRepo
	Groups *service.GroupService
}

// New wires the store, repositories, and services from the provided deps.
func New(deps Deps) *App {
	store := docstore.NewSQLiteStore(deps.WriteDB, deps.ReadDB)

	return &App{
		Store:  store,
		Tokens: repository.NewTokenRepo(store),
		Users:  repository.NewUserRepo(store),
		Groups: service.NewGroupService(repository.NewGroupRepo(store)),
	}
}
