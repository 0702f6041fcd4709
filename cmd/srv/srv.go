package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/remindx-lab/backend/config"
	"github.com/remindx-lab/backend/internal/domain"
	"github.com/remindx-lab/backend/internal/repository"
	"github.com/remindx-lab/backend/pkg/api/discord"
	"github.com/remindx-lab/backend/pkg/authenticator"
	"github.com/remindx-lab/backend/pkg/logger"
	"github.com/remindx-lab/backend/pkg/token"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	configs config.Configs

	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository

	oauth2Services []authenticator.IOAuth2Service

	identityDomain domain.IdentityDomain
	authDomain     domain.AuthDomain
	userDomain     domain.UserDomain
}

// load prepares everything a command needs except the migrations.
func (s *srv) load(cctx *cli.Context) error {
	if err := s.loadConfig(cctx); err != nil {
		return err
	}

	s.loadLogger()
	s.loadHTTPClient()

	if err := s.loadDatabase(); err != nil {
		return err
	}

	s.loadRepos()
	if err := s.loadOAuth2Services(); err != nil {
		return err
	}

	s.loadDomains()
	return nil
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	if v := cctx.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if v := cctx.String("database-dsn"); v != "" {
		cfg.Database.DSN = v
	}

	if v := cctx.String("access-secret"); v != "" {
		cfg.Auth.AccessToken.Secret = v
	}

	if v := cctx.String("refresh-secret"); v != "" {
		cfg.Auth.RefreshToken.Secret = v
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s.configs = cfg
	s.ctx = xcontext.WithConfigs(cctx.Context, cfg)
	return nil
}

func (s *srv) loadLogger() {
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.ParseLevel(s.configs.LogLevel)))
}

func (s *srv) loadHTTPClient() {
	s.ctx = xcontext.WithHTTPClient(s.ctx, &http.Client{Timeout: 10 * time.Second})
}

func (s *srv) loadDatabase() error {
	db, err := s.newDatabase()
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
	return nil
}

func (s *srv) newDatabase() (*gorm.DB, error) {
	var dialector gorm.Dialector
	dsn := s.configs.Database.ConnectionString()
	switch s.configs.Database.Driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %s", s.configs.Database.Driver)
	}

	logLevel := gormlogger.Silent
	if logger.ParseLevel(s.configs.LogLevel) == logger.DEBUG {
		logLevel = gormlogger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.refreshTokenRepo = repository.NewRefreshTokenRepository()
}

func (s *srv) loadOAuth2Services() error {
	s.oauth2Services = nil

	if cfg := s.configs.Auth.Discord; cfg.Enabled() {
		s.oauth2Services = append(s.oauth2Services, authenticator.NewDiscordService(cfg, discord.New()))
	}

	if cfg := s.configs.Auth.OIDC; cfg.Enabled() {
		service, err := authenticator.NewOIDCService(s.ctx, cfg)
		if err != nil {
			return fmt.Errorf("cannot load oidc provider %s: %w", cfg.Name, err)
		}

		s.oauth2Services = append(s.oauth2Services, service)
	}

	return nil
}

func (s *srv) loadDomains() {
	authCfg := s.configs.Auth

	s.identityDomain = domain.NewIdentityDomain(s.userRepo)
	s.authDomain = domain.NewAuthDomain(
		authCfg,
		token.NewEngine(authCfg.AccessToken.Secret),
		token.NewEngine(authCfg.RefreshToken.Secret),
		s.userRepo,
		s.refreshTokenRepo,
		s.identityDomain,
		s.oauth2Services,
	)
	s.userDomain = domain.NewUserDomain(s.userRepo, s.refreshTokenRepo, s.authDomain)
}

func (s *srv) getOAuth2Service(name string) (authenticator.IOAuth2Service, error) {
	for _, service := range s.oauth2Services {
		if service.Service() == name {
			return service, nil
		}
	}

	return nil, fmt.Errorf("oauth2 provider %s is not configured", name)
}
