package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/subwatch/subwatch/internal/app/api/server"
	"github.com/subwatch/subwatch/internal/app/service/mailer"
	"github.com/subwatch/subwatch/internal/app/service/reminder"
	"github.com/subwatch/subwatch/internal/app/service/subscription"
	"github.com/subwatch/subwatch/internal/app/service/user"
	"github.com/subwatch/subwatch/internal/platform/db"
	"github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/logger"
	"github.com/subwatch/subwatch/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	fx.Provide(metrics.New),
	subscription.Module,
	// The batch sees subscriptions through a narrow interface; binding it
	// here keeps the reminder package free of a dependency on the
	// subscription package.
	fx.Provide(func(s *subscription.Service) reminder.Repository { return s }),
	reminder.Module,
	mailer.Module,
	user.Module,
	server.Module,
)
