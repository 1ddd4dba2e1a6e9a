package mailer

import (
	"go.uber.org/fx"

	"github.com/subwatch/subwatch/internal/app/service/reminder"
)

// Module provides the SMTP mailer, also bound as the reminder Notifier.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(func(s *Service) reminder.Notifier { return s }),
)
