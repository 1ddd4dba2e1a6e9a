package reminder

import "go.uber.org/fx"

// Module wires the batch, its log store and the cron trigger. The
// Repository and Notifier bindings are provided by the application
// module, which knows the concrete implementations.
var Module = fx.Options(
	fx.Provide(NewLogStore),
	fx.Provide(NewBatch),
	fx.Provide(NewScheduler),
	fx.Invoke(registerScheduler),
)
