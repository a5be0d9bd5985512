// Package logger provee un logger Zap global con scoping por contexto.
//
//   - Global: una instancia inicializada con Init() en main.
//   - Context scoping: los middlewares inyectan un logger con request_id vía ToContext;
//     services y handlers lo recuperan con From(ctx).
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//   - Perf clasifica latencias (OK, GOOD, VERY BAD, FAIL) por scope.
//
// Uso:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("key rotated", logger.KeyID(kid))
package logger
