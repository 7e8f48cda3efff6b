// Package bootstrap wires the configuration, parsers, detector, aggregator and
// report writers into a single triage run.
//
// Usage:
//
//	logger, sugar, err := bootstrap.InitLogger(cfg.Logging.Verbose, cfg.Output.NoColor)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	app, err := bootstrap.NewApp(cfg, sugar)
//	if err != nil {
//	    return err
//	}
//	result, err := app.Run(ctx)
package bootstrap
