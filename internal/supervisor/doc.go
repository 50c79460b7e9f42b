// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package supervisor runs the long-lived parts of Bookshelf under a suture v4
supervisor tree.

	RootSupervisor ("bookshelf")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── CleanupService ("lockout-cleanup")
	│   └── LimiterCleanupService ("login-limiter-cleanup", if login rate limiting is on)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog, so the tree takes an *slog.Logger; main passes
logging.NewSlogLogger(), which forwards to zerolog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddMaintenanceService(services.NewCleanupService("lockout-cleanup", lockout, 5*time.Minute, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)

Cancelling ctx stops every service. Services still running after
TreeConfig.ShutdownTimeout show up in UnstoppedServiceReport.
*/
package supervisor
