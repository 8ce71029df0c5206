// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

/*
Package supervisor provides process supervision using suture v4.

The server runs a two-layer tree:

	RootSupervisor ("audittrail")
	├── AuditSupervisor ("audit-layer")
	│   └── audit service lifecycle (opens on start, emits STARTUP)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The audit service owns a second, standalone supervisor created with New.
Its children are the long-running loops of the storage stack:

	AuditServiceSupervisor ("audit-service")
	├── LifecycleService("localdb-gc")
	├── LifecycleService("vault-trimmer")
	└── LifecycleService("syslog-queue")

Crashed services are restarted with suture's backoff. Events are logged
through sutureslog, which the logging package bridges into zerolog:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)

The services subpackage adapts Start/Stop components and *http.Server to
suture.Service.
*/
package supervisor
