// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

/*
Package config loads the audittrail configuration.

Sources are layered with koanf, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. YAML file: CONFIG_PATH, ./config.yaml, or /etc/audittrail/config.yaml
 3. Environment variables, through an explicit name mapping

Example YAML:

	app:
	  name: Audittrail
	  instance_id: idp-01
	vault:
	  max_record_count: 80000
	  max_record_age: 2160h
	syslog:
	  transport:
	    targets: ["tls,siem.example.com,6514", "udp,10.0.0.5,514"]
	  format:
	    output_type: cef
	alerts:
	  from: audit@example.com
	  user_to: [security@example.com]
	  smtp:
	    smtp_host: mail.example.com
	events:
	  permitted: [ALL]

Commonly used environment variables:

  - SYSLOG_TARGETS: semicolon-separated "protocol,host,port" entries
  - SYSLOG_OUTPUT_TYPE: json or cef
  - VAULT_MAX_RECORDS, VAULT_MAX_AGE: retention
  - ALERT_FROM, ALERT_USER_TO, ALERT_SYSTEM_TO, SMTP_HOST: alert email
  - AUDIT_EVENTS: comma-separated permitted event codes or ALL
  - STORAGE_PATH, HISTORY_PATH: data locations
  - ADMIN_LISTEN: admin API address (default 127.0.0.1:8514)
  - ADMIN_RATE_LIMIT: audit API requests per minute per client IP (default 120, 0 disables)
  - LOG_LEVEL, LOG_FORMAT: logging

Validation runs go-playground/validator struct tags (including the eventcode
validator) followed by each component's own Validate method.
*/
package config
