// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package services

import (
	"context"
	"fmt"
)

// StartStopper is a background component with an explicit lifecycle.
//
// Satisfied by:
//   - *vault.Trimmer
//   - *workqueue.Queue
//   - *localdb.DB (value log GC)
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// LifecycleService wraps a StartStopper as a supervised service.
//
// Serve:
//  1. Calls Start(ctx) to launch the component's goroutine
//  2. Waits for context cancellation
//  3. Calls Stop() to wait for the goroutine to finish
//
// A Start error is returned so suture restarts the service with backoff.
type LifecycleService struct {
	component StartStopper
	name      string
}

// NewLifecycleService creates a new wrapper named name.
func NewLifecycleService(name string, component StartStopper) *LifecycleService {
	return &LifecycleService{component: component, name: name}
}

// Serve implements suture.Service.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	s.component.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *LifecycleService) String() string {
	return s.name
}
