// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
)

// ContextHub is satisfied by *websocket.Hub. Declaring it here keeps this
// package free of the websocket import.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService runs the change feed hub under supervision. The hub closes
// its clients when ctx ends, so a restart never leaves orphaned
// connections behind.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService wraps hub as the "change-feed" service.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub, name: "change-feed"}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string {
	return s.name
}
