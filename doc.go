// Package backend provides the Huddle API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/messages: Group message moderation and live snapshots
// - internal/notify: Durable notifications and push dispatch
// - internal/push: Push gateway client
// - internal/websocket: WebSocket server for real-time group chat
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (auth, metrics, etc.)
// - internal/cache: Redis-backed caching
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
