// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ItemStore: Durable grid item persistence, pure keyed storage
//   - KVStore: Key-scoped scalar storage, the fast path for the index
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - BackupTransport: Remote backup upload/download (WebDAV). Without it, sync commands are disabled.
//   - WallpaperProvider: Fetches background images. Without it, rotation is disabled.
//   - WallpaperCache: Local wallpaper storage. Without it, every display refetches.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
