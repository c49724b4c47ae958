// Package domain defines the core business entities for Tabdeck.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: A grid item, either a Site or a Folder
//   - Index: The ordering/hierarchy structure for grid items
//   - Projection: The render-ready view derived from items + index
//   - Settings: Application configuration
//   - Backup: The portable export document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
