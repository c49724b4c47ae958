package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Index errors.

	// ErrParentNotFound indicates the referenced folder has no
	// top-level index entry.
	ErrParentNotFound = errors.New("parent folder not found")

	// ErrNotAFolder indicates the target of a child insertion or a
	// move-to-folder is not a folder item.
	ErrNotAFolder = errors.New("target is not a folder")

	// ErrFolderNesting indicates an attempt to place a folder inside
	// another folder. Folders are never nested.
	ErrFolderNesting = errors.New("folders cannot be nested")

	// ErrInvalidIndex indicates the index references ids absent from the
	// record store. Recovered internally by normalising the index; never
	// surfaced to users.
	ErrInvalidIndex = errors.New("index is inconsistent with the item store")

	// Infrastructure errors.

	// ErrStorage indicates the underlying persistence layer failed
	// (quota, unavailable, I/O). In-memory state remains the working
	// truth until the next reload.
	ErrStorage = errors.New("storage failure")

	// ErrSchemaMismatch indicates a backup document failed schema
	// validation. The import is rejected wholesale, never partially
	// applied.
	ErrSchemaMismatch = errors.New("backup schema mismatch")

	// ErrSyncNotConfigured indicates WebDAV sync was requested but no
	// server is configured or sync is disabled.
	ErrSyncNotConfigured = errors.New("webdav sync not configured")

	// ErrWallpaperDisabled indicates wallpaper rotation was requested
	// while wallpapers are disabled in settings.
	ErrWallpaperDisabled = errors.New("wallpapers disabled")
)
