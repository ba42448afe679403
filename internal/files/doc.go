// Package files handles filesystem concerns around portal exports and
// report artifacts: waiting for a browser download to land (the portal
// serves every export under one fixed name, and the browser picks the
// directory), moving and cleaning up export files, and discovering
// stored reports.
//
// This package contains three main components:
//
// DownloadWatcher: waits for a download by polling a small candidate
// directory set for the expected file name; "" on timeout, never an
// error.
//
// Manager: the file operations the portal collector performs between
// retrieval and parse (move, read, delete), path-resolved against the
// application directory layout.
//
// Discovery: lists export files and dated report workbooks for the
// read side.
//
// Example usage:
//
//	watcher := files.NewDownloadWatcher(0, 0, logger)
//	path, ok := watcher.Await(ctx, files.CandidateDirs(paths.DownloadsDir), config.PortalDownloadName)
//	if !ok {
//	    // export never landed, batch is skipped
//	}
package files
