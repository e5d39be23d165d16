// Package cli provides the interactive gophnotes command-line client.
//
// It wires configuration, the local session store, API services and an
// interactive REPL. Typical flow: restore the previous session if one was
// saved, start a background connectivity watcher, and execute user commands.
//
// Key features:
//   - Register / Login / Logout, with the session kept across restarts
//   - Profile view and edit
//   - List, search, show, add, edit and delete notes
//   - Favorites and the favorite toggle
//   - Download a rendered note, or export it to object storage
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
