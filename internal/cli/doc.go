// Package cli provides the interactive SkyDrive command-line client.
//
// The REPL drives the upward operations of the core: batch uploads, the
// trash and share lifecycle, signed download links and resync. Outcomes of
// asynchronous work show up as notifications printed between prompts and in
// the "tasks" listing.
//
// The REPL is started via App.Root(ctx, in), which blocks until the user exits.
package cli
