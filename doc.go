// Package pgstage provides safe schema migrations for a managed-Postgres
// control plane. A migration is staged on an ephemeral copy-on-write
// branch, verified by the caller against that branch, and only then
// committed to the primary branch. The root package holds the core
// entities and error taxonomy; the workflow itself lives in the migrate
// package, and the mcp package exposes it to automated agents.
package pgstage
