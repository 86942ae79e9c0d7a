// Package server is the HTTP surface of mandalbook. It routes the
// festival, ledger, gallery and analytics APIs, authenticates the three
// session roles through the per-device session hub, and serves the
// rendered documentation pages and health probes.
package server
