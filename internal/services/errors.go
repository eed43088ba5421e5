package services

import "github.com/rotisserie/eris"

var (
	ErrServiceStopped = eris.New("visit service stopped")
	// ErrRemoteUnavailable covers network, auth and quota failures talking
	// to the remote store. Local state stays authoritative.
	ErrRemoteUnavailable = eris.New("remote store unavailable")
	// ErrMalformedRemoteDocument means a fetched blob could not be decoded.
	// Nothing from that fetch is merged.
	ErrMalformedRemoteDocument = eris.New("malformed remote document")
	// ErrConcurrentMergeConflict is returned when the remote kept changing
	// between fetch and push for more than the allowed number of re-merges.
	ErrConcurrentMergeConflict = eris.New("remote changed during sync")
)

var ErrSyncDisabled = eris.New("no remote store configured")
