package services

import "errors"

// Stage failure sentinels for the query pipeline and the vector store. Each
// stage wraps its sentinel with fmt.Errorf("%w: ...") so callers can tell the
// failing stage apart with errors.Is. None of these are retried inside the
// pipeline; every failure aborts the current query.
var (
	// ErrRoutingFailure means the completion service could not produce a
	// well-formed routing decision.
	ErrRoutingFailure = errors.New("routing failure")

	// ErrRetrievalUnavailable means the vector store could not be reached
	// while drafting.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationFailure means the completion service errored or returned
	// no content while drafting.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrAuditFailure means the completion service could not produce a
	// well-formed audit verdict. The unaudited draft is never returned in
	// this case; the auditor is the only safety gate.
	ErrAuditFailure = errors.New("audit failure")

	// ErrStoreUnavailable means the backing index could not be reached
	// during ingestion or deletion.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmptyDocument means a file yielded no extractable text. Zero
	// chunks from a detected failure is distinct from a short valid file.
	ErrEmptyDocument = errors.New("no extractable text in document")
)
