package provider

// Kind classifies an upstream fetch failure.
type Kind string

const (
	// KindNetwork covers connection and timeout failures reaching upstream.
	KindNetwork Kind = "network"
	// KindStatus covers non-200 HTTP responses.
	KindStatus Kind = "status"
	// KindMalformed covers bodies that are not parseable JSON.
	KindMalformed Kind = "malformed"
	// KindSchema covers parseable bodies missing required fields or
	// carrying an invalid price.
	KindSchema Kind = "schema"
)

// FetchError is a classified upstream failure. Every kind is retryable
// within a single Fetch call; after retries are exhausted the last one
// is surfaced unchanged.
type FetchError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }
