package service

// UpdateMode selects how Update writes back the modified document.
type UpdateMode string

const (
	// UpdateOptimistic replaces with an if-match on the etag that was read and
	// re-reads on a mismatch.
	UpdateOptimistic UpdateMode = "optimistic"
	// UpdateLastWriteWins replaces unconditionally.
	UpdateLastWriteWins UpdateMode = "last-write-wins"

	DefaultUpdateRetries = 3
)

// ParseUpdateMode accepts the configuration spelling of an UpdateMode.
func ParseUpdateMode(s string) (UpdateMode, bool) {
	switch UpdateMode(s) {
	case UpdateOptimistic, UpdateLastWriteWins:
		return UpdateMode(s), true
	case "":
		return UpdateOptimistic, true
	}
	return "", false
}

type options struct {
	updateMode    UpdateMode
	updateRetries int
	newID         func() string
}

// Option overrides behavior of Widgets.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithUpdateMode sets the write-back strategy of Update.
func WithUpdateMode(m UpdateMode) Option {
	return optionFunc(func(o *options) {
		o.updateMode = m
	})
}

// WithUpdateRetries bounds the attempts of an optimistic Update. Values below 1 mean 1.
func WithUpdateRetries(n int) Option {
	return optionFunc(func(o *options) {
		if n < 1 {
			n = 1
		}
		o.updateRetries = n
	})
}

// WithIDGenerator replaces the id minted by Create.
func WithIDGenerator(f func() string) Option {
	return optionFunc(func(o *options) {
		o.newID = f
	})
}
