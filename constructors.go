package revoke

import "time"

// NewSessions returns a configured Sessions backed by the given record store.
// The store handle is passed in explicitly; the policy never reaches into
// ambient state to find one.
func NewSessions(store RecordStore, options ...Option) (Sessions, error) {
	sessions := Sessions{
		store: store,
		log:   FmtLogger(true),
		timeNow: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, option := range options {
		err := option(&sessions)
		if err != nil {
			return Sessions{}, err
		}
	}

	return sessions, nil
}

type Option func(*Sessions) error

// CustomLogger replaces the default fmt logger with your own LogService.
func CustomLogger(log LogService) Option {
	return func(sessions *Sessions) error {
		sessions.log = log
		return nil
	}
}
