package util

// Unwrap strips stackerr and pkg/errors wrappers and returns the root error.
func Unwrap(err error) error {
	type hasUnderlying interface {
		Underlying() error
	}
	type causer interface {
		Cause() error
	}
	for {
		var next error
		switch e := err.(type) {
		case hasUnderlying:
			next = e.Underlying()
		case causer:
			next = e.Cause()
		}
		if next == nil {
			return err
		}
		err = next
	}
}
