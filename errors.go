package gifenc

import "github.com/pkg/errors"

// Sentinel errors returned by Encoder. Callers should match them with
// errors.Is (from either the standard library or github.com/pkg/errors,
// both of which support Is against wrapped errors).
var (
	// ErrEncoderFinished is returned by AddFrame or Finish once the
	// encoder has already emitted its trailer byte.
	ErrEncoderFinished = errors.New("gifenc: encoder already finished")

	// ErrFrameSizeMismatch is returned by AddFrame when the supplied RGBA
	// byte slice's length does not equal 4*width*height.
	ErrFrameSizeMismatch = errors.New("gifenc: frame size mismatch")
)
