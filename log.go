package gifenc

import "github.com/rs/zerolog"

// SetLogger installs a structured logger used to report the handful of
// non-error, non-silent events an operator might care about: the quality
// clamp, a forced sample factor, and mid-stream LZW dictionary resets.
// The default logger is zerolog.Nop(), so an Encoder that never calls
// SetLogger has no observable logging behavior.
func (e *Encoder) SetLogger(l zerolog.Logger) {
	e.logger = l
}
