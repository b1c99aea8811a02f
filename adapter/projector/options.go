package projector

// WithKeep sets fields that are kept by every projection, such as the id
// element of a driver.
func WithKeep(fields ...string) Option {
	return func(p *Projector) {
		p.keep = append(p.keep, fields...)
	}
}

// Option configures projector behavior through the functional options pattern.
type Option func(*Projector)
