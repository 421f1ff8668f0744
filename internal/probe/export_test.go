package probe

// WithPlatform overrides the platform reported in timeout errors.
func WithPlatform(goos string) Option {
	return func(p *Prober) { p.goos = goos }
}
