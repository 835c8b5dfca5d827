package dedupe

// Option applies a configuration option to the deduper.
type Option func(*lruDeduper)

// WithMaxSize sets the maximum number of keys kept in memory. Values <= 0
// keep the default.
func WithMaxSize(maxSize int) Option {
	return func(d *lruDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// WithOnEvict registers a callback invoked when a key is evicted for space.
func WithOnEvict(fn func(key, ref string)) Option {
	return func(d *lruDeduper) {
		d.onEvict = fn
	}
}
