package fft

import "runtime"

// Option configures a single FFT call.
type Option func(*fftConfig)

// OnCoset evaluates (or interpolates) over the coset gen*<w> instead of <w>.
func OnCoset() Option {
	return func(c *fftConfig) {
		c.coset = true
	}
}

// WithNbTasks bounds the number of goroutines used by the transform.
// WithNbTasks(1) forces a strictly sequential execution, which produces
// bit-identical results to the parallel one.
func WithNbTasks(n int) Option {
	return func(c *fftConfig) {
		if n < 1 {
			n = 1
		}
		c.nbTasks = n
	}
}

type fftConfig struct {
	coset   bool
	nbTasks int
}

func newConfig(opts ...Option) fftConfig {
	c := fftConfig{nbTasks: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
