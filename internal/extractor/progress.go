package extractor

import "io"

// progressWriter counts bytes written through it and reports percent of the
// expected total. Reported values are monotonic and clamped to [0,100]; with
// an unknown total no updates are emitted.
type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	last    float64
	fn      ProgressFunc
}

func newProgressWriter(w io.Writer, total int64, fn ProgressFunc) *progressWriter {
	return &progressWriter{w: w, total: total, fn: fn}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)

	if p.fn != nil && p.total > 0 {
		percent := float64(p.written) / float64(p.total) * 100
		if percent > 100 {
			percent = 100
		}
		// Avoid flooding the store with sub-percent updates
		if percent-p.last >= 1 || percent == 100 {
			p.last = percent
			p.fn(percent)
		}
	}
	return n, err
}
