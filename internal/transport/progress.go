package transport

import "io"

// ProgressFunc receives the batch transfer percentage (0-100). The
// backend accepts one multipart request per batch, so progress is
// necessarily batch-level; the session broadcasts the same percentage
// under every file name in the batch.
type ProgressFunc func(percent int)

// progressReader reports read progress over a body of known length.
type progressReader struct {
	reader      io.Reader
	total       int64
	read        int64
	lastPercent int
	onProgress  ProgressFunc
}

func newProgressReader(reader io.Reader, total int64, onProgress ProgressFunc) *progressReader {
	return &progressReader{reader: reader, total: total, lastPercent: -1, onProgress: onProgress}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.onProgress == nil || p.total <= 0 {
		return
	}
	percent := int(p.read * 100 / p.total)
	if percent > 100 {
		percent = 100
	}
	if percent != p.lastPercent {
		p.lastPercent = percent
		p.onProgress(percent)
	}
}
