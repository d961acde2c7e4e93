package build

import "io"

// teeBufSize is the chunk size for duplicated stream copies.
const teeBufSize = 1024

// tee copies stream to both sinks in fixed-size chunks until EOF.
// Ordering within the stream is preserved; each captured stream gets
// its own tee goroutine, so no ordering holds between streams.
func tee(stream io.Reader, a, b io.Writer) error {
	buf := make([]byte, teeBufSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := a.Write(buf[:n]); werr != nil {
				return werr
			}
			if _, werr := b.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
