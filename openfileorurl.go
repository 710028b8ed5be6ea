package ehrprep

import (
	"io"
	"net/http"
	"os"
	"strings"
)

// OpenFileOrURL slurps the contents of a local path or an http(s) URL.
// Local files are transparently decompressed.
func OpenFileOrURL(input string) ([]byte, error) {
	if strings.HasPrefix(input, "http") {
		resp, err := http.Get(input)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		return io.ReadAll(resp.Body)
	}

	file, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := MaybeDecompressReadCloserFromFile(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
