// Package keys reads the precomputed list of registry dataset keys.
//
// Each line is colon-delimited and only the first field is the key, so a
// line such as "4fa7b334-ce0d-4e88-aaae-2e0c138d049e:1234" yields the UUID.
// Blank lines and lines starting with '#' are ignored.
package keys

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read returns the keys in r in input order.
func Read(r io.Reader) ([]string, error) {
	result := make([]string, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, _ := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNo)
		}
		result = append(result, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	return result, nil
}

// ReadFile opens path and reads its keys.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Read(f)
}
