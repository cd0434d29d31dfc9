package testsupport

import (
	"os"
)

// LoadFixture reads a test fixture relative to the calling package.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}
