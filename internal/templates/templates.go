// Package templates holds the repository files pkgguard installs during the
// ConfigInstall step when fleet.yml names no templates directory.
package templates

import (
	"embed"
	"fmt"
)

//go:embed files
var files embed.FS

// Template file names as written into a repository.
const (
	Npmrc    = ".npmrc"
	Pnpmfile = ".pnpmfile.cjs"
)

// Embedded files are stored without the leading dot, which go:embed skips.
var embedded = map[string]string{
	Npmrc:    "files/npmrc",
	Pnpmfile: "files/pnpmfile.cjs",
}

// DefaultNames returns the built-in templates in install order.
func DefaultNames() []string {
	return []string{Npmrc, Pnpmfile}
}

// Read returns the built-in template written as name.
func Read(name string) ([]byte, error) {
	path, ok := embedded[name]
	if !ok {
		return nil, fmt.Errorf("no built-in template %q", name)
	}
	return files.ReadFile(path)
}
