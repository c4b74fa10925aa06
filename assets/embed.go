package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed colors.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// ColorList returns the embedded default palette in file order.
func ColorList() ([]string, error) {
	return readLines("colors.txt")
}

// Migrations exposes the embedded sql/ directory as its own root.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}
