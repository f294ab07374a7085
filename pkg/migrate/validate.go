package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

var fileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Check verifies the migrations of src: file names carry a unique
// timestamp version and every file has balanced goose sections.
func Check(src Source) error {
	fsys, dir := src.FS()
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		m := fileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_name.sql", name)
		}
		if prev, dup := versions[m[1]]; dup {
			return fmt.Errorf("%s: version %s already used by %s", name, m[1], prev)
		}
		versions[m[1]] = name

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := checkSections(string(raw)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func checkSections(body string) error {
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(body, marker) {
			return fmt.Errorf("missing %q", marker)
		}
	}
	begin := strings.Count(body, "-- +goose StatementBegin")
	end := strings.Count(body, "-- +goose StatementEnd")
	if begin != end {
		return fmt.Errorf("%d StatementBegin against %d StatementEnd", begin, end)
	}
	return nil
}
