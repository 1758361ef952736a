package skills

import "embed"

// bundledFS holds the skills shipped inside the binary itself, grounded on
// the teacher's internal/cli/defaults embed-default-files pattern.
//
//go:embed bundled/*.md
var bundledFS embed.FS

// ScanBundled parses every embedded bundled-tier skill file.
func ScanBundled() ([]*Skill, error) {
	entries, err := bundledFS.ReadDir("bundled")
	if err != nil {
		return nil, err
	}
	var out []*Skill
	for _, entry := range entries {
		data, err := bundledFS.ReadFile("bundled/" + entry.Name())
		if err != nil {
			continue
		}
		name := entry.Name()
		if len(name) > 3 && name[len(name)-3:] == ".md" {
			name = name[:len(name)-3]
		}
		out = append(out, &Skill{
			Name:        name,
			Description: firstParagraph(string(data)),
			Body:        string(data),
			Source:      TierBundled,
			FilePath:    "embed:bundled/" + entry.Name(),
		})
	}
	return out, nil
}
