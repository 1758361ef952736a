package skills

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ScanTier scans a directory for *.md skill files and parses each one.
// Parse failures are logged and skipped — one bad file never aborts the
// scan, matching the loader's isolation contract elsewhere in this tree.
func ScanTier(dir string, tier Tier) ([]*Skill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*Skill
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		skill, err := ParseSkillFile(path, tier)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("failed to load skill, skipping")
			continue
		}
		out = append(out, skill)
	}
	return out, nil
}

// ParseSkillFile reads a skill markdown file and extracts its name (file
// stem) and description (first non-heading paragraph, truncated to 200
// chars per spec §4.13).
func ParseSkillFile(path string, tier Tier) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".md")
	body := string(data)
	return &Skill{
		Name:        name,
		Description: firstParagraph(body),
		Body:        body,
		Source:      tier,
		FilePath:    path,
		LoadedAt:    time.Now(),
	}, nil
}

// firstParagraph returns the first non-empty, non-heading line run as a
// single space-joined string, capped at 200 characters.
func firstParagraph(body string) string {
	scanner := bufio.NewScanner(strings.NewReader(body))
	var lines []string
	collecting := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if collecting {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		collecting = true
		lines = append(lines, line)
	}
	desc := strings.Join(lines, " ")
	if len(desc) > 200 {
		desc = desc[:200]
	}
	return desc
}
