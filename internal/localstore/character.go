package localstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tavern-tools/loresync/internal/book"
)

// Character file layout inside a character root.
const (
	CharacterFileName   = "character.yaml"
	DescriptionFileName = "description.md"
	ScenarioFileName    = "scenario.md"
	FirstMessageName    = "first_message.md"
	AvatarFileName      = "card.png"
	LinkedBooksDirName  = "linked_worldbooks"
)

// alternateGreetingPattern matches first_message_NN.md with N >= 2; the file
// maps to alternate_greetings[N-2].
var alternateGreetingPattern = regexp.MustCompile(`^first_message_(\d+)\.md$`)

// characterFile is the YAML shape of character.yaml: every field except the
// long-text ones split into their own markdown files.
type characterFile struct {
	Name                    string   `yaml:"name"`
	Personality             string   `yaml:"personality,omitempty"`
	MesExample              string   `yaml:"mes_example,omitempty"`
	SystemPrompt            string   `yaml:"system_prompt,omitempty"`
	PostHistoryInstructions string   `yaml:"post_history_instructions,omitempty"`
	Tags                    []string `yaml:"tags,omitempty"`
	Creator                 string   `yaml:"creator,omitempty"`
	CreatorNotes            string   `yaml:"creator_notes,omitempty"`
	CharacterVersion        string   `yaml:"character_version,omitempty"`
}

// WriteCharacter materializes ch under dir. Long text fields go to their own
// markdown files for editability; everything else lands in character.yaml.
// Stale alternate greeting files beyond the new count are removed. The
// embedded lore book and the avatar asset are the orchestrator's concern.
func (s *Store) WriteCharacter(ch *book.Character, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create character directory: %w", err)
	}

	cf := characterFile{
		Name:                    ch.Name,
		Personality:             ch.Personality,
		MesExample:              ch.MesExample,
		SystemPrompt:            ch.SystemPrompt,
		PostHistoryInstructions: ch.PostHistoryInstructions,
		Tags:                    ch.Tags,
		Creator:                 ch.Creator,
		CreatorNotes:            ch.CreatorNotes,
		CharacterVersion:        ch.CharacterVersion,
	}
	data, err := yaml.Marshal(cf)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CharacterFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write character file: %w", err)
	}

	texts := map[string]string{
		DescriptionFileName: ch.Description,
		ScenarioFileName:    ch.Scenario,
		FirstMessageName:    ch.FirstMes,
	}
	for name, text := range texts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	for i, greeting := range ch.AlternateGreetings {
		name := alternateGreetingFile(i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(greeting), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return s.cleanAlternateGreetings(dir, len(ch.AlternateGreetings))
}

// cleanAlternateGreetings removes first_message_NN.md files whose index is at
// or beyond count.
func (s *Store) cleanAlternateGreetings(dir string, count int) error {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read character directory: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		m := alternateGreetingPattern.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 2 {
			continue
		}
		if n-2 >= count {
			path := filepath.Join(dir, de.Name())
			s.logger.Printf("Removing stale greeting file: %s", path)
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	return nil
}

// ReadCharacter loads the character file set rooted at dir. Missing markdown
// files read as empty strings; a missing character.yaml is an error.
func (s *Store) ReadCharacter(dir string) (*book.Character, error) {
	path := filepath.Join(dir, CharacterFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read character file %s: %w", path, err)
	}
	var cf characterFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse character file %s: %w", path, err)
	}

	ch := &book.Character{
		Name:                    cf.Name,
		Personality:             cf.Personality,
		MesExample:              cf.MesExample,
		SystemPrompt:            cf.SystemPrompt,
		PostHistoryInstructions: cf.PostHistoryInstructions,
		Tags:                    cf.Tags,
		Creator:                 cf.Creator,
		CreatorNotes:            cf.CreatorNotes,
		CharacterVersion:        cf.CharacterVersion,
	}

	ch.Description = readTextFile(filepath.Join(dir, DescriptionFileName))
	ch.Scenario = readTextFile(filepath.Join(dir, ScenarioFileName))
	ch.FirstMes = readTextFile(filepath.Join(dir, FirstMessageName))

	greetings, err := s.readAlternateGreetings(dir)
	if err != nil {
		return nil, err
	}
	ch.AlternateGreetings = greetings

	return ch, nil
}

// readAlternateGreetings collects first_message_NN.md files sorted by N
// ascending.
func (s *Store) readAlternateGreetings(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read character directory: %w", err)
	}
	type numbered struct {
		n    int
		path string
	}
	var files []numbered
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		m := alternateGreetingPattern.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 2 {
			continue
		}
		files = append(files, numbered{n: n, path: filepath.Join(dir, de.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	greetings := make([]string, 0, len(files))
	for _, f := range files {
		greetings = append(greetings, readTextFile(f.path))
	}
	return greetings, nil
}

// WriteAvatar stores the character's avatar asset as card.png.
func (s *Store) WriteAvatar(dir string, data []byte) error {
	path := filepath.Join(dir, AvatarFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write avatar %s: %w", path, err)
	}
	return nil
}

// ListLinkedBooks returns the names of nested lore book roots under
// linked_worldbooks/, sorted ascending. A missing directory is an empty list.
func (s *Store) ListLinkedBooks(dir string) ([]string, error) {
	linkedDir := filepath.Join(dir, LinkedBooksDirName)
	dirEntries, err := os.ReadDir(linkedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read linked books directory: %w", err)
	}
	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LinkedBookDir returns the root directory of a linked lore book.
func LinkedBookDir(characterDir, bookName string) string {
	return filepath.Join(characterDir, LinkedBooksDirName, bookName)
}

func alternateGreetingFile(index int) string {
	return fmt.Sprintf("first_message_%02d.md", index+2)
}

func readTextFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
