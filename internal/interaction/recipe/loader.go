package recipe

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/recipe.schema.json
var recipeSchemaJSON string

var recipeSchema = jsonschema.MustCompileString("recipe.schema.json", recipeSchemaJSON)

// DefaultChance используется, если у эффекта не указан chance
const DefaultChance = 100

// Problem описывает рецепт, пропущенный при загрузке
type Problem struct {
	File  string
	Index int    // позиция в списке recipes; -1 для ошибок уровня файла
	ID    string // может быть пустым
	Err   error
}

func (p Problem) Error() string {
	if p.Index < 0 {
		return fmt.Sprintf("%s: %v", p.File, p.Err)
	}
	if p.ID != "" {
		return fmt.Sprintf("%s[%d] %s: %v", p.File, p.Index, p.ID, p.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", p.File, p.Index, p.Err)
}

func (p Problem) Unwrap() error {
	return p.Err
}

// Result: итог загрузки: валидные рецепты в порядке файлов и проблемы
type Result struct {
	Recipes  []*Recipe
	Problems []Problem
}

// Файловая модель рецепта (YAML)
type fileDocument struct {
	Recipes []yaml.Node `yaml:"recipes"`
}

type fileRecipe struct {
	ID     string `yaml:"id"`
	Target struct {
		Block      string            `yaml:"block"`
		Properties map[string]string `yaml:"properties"`
	} `yaml:"target"`
	Tool *struct {
		Item string `yaml:"item"`
		Meta *int   `yaml:"meta"`
	} `yaml:"tool"`
	Faces  []string `yaml:"faces"`
	Change *struct {
		Block      string            `yaml:"block"`
		Properties map[string]string `yaml:"properties"`
		Chance     *int              `yaml:"chance"`
	} `yaml:"change"`
	Drop *struct {
		Item     string `yaml:"item"`
		Count    *int   `yaml:"count"`
		Chance   *int   `yaml:"chance"`
		Requires string `yaml:"requires"`
	} `yaml:"drop"`
	Damage *struct {
		Amount   int    `yaml:"amount"`
		Chance   *int   `yaml:"chance"`
		Requires string `yaml:"requires"`
	} `yaml:"damage"`
	Particles *struct {
		Type  string `yaml:"type"`
		Param string `yaml:"param"`
		Min   int    `yaml:"min"`
		Max   int    `yaml:"max"`
		Zone  string `yaml:"zone"`
	} `yaml:"particles"`
}

// Parse разбирает один YAML-документ с рецептами.
// Ошибка возвращается только если документ не разбирается целиком;
// отдельные плохие рецепты попадают в problems.
func Parse(name string, data []byte) ([]*Recipe, []Problem, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", name, err)
	}

	recipes := make([]*Recipe, 0, len(doc.Recipes))
	var problems []Problem

	for i := range doc.Recipes {
		node := &doc.Recipes[i]
		r, err := decodeRecipe(node)
		if err != nil {
			problems = append(problems, Problem{File: name, Index: i, ID: peekID(node), Err: err})
			continue
		}
		r.Source = name
		r.index = i
		recipes = append(recipes, r)
	}
	return recipes, problems, nil
}

// LoadDir читает все *.yaml/*.yml файлы каталога в лексикографическом порядке.
// Повторяющиеся ID пропускаются (побеждает первый).
func LoadDir(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read recipes dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	res := &Result{}
	seen := make(map[string]string)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			res.Problems = append(res.Problems, Problem{File: f, Index: -1, Err: err})
			continue
		}
		recipes, problems, err := Parse(f, data)
		if err != nil {
			res.Problems = append(res.Problems, Problem{File: f, Index: -1, Err: err})
			continue
		}
		res.Problems = append(res.Problems, problems...)

		for _, r := range recipes {
			if first, dup := seen[r.ID]; dup {
				res.Problems = append(res.Problems, Problem{
					File: f, Index: r.index, ID: r.ID,
					Err: fmt.Errorf("%w: already defined in %s", ErrDuplicateID, first),
				})
				continue
			}
			seen[r.ID] = f
			res.Recipes = append(res.Recipes, r)
		}
	}
	return res, nil
}

// DirSource загружает рецепты из каталога и пишет проблемы в лог
type DirSource struct {
	Dir    string
	Logger *logging.Logger
}

// NewDirSource создаёт источник рецептов для каталога
func NewDirSource(dir string, logger *logging.Logger) *DirSource {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DirSource{Dir: dir, Logger: logger}
}

// Recipes загружает все валидные рецепты каталога
func (s *DirSource) Recipes() ([]*Recipe, error) {
	res, err := LoadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	for _, p := range res.Problems {
		s.Logger.Warn("Рецепт пропущен: %v", p)
	}
	s.Logger.Info("Загружено рецептов: %d из %s (пропущено: %d)", len(res.Recipes), s.Dir, len(res.Problems))
	return res.Recipes, nil
}

func decodeRecipe(node *yaml.Node) (*Recipe, error) {
	if err := validateSchema(node); err != nil {
		return nil, err
	}

	var fr fileRecipe
	if err := node.Decode(&fr); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	r, err := fr.build()
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// validateSchema прогоняет узел через JSON Schema: YAML → JSON → any
func validateSchema(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := recipeSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

func (fr *fileRecipe) build() (*Recipe, error) {
	r := &Recipe{ID: fr.ID}

	target, ok := block.Lookup(fr.Target.Block)
	if !ok {
		return nil, fmt.Errorf("target: %w: %q", ErrUnknownBlock, fr.Target.Block)
	}
	r.Target = TargetMatch{Block: target, Properties: fr.Target.Properties}

	if fr.Tool != nil {
		id, ok := item.Lookup(fr.Tool.Item)
		if !ok {
			return nil, fmt.Errorf("tool: %w: %q", ErrUnknownItem, fr.Tool.Item)
		}
		r.Tool = ToolMatch{Item: id, Meta: fr.Tool.Meta}
	}

	for _, name := range fr.Faces {
		f, err := vec.ParseFace(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFace, name)
		}
		r.Faces = append(r.Faces, f)
	}

	if c := fr.Change; c != nil {
		id, ok := block.Lookup(c.Block)
		if !ok {
			return nil, fmt.Errorf("change: %w: %q", ErrUnknownBlock, c.Block)
		}
		r.Change = &BlockChange{
			State:  block.State{ID: id, Properties: c.Properties},
			Chance: chanceOrDefault(c.Chance),
		}
	}

	if d := fr.Drop; d != nil {
		count := 1
		if d.Count != nil {
			count = *d.Count
		}
		stack, err := item.ParseStack(d.Item, count)
		if err != nil {
			return nil, fmt.Errorf("drop: %w: %v", ErrUnknownItem, err)
		}
		policy, err := ParsePolicy(d.Requires)
		if err != nil {
			return nil, fmt.Errorf("drop: %w", err)
		}
		r.Drop = &Drop{Stack: stack, Chance: chanceOrDefault(d.Chance), Requires: policy}
	}

	if d := fr.Damage; d != nil {
		policy, err := ParsePolicy(d.Requires)
		if err != nil {
			return nil, fmt.Errorf("damage: %w", err)
		}
		r.Damage = &Damage{Amount: d.Amount, Chance: chanceOrDefault(d.Chance), Requires: policy}
	}

	if p := fr.Particles; p != nil {
		zone, err := ParseZone(p.Zone)
		if err != nil {
			return nil, fmt.Errorf("particles: %w", err)
		}
		param := item.AirItemID
		if p.Param != "" {
			stack, err := item.ParseStack(p.Param, 1)
			if err != nil {
				return nil, fmt.Errorf("particles: %w: %v", ErrUnknownItem, err)
			}
			param = stack.ID
		}
		r.Particles = &Particles{Type: p.Type, Param: param, Min: p.Min, Max: p.Max, Zone: zone}
	}

	return r, nil
}

func chanceOrDefault(c *int) int {
	if c == nil {
		return DefaultChance
	}
	return *c
}

// peekID достаёт id из узла, чтобы в отчёте было видно, какой рецепт пропущен
func peekID(node *yaml.Node) string {
	if node.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "id" {
			return node.Content[i+1].Value
		}
	}
	return ""
}
