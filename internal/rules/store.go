package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Chain is the fully resolved rule set for one jurisdiction: document ids in
// root-to-leaf order, their rules concatenated in that same order, and the
// testing defaults from the leaf-most document with a non-empty testing block.
type Chain struct {
	IDs     []string
	Rules   []Rule
	Testing []TestingAction
}

// Store loads jurisdiction documents from a filesystem and caches resolved
// chains for the process lifetime. Documents are immutable after first load;
// picking up rule-file edits requires a restart.
type Store struct {
	fsys fs.FS

	mu     sync.Mutex
	docs   map[string]*Document
	chains map[string]*Chain
}

// NewStore builds a Store reading documents from fsys. Paths follow the
// jurisdiction id layout: "US/common" resolves to US/common.json or
// US/common.yaml under the filesystem root.
func NewStore(fsys fs.FS) *Store {
	return &Store{
		fsys:   fsys,
		docs:   make(map[string]*Document),
		chains: make(map[string]*Chain),
	}
}

// Resolve maps a jurisdiction code to its document chain. Codes are
// normalized first ("ca" and "california" both mean "US-CA"). A code whose
// regional document is missing falls back to the country baseline; a missing
// country baseline fails with ErrJurisdictionNotFound.
func (s *Store) Resolve(code string) (*Chain, error) {
	key := NormalizeCode(code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if chain, ok := s.chains[key]; ok {
		return chain, nil
	}
	chain, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	s.chains[key] = chain
	return chain, nil
}

// Preload eagerly resolves the given jurisdiction codes so malformed
// documents surface at startup instead of on the first request.
func (s *Store) Preload(codes ...string) error {
	for _, code := range codes {
		if _, err := s.Resolve(code); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the parsed, validated document with the given id (e.g.
// "US/common"), reading it if not cached yet.
func (s *Store) Load(id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *Store) resolve(code string) (*Chain, error) {
	country, region := splitCode(code)

	var (
		leaf   *Document
		leafID string
	)
	if region != "" {
		id := country + "/" + region + "/common"
		doc, err := s.load(id)
		switch {
		case err == nil:
			leaf, leafID = doc, id
		case errors.Is(err, fs.ErrNotExist):
			// No regional overlay; fall back to the country baseline.
		default:
			return nil, err
		}
	}
	if leaf == nil {
		id := country + "/common"
		doc, err := s.load(id)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrJurisdictionNotFound, code)
			}
			return nil, err
		}
		leaf, leafID = doc, id
	}

	ids := []string{leafID}
	docs := []*Document{leaf}
	seen := map[string]bool{leafID: true}
	for parent := leaf.Meta.Inherits; parent != ""; {
		if seen[parent] {
			return nil, &ParseError{Document: parent, Err: errors.New("inheritance cycle")}
		}
		doc, err := s.load(parent)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				child := ids[len(ids)-1]
				return nil, &ParseError{Document: child, Err: fmt.Errorf("inherits unknown document %q", parent)}
			}
			return nil, err
		}
		seen[parent] = true
		ids = append(ids, parent)
		docs = append(docs, doc)
		parent = doc.Meta.Inherits
	}

	// The walk built leaf-to-root; flip to root-first.
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
		docs[i], docs[j] = docs[j], docs[i]
	}

	chain := &Chain{IDs: ids}
	for _, doc := range docs {
		chain.Rules = append(chain.Rules, doc.Rules...)
		if len(doc.Testing) > 0 {
			chain.Testing = doc.Testing
		}
	}
	return chain, nil
}

func (s *Store) load(id string) (*Document, error) {
	if doc, ok := s.docs[id]; ok {
		return doc, nil
	}
	data, name, err := s.read(id)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if err := decodeDocument(data, name, doc); err != nil {
		return nil, &ParseError{Document: name, Err: err}
	}
	if err := doc.Validate(); err != nil {
		return nil, &ParseError{Document: name, Err: err}
	}
	s.docs[id] = doc
	return doc, nil
}

func (s *Store) read(id string) ([]byte, string, error) {
	for _, ext := range []string{".json", ".yaml"} {
		name := id + ext
		data, err := fs.ReadFile(s.fsys, name)
		if err == nil {
			return data, name, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%s: %w", id, fs.ErrNotExist)
}

// decodeDocument parses JSON directly and routes YAML through a generic
// decode + JSON re-encode so both formats share the Condition unmarshaler.
func decodeDocument(data []byte, name string, doc *Document) error {
	if strings.HasSuffix(name, ".yaml") {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return fmt.Errorf("convert yaml: %w", err)
		}
		data = converted
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

var stateNames = map[string]string{
	"california": "CA",
	"new york":   "NY",
	"texas":      "TX",
	"florida":    "FL",
}

// NormalizeCode canonicalizes a jurisdiction code: bare country codes stay
// bare ("US"), regional codes use COUNTRY-REGION ("US-CA"), and bare
// two-letter regions or known state names are assumed to be US states.
func NormalizeCode(code string) string {
	s := strings.TrimSpace(code)
	if s == "" {
		return "US"
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return strings.ToUpper(s[:i]) + "-" + strings.ToUpper(s[i+1:])
	}
	if abbr, ok := stateNames[strings.ToLower(s)]; ok {
		return "US-" + abbr
	}
	upper := strings.ToUpper(s)
	if len(upper) == 2 && upper != "US" {
		return "US-" + upper
	}
	return upper
}

func splitCode(code string) (country, region string) {
	if i := strings.IndexByte(code, '-'); i >= 0 {
		return code[:i], code[i+1:]
	}
	return code, ""
}
