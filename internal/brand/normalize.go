// Package brand canonicalizes brand names so the same brand spelled or cased
// differently across exports resolves to one identity.
package brand

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Key is the matching form of a brand name. Every join between sales,
// inventory and deals uses it, never the raw string.
type Key string

// Normalize returns the matching key for raw: NFKC-folded, case-folded and
// lowercased, with every rune that is not a letter or digit removed. Case
// folding alone is not a fixed point for Cherokee, which folds to upper case,
// so each kept rune is lowercased afterwards.
//
//	Normalize("Nike - Men") == Normalize(" nike_men ") == "nikemen"
func Normalize(raw string) Key {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return Key(b.String())
}

// Display returns the label used in file names and sheets: trimmed, inner
// whitespace collapsed, title-cased.
func Display(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	return cases.Title(language.Und).String(collapsed)
}

// Identity pairs the matching key with the label shown in output.
type Identity struct {
	Key     Key
	Display string
	Raw     string
}

func NewIdentity(raw string) Identity {
	return Identity{
		Key:     Normalize(raw),
		Display: Display(raw),
		Raw:     raw,
	}
}

// Empty reports whether the raw name had no letters or digits at all.
func (id Identity) Empty() bool {
	return id.Key == ""
}

// Catalog collects brand identities across tables. The first spelling seen
// for a key becomes its display label.
type Catalog struct {
	byKey map[Key]Identity
}

func NewCatalog() *Catalog {
	return &Catalog{byKey: make(map[Key]Identity)}
}

// Add registers id and returns the identity stored for its key.
func (c *Catalog) Add(id Identity) Identity {
	if id.Empty() {
		return id
	}
	if existing, ok := c.byKey[id.Key]; ok {
		return existing
	}
	c.byKey[id.Key] = id
	return id
}

func (c *Catalog) Lookup(k Key) (Identity, bool) {
	id, ok := c.byKey[k]
	return id, ok
}

// Keys returns every registered key in sorted order.
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (c *Catalog) Len() int {
	return len(c.byKey)
}
