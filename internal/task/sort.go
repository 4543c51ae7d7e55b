package task

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kazz187/taskforge/pkg/cerr"
)

// Strategy returns a newly ordered copy of tasks. Implementations must not
// modify the input slice.
type Strategy func(tasks []Task) []Task

type SortKey string

const (
	ByDateAsc      SortKey = "byDateAsc"
	ByPriorityDesc SortKey = "byPriorityDesc"
	ByTitleAsc     SortKey = "byTitleAsc"
)

// SortOption pairs a key with a label for pickers.
type SortOption struct {
	Key   SortKey
	Label string
}

func SortOptions() []SortOption {
	return []SortOption{
		{Key: ByDateAsc, Label: "Due date (earliest first)"},
		{Key: ByPriorityDesc, Label: "Priority (highest first)"},
		{Key: ByTitleAsc, Label: "Title (A-Z)"},
	}
}

// Registry maps sort keys to strategies. Registered strategies are never
// replaced; new orderings are added under new keys.
type Registry struct {
	mu         sync.RWMutex
	strategies map[SortKey]Strategy
}

type RegistryOption func(*registryConfig)

type registryConfig struct {
	locale language.Tag
}

// WithLocale selects the collation used by byTitleAsc.
func WithLocale(tag language.Tag) RegistryOption {
	return func(c *registryConfig) {
		c.locale = tag
	}
}

// NewRegistry returns a registry holding byDateAsc, byPriorityDesc and
// byTitleAsc.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{locale: language.Und}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		strategies: map[SortKey]Strategy{
			ByDateAsc:      SortByDateAsc,
			ByPriorityDesc: SortByPriorityDesc,
			ByTitleAsc:     NewTitleStrategy(cfg.locale),
		},
	}
}

func (r *Registry) Register(key SortKey, s Strategy) error {
	if key == "" || s == nil {
		return cerr.NewError(cerr.InvalidArgument, "sort key and strategy are required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[key]; ok {
		return cerr.NewError(cerr.AlreadyExists, fmt.Sprintf("sort strategy %q already registered", key), nil)
	}
	r.strategies[key] = s
	return nil
}

func (r *Registry) Get(key SortKey) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[key]
	return s, ok
}

func (r *Registry) Keys() []SortKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]SortKey, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *Registry) Sort(key SortKey, tasks []Task) ([]Task, error) {
	s, ok := r.Get(key)
	if !ok {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown sort key %q", key), nil)
	}
	return s(tasks), nil
}

// SortByDateAsc orders by due date, earliest first. Tasks whose due date does
// not parse go last and keep their input order.
func SortByDateAsc(tasks []Task) []Task {
	type keyed struct {
		task Task
		due  time.Time
		ok   bool
	}
	ks := make([]keyed, len(tasks))
	for i, t := range tasks {
		due, err := ParseDueDate(t.DueDate)
		ks[i] = keyed{task: t, due: due, ok: err == nil}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.ok && b.ok:
			return a.due.Compare(b.due)
		case a.ok:
			return -1
		case b.ok:
			return 1
		default:
			return 0
		}
	})
	out := make([]Task, len(ks))
	for i, k := range ks {
		out[i] = k.task
	}
	return out
}

// SortByPriorityDesc orders high before medium before low.
func SortByPriorityDesc(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int {
		return b.Priority.Rank() - a.Priority.Rank()
	})
	return out
}

// NewTitleStrategy orders titles with the collation rules of tag.
func NewTitleStrategy(tag language.Tag) Strategy {
	return func(tasks []Task) []Task {
		// collate.Collator keeps internal buffers and is not safe for
		// concurrent use.
		c := collate.New(tag)
		out := slices.Clone(tasks)
		slices.SortStableFunc(out, func(a, b Task) int {
			return c.CompareString(a.Title, b.Title)
		})
		return out
	}
}
