package resolver

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v2"

	apperrors "github.com/olol2/Conor-Keenan-Project/internal/errors"
	"github.com/olol2/Conor-Keenan-Project/pkg/contracts/domain"
)

//go:embed teams.yaml
var defaultTeams []byte

// DefaultPlayerCacheSize bounds the memoised player-name normalisations.
const DefaultPlayerCacheSize = 8192

type teamFile struct {
	Teams []struct {
		ID      string   `yaml:"id"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"teams"`
}

// Resolver maps source spellings onto canonical identifiers. It is read-only
// after construction and safe for concurrent use.
type Resolver struct {
	teams     map[string]domain.TeamID
	canonical []domain.TeamID
	players   *lru.Cache[string, playerResult]
}

type playerResult struct {
	id domain.PlayerID
	ok bool
}

// New returns a Resolver over the embedded team map.
func New() (*Resolver, error) {
	return NewFromYAML(defaultTeams, DefaultPlayerCacheSize)
}

// NewFromYAML builds a Resolver from a team map document.
func NewFromYAML(data []byte, cacheSize int) (*Resolver, error) {
	var tf teamFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, apperrors.NewConfigError("parse team map", err)
	}
	if len(tf.Teams) == 0 {
		return nil, apperrors.NewConfigError("team map is empty", nil)
	}

	cache, err := lru.New[string, playerResult](cacheSize)
	if err != nil {
		return nil, apperrors.NewConfigError("create player cache", err)
	}

	r := &Resolver{
		teams:   make(map[string]domain.TeamID),
		players: cache,
	}
	for _, t := range tf.Teams {
		id := domain.TeamID(strings.TrimSpace(t.ID))
		if id == "" {
			return nil, apperrors.NewConfigError("team map entry without id", nil)
		}
		r.canonical = append(r.canonical, id)
		for _, name := range append([]string{t.ID}, t.Aliases...) {
			key := teamKey(name)
			if prev, dup := r.teams[key]; dup && prev != id {
				return nil, apperrors.NewConfigError(fmt.Sprintf("alias %q maps to both %s and %s", name, prev, id), nil)
			}
			r.teams[key] = id
		}
	}
	sort.Slice(r.canonical, func(i, j int) bool { return r.canonical[i] < r.canonical[j] })
	return r, nil
}

// CanonicalizeTeam returns the canonical id for raw, or an UnresolvedEntity error.
func (r *Resolver) CanonicalizeTeam(raw string) (domain.TeamID, error) {
	if id, ok := r.teams[teamKey(raw)]; ok {
		return id, nil
	}
	return "", apperrors.NewUnresolvedEntityError("team", raw)
}

// Teams returns the canonical ids in lexical order.
func (r *Resolver) Teams() []domain.TeamID {
	out := make([]domain.TeamID, len(r.canonical))
	copy(out, r.canonical)
	return out
}

// ResolvePlayer returns the identity key for a raw player name. Names that
// normalise to nothing usable are rejected rather than guessed.
func (r *Resolver) ResolvePlayer(raw string) (domain.PlayerID, error) {
	if res, ok := r.players.Get(raw); ok {
		if !res.ok {
			return "", apperrors.NewUnresolvedEntityError("player", raw)
		}
		return res.id, nil
	}

	key := NormalizePlayerName(raw)
	res := playerResult{id: domain.PlayerID(key), ok: key != "" && !placeholderNames[key]}
	r.players.Add(raw, res)

	if !res.ok {
		return "", apperrors.NewUnresolvedEntityError("player", raw)
	}
	return res.id, nil
}

func teamKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
