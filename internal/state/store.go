package state

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/hacksync/internal/model"
)

// Store is the canonical in-memory copy of the dataset.
//
// INVARIANTS (hold after every Apply):
//   - roster symmetry between projects and people
//   - at most one winner per challenge kind and per bounty
//   - bounty claims never exceed capacity; a full bounty is claimed
type Store struct {
	snap   model.Snapshot
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the generator used for entities added without an id.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store holding an empty dataset.
func New(opts ...Option) *Store {
	s := &Store{
		snap:   model.NewSnapshot(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current dataset.
func (s *Store) Snapshot() model.Snapshot {
	return s.snap.Clone()
}

// Apply performs one intent and returns the resulting snapshot and whether
// the dataset changed. Malformed intents (unknown ids, wrong value types,
// rejected claims) leave the dataset untouched and report false.
func (s *Store) Apply(in Intent) (model.Snapshot, bool) {
	changed := s.apply(in)
	if changed {
		s.verify(in)
	}
	s.logger.Debug("intent applied", "intent", in.String(), "changed", changed)
	return s.snap.Clone(), changed
}

func (s *Store) apply(in Intent) bool {
	switch in.Op {
	case OpReplaceAll:
		return s.replaceAll(in.Value)

	case OpReplace, OpAdd, OpPatch, OpRemove:
		return s.applyEntity(in)

	case OpAssignChallengeWinner:
		if prev, ok := s.snap.Winners.Challenge[in.Challenge]; ok && prev != in.ProjectID && s.snap.Phase.Announced {
			s.logger.Warn("overwriting announced challenge winner",
				"challenge", in.Challenge,
				"previous", prev,
				"project", in.ProjectID,
			)
		}
		return assignChallengeWinner(&s.snap, in.Challenge, in.ProjectID)

	case OpClearChallengeWinner:
		return clearChallengeWinner(&s.snap, in.Challenge)

	case OpAssignBountyWinner:
		if prev, ok := s.snap.Winners.Bounty[in.ID]; ok && prev != in.ProjectID && s.snap.Phase.Announced {
			s.logger.Warn("overwriting announced bounty winner",
				"bounty", in.ID,
				"previous", prev,
				"project", in.ProjectID,
			)
		}
		return assignBountyWinner(&s.snap, in.ID, in.ProjectID)

	case OpClearBountyWinner:
		return clearBountyWinner(&s.snap, in.ID)

	case OpPhase:
		return applyPhase(&s.snap, in.Phase)

	case OpClaimBounty:
		return claimBounty(&s.snap, in.ID, in.ProjectID)

	case OpReleaseBounty:
		return releaseBounty(&s.snap, in.ID, in.ProjectID)

	case OpCompleteBounty:
		return completeBounty(&s.snap, in.ID)
	}
	return false
}

// verify answers invariant drift with a full recompute. Drift should be
// unreachable; it is logged so that it can be investigated.
func (s *Store) verify(in Intent) {
	err := CheckInvariants(s.snap)
	if err == nil {
		return
	}
	s.logger.Warn("invariant drift, recomputing",
		"intent", in.String(),
		"error", err,
		"event", "invariant_drift",
	)
	s.recompute()
}

func (s *Store) recompute() {
	exclusiveRosters(s.snap.Projects)
	for i := range s.snap.Bounties {
		s.snap.Bounties[i] = normalizeBounty(s.snap.Bounties[i])
	}
	s.snap.Attendees = ReconcileAll(s.snap.Attendees, s.snap.Projects)
}

func (s *Store) replaceAll(v any) bool {
	var next model.Snapshot
	switch val := v.(type) {
	case model.Snapshot:
		next = val.Clone()
	case *model.Snapshot:
		if val == nil {
			return false
		}
		next = val.Clone()
	default:
		return false
	}
	next.Normalize()

	next.Projects = prepareAll(next.Projects, projects, s.prepareProject)
	next.Attendees = prepareAll(next.Attendees, people, s.preparePerson)
	next.Challenges = prepareAll(next.Challenges, challenges, s.prepareChallenge)
	next.Bounties = prepareAll(next.Bounties, bounties, s.prepareBounty)
	next.Goodies = prepareAll(next.Goodies, goodies, s.prepareGoodie)
	next.FAQ = prepareAll(next.FAQ, faqs, s.prepareFAQ)
	exclusiveRosters(next.Projects)
	next.Attendees = ReconcileAll(next.Attendees, next.Projects)

	if reflect.DeepEqual(s.snap, next) {
		return false
	}
	s.snap = next
	return true
}

func (s *Store) applyEntity(in Intent) bool {
	switch in.Kind {
	case KindProject:
		return s.applyProject(in)
	case KindPerson:
		if !mutate(&s.snap.Attendees, in, people, s.preparePerson) {
			return false
		}
		s.snap.Attendees = ReconcileAll(s.snap.Attendees, s.snap.Projects)
		return true
	case KindChallenge:
		return mutate(&s.snap.Challenges, in, challenges, s.prepareChallenge)
	case KindBounty:
		return mutate(&s.snap.Bounties, in, bounties, s.prepareBounty)
	case KindGoodie:
		return mutate(&s.snap.Goodies, in, goodies, s.prepareGoodie)
	case KindFAQ:
		return mutate(&s.snap.FAQ, in, faqs, s.prepareFAQ)
	}
	return false
}

func (s *Store) applyProject(in Intent) bool {
	switch in.Op {
	case OpRemove:
		i := indexOf(s.snap.Projects, in.ID, projectKey)
		if i < 0 {
			return false
		}
		removed := s.snap.Projects[i]
		s.snap.Projects = slices.Delete(s.snap.Projects, i, i+1)
		dropProjectFromAwards(&s.snap, removed.ID)
		removed.Members = nil
		s.snap.Attendees = Reconcile(s.snap.Attendees, &removed)
		return true

	case OpReplace:
		before := s.snap.Projects
		if !mutate(&s.snap.Projects, in, projects, s.prepareProject) {
			return false
		}
		for _, p := range before {
			if indexOf(s.snap.Projects, p.ID, projectKey) < 0 {
				dropProjectFromAwards(&s.snap, p.ID)
			}
		}
		exclusiveRosters(s.snap.Projects)
		s.snap.Attendees = ReconcileAll(s.snap.Attendees, s.snap.Projects)
		return true

	case OpAdd, OpPatch:
		if !mutate(&s.snap.Projects, in, projects, s.prepareProject) {
			return false
		}
		i := len(s.snap.Projects) - 1
		if in.Op == OpPatch {
			i = indexOf(s.snap.Projects, in.ID, projectKey)
		}
		claimRoster(s.snap.Projects, i)
		touched := s.snap.Projects[i]
		s.snap.Attendees = Reconcile(s.snap.Attendees, &touched)
		return true
	}
	return false
}

// Entity preparation: fill defaults, mint ids, and copy caller-owned slices.
// Returning false rejects the entity.

func (s *Store) prepareProject(p model.Project) (model.Project, bool) {
	p = p.Clone()
	if p.ID == "" {
		p.ID = s.ids.Generate()
	}
	if p.Kind == "" {
		p.Kind = model.ProjectNew
	}
	if p.Status == "" {
		p.Status = model.ProjectDraft
	}
	p.Members = dedupeRoster(p.Members)
	if p.SubmittedAt != nil {
		t := model.Timestamp(*p.SubmittedAt)
		p.SubmittedAt = &t
	}
	return p, true
}

func (s *Store) preparePerson(p model.Person) (model.Person, bool) {
	p = p.Clone()
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" {
		return p, false
	}
	if !p.RegisteredAt.IsZero() {
		p.RegisteredAt = model.Timestamp(p.RegisteredAt)
	}
	return p, true
}

func (s *Store) prepareChallenge(c model.Challenge) (model.Challenge, bool) {
	c = c.Clone()
	if c.Kind == "" {
		return c, false
	}
	if c.ID == "" {
		c.ID = s.ids.Generate()
	}
	return c, true
}

func (s *Store) prepareBounty(b model.Bounty) (model.Bounty, bool) {
	b = b.Clone()
	if b.ID == "" {
		b.ID = s.ids.Generate()
	}
	return normalizeBounty(b), true
}

func (s *Store) prepareGoodie(g model.Goodie) (model.Goodie, bool) {
	g = g.Clone()
	if g.ID == "" {
		g.ID = s.ids.Generate()
	}
	return g, true
}

func (s *Store) prepareFAQ(f model.FaqItem) (model.FaqItem, bool) {
	if f.ID == "" {
		f.ID = s.ids.Generate()
	}
	return f, true
}

// exclusiveRosters keeps each address on the first roster that lists it.
func exclusiveRosters(projects []model.Project) {
	seen := make(map[string]struct{})
	for i := range projects {
		kept := make([]string, 0, len(projects[i].Members))
		for _, addr := range projects[i].Members {
			n := model.NormalizeAddress(addr)
			if _, taken := seen[n]; taken {
				continue
			}
			seen[n] = struct{}{}
			kept = append(kept, addr)
		}
		projects[i].Members = kept
	}
}

// collection describes how entities of one kind are keyed.
type collection[T any] struct {
	key   func(T) string      // canonical key of an entity
	canon func(string) string // canonical form of a lookup id
	field string              // wire field holding the key; patches may not change it
}

func identity(id string) string { return id }

func projectKey(p model.Project) string     { return p.ID }
func personKey(p model.Person) string       { return model.NormalizeAddress(p.Email) }
func challengeKey(c model.Challenge) string { return c.ID }
func bountyKey(b model.Bounty) string       { return b.ID }
func goodieKey(g model.Goodie) string       { return g.ID }
func faqKey(f model.FaqItem) string         { return f.ID }

var (
	projects   = collection[model.Project]{key: projectKey, canon: identity, field: "id"}
	people     = collection[model.Person]{key: personKey, canon: model.NormalizeAddress, field: "email"}
	challenges = collection[model.Challenge]{key: challengeKey, canon: identity, field: "id"}
	bounties   = collection[model.Bounty]{key: bountyKey, canon: identity, field: "id"}
	goodies    = collection[model.Goodie]{key: goodieKey, canon: identity, field: "id"}
	faqs       = collection[model.FaqItem]{key: faqKey, canon: identity, field: "id"}
)

func indexOf[T any](items []T, id string, key func(T) string) int {
	if id == "" {
		return -1
	}
	for i, item := range items {
		if key(item) == id {
			return i
		}
	}
	return -1
}

// mutate applies a replace, add, patch or remove intent to one collection.
func mutate[T any](items *[]T, in Intent, c collection[T], prepare func(T) (T, bool)) bool {
	switch in.Op {
	case OpReplace:
		next, ok := in.Value.([]T)
		if !ok {
			return false
		}
		*items = prepareAll(next, c, prepare)
		return true

	case OpAdd:
		item, ok := valueOf[T](in.Value)
		if !ok {
			return false
		}
		item, ok = prepare(item)
		if !ok || indexOf(*items, c.key(item), c.key) >= 0 {
			return false
		}
		*items = append(*items, item)
		return true

	case OpPatch:
		i := indexOf(*items, c.canon(in.ID), c.key)
		if i < 0 || len(in.Fields) == 0 {
			return false
		}
		next, changed := patchEntity((*items)[i], in.Fields, c.field)
		if !changed {
			return false
		}
		next, ok := prepare(next)
		if !ok {
			return false
		}
		(*items)[i] = next
		return true

	case OpRemove:
		i := indexOf(*items, c.canon(in.ID), c.key)
		if i < 0 {
			return false
		}
		*items = slices.Delete(*items, i, i+1)
		return true
	}
	return false
}

// prepareAll prepares each entity and drops rejected ones and duplicate keys,
// keeping first occurrences.
func prepareAll[T any](in []T, c collection[T], prepare func(T) (T, bool)) []T {
	out := make([]T, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		item, ok := prepare(item)
		if !ok {
			continue
		}
		k := c.key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

func valueOf[T any](v any) (T, bool) {
	switch val := v.(type) {
	case T:
		return val, true
	case *T:
		if val != nil {
			return *val, true
		}
	}
	var zero T
	return zero, false
}

// patchEntity merges fields over the entity's wire form. The key field is
// protected. Returns the entity unchanged and false if the merge does not
// decode or changes nothing.
func patchEntity[T any](cur T, fields map[string]any, protected string) (T, bool) {
	base, err := json.Marshal(cur)
	if err != nil {
		return cur, false
	}
	var doc map[string]any
	if err := json.Unmarshal(base, &doc); err != nil {
		return cur, false
	}
	for k, v := range fields {
		if k == protected {
			continue
		}
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return cur, false
	}
	var next T
	if err := json.Unmarshal(merged, &next); err != nil {
		return cur, false
	}
	after, err := json.Marshal(next)
	if err != nil || bytes.Equal(base, after) {
		return cur, false
	}
	return next, true
}
