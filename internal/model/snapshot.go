package model

import "time"

// Snapshot is the full serialisable dataset. It never carries the Actor.
type Snapshot struct {
	Projects   []Project   `json:"projects"`
	Challenges []Challenge `json:"challenges"`
	Bounties   []Bounty    `json:"bounties"`
	Goodies    []Goodie    `json:"goodies"`
	Attendees  []Person    `json:"attendees"`
	FAQ        []FaqItem   `json:"faq"`
	Phase      Phase       `json:"phase"`
	Winners    Winners     `json:"winners"`
}

// NewSnapshot returns an empty snapshot with non-nil collections.
func NewSnapshot() Snapshot {
	return Snapshot{
		Projects:   []Project{},
		Challenges: []Challenge{},
		Bounties:   []Bounty{},
		Goodies:    []Goodie{},
		Attendees:  []Person{},
		FAQ:        []FaqItem{},
		Winners: Winners{
			Challenge: map[ChallengeKind]string{},
			Bounty:    map[string]string{},
		},
	}
}

// Normalize replaces nil collections and maps with empty ones so that
// decoded snapshots and freshly built ones look the same.
func (s *Snapshot) Normalize() {
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.Challenges == nil {
		s.Challenges = []Challenge{}
	}
	if s.Bounties == nil {
		s.Bounties = []Bounty{}
	}
	if s.Goodies == nil {
		s.Goodies = []Goodie{}
	}
	if s.Attendees == nil {
		s.Attendees = []Person{}
	}
	if s.FAQ == nil {
		s.FAQ = []FaqItem{}
	}
	if s.Winners.Challenge == nil {
		s.Winners.Challenge = map[ChallengeKind]string{}
	}
	if s.Winners.Bounty == nil {
		s.Winners.Bounty = map[string]string{}
	}
}

// Empty reports whether the snapshot holds no entities at all.
// Phase and Winners are not considered.
func (s Snapshot) Empty() bool {
	return len(s.Projects) == 0 &&
		len(s.Challenges) == 0 &&
		len(s.Bounties) == 0 &&
		len(s.Goodies) == 0 &&
		len(s.Attendees) == 0 &&
		len(s.FAQ) == 0
}

// Clone returns a deep copy. Callers may mutate the result freely.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Projects:   make([]Project, len(s.Projects)),
		Challenges: make([]Challenge, len(s.Challenges)),
		Bounties:   make([]Bounty, len(s.Bounties)),
		Goodies:    make([]Goodie, len(s.Goodies)),
		Attendees:  make([]Person, len(s.Attendees)),
		FAQ:        append([]FaqItem{}, s.FAQ...),
		Phase:      s.Phase,
		Winners: Winners{
			Challenge: make(map[ChallengeKind]string, len(s.Winners.Challenge)),
			Bounty:    make(map[string]string, len(s.Winners.Bounty)),
		},
	}
	for i, p := range s.Projects {
		out.Projects[i] = p.Clone()
	}
	for i, c := range s.Challenges {
		out.Challenges[i] = c.Clone()
	}
	for i, b := range s.Bounties {
		out.Bounties[i] = b.Clone()
	}
	for i, g := range s.Goodies {
		out.Goodies[i] = g.Clone()
	}
	for i, p := range s.Attendees {
		out.Attendees[i] = p.Clone()
	}
	for k, v := range s.Winners.Challenge {
		out.Winners.Challenge[k] = v
	}
	for k, v := range s.Winners.Bounty {
		out.Winners.Bounty[k] = v
	}
	return out
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	p.Members = cloneStrings(p.Members)
	p.Tags = cloneStrings(p.Tags)
	p.Collaborators = cloneStrings(p.Collaborators)
	if p.Challenges != nil {
		p.Challenges = append([]ChallengeKind{}, p.Challenges...)
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		p.SubmittedAt = &t
	}
	return p
}

// Clone returns a deep copy of the person.
func (p Person) Clone() Person {
	p.Skills = cloneStrings(p.Skills)
	p.Profile = p.Profile.Clone()
	return p
}

// Clone returns a deep copy of the profile; nil stays nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Skills = cloneStrings(p.Skills)
	return &out
}

// Clone returns a deep copy of the challenge.
func (c Challenge) Clone() Challenge {
	c.Prizes = cloneStrings(c.Prizes)
	c.Requirements = cloneStrings(c.Requirements)
	return c
}

// Clone returns a deep copy of the bounty.
func (b Bounty) Clone() Bounty {
	b.Prizes = cloneStrings(b.Prizes)
	b.Requirements = cloneStrings(b.Requirements)
	b.ClaimedBy = cloneStrings(b.ClaimedBy)
	if b.StarterProject != nil {
		sp := *b.StarterProject
		b.StarterProject = &sp
	}
	return b
}

// Clone returns a deep copy of the goodie.
func (g Goodie) Clone() Goodie {
	if g.Quantity != nil {
		q := *g.Quantity
		g.Quantity = &q
	}
	return g
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

// Timestamp normalises t to UTC with the monotonic reading stripped, the form
// it takes after a round trip through the wire format.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Round(0)
}

// Person looks up an attendee by contact address.
func (s Snapshot) Person(email string) (Person, bool) {
	key := NormalizeAddress(email)
	for _, p := range s.Attendees {
		if NormalizeAddress(p.Email) == key {
			return p, true
		}
	}
	return Person{}, false
}

// Project looks up a project by id.
func (s Snapshot) Project(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// Bounty looks up a bounty by id.
func (s Snapshot) Bounty(id string) (Bounty, bool) {
	for _, b := range s.Bounties {
		if b.ID == id {
			return b, true
		}
	}
	return Bounty{}, false
}
