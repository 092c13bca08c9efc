package model

import "time"

// ActorKind identifies who is currently acting.
type ActorKind string

const (
	ActorOrganizer   ActorKind = "organizer"
	ActorSponsor     ActorKind = "sponsor"
	ActorParticipant ActorKind = "participant"
)

// Valid reports whether k is one of the known actor kinds.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorOrganizer, ActorSponsor, ActorParticipant:
		return true
	}
	return false
}

// TeamStatus is a person's team-seeking status.
type TeamStatus string

const (
	TeamUnset         TeamStatus = ""
	TeamSoloConfirmed TeamStatus = "soloConfirmed"
	TeamNeedsTeam     TeamStatus = "needsTeam"
	TeamHasTeam       TeamStatus = "hasTeam"
)

// ProjectKind distinguishes how a project came to exist.
type ProjectKind string

const (
	ProjectContinuingTeam ProjectKind = "continuingTeam"
	ProjectNew            ProjectKind = "newProject"
	ProjectBounty         ProjectKind = "bountyProject"
)

// ProjectStatus is the submission lifecycle of a project.
type ProjectStatus string

const (
	ProjectDraft       ProjectStatus = "draft"
	ProjectSubmitted   ProjectStatus = "submitted"
	ProjectUnderReview ProjectStatus = "underReview"
	ProjectWinner      ProjectStatus = "winner"
)

// BountyStatus is the claim lifecycle of a bounty.
type BountyStatus string

const (
	BountyOpen      BountyStatus = "open"
	BountyClaimed   BountyStatus = "claimed"
	BountyCompleted BountyStatus = "completed"
)

// ChallengeKind is the sponsor-defined category a challenge belongs to.
// The set of kinds in play is whatever the declared challenges use.
type ChallengeKind string

// Links are the optional public links on a profile.
type Links struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Profile is optional detail attached to an actor or a person.
type Profile struct {
	Location string   `json:"location,omitempty"`
	Links    Links    `json:"links,omitempty"`
	Bio      string   `json:"bio,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

// Actor is the current user. It lives only in the session record.
type Actor struct {
	Kind      ActorKind `json:"kind"`
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	SponsorID string    `json:"sponsorId,omitempty"`
	Profile   *Profile  `json:"profile,omitempty"`
}

// Person is an attendee record. Email is the dataset-wide key.
type Person struct {
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	CheckedIn    bool       `json:"checkedIn"`
	RegisteredAt time.Time  `json:"registeredAt"`
	TeamName     string     `json:"teamName,omitempty"`
	ProjectID    string     `json:"projectId,omitempty"`
	SponsorTag   string     `json:"sponsorTag,omitempty"`
	Skills       []string   `json:"skills,omitempty"`
	TeamStatus   TeamStatus `json:"teamStatus,omitempty"`
	Profile      *Profile   `json:"profile,omitempty"`
}

// ProjectLinks are the submission artefacts of a project.
type ProjectLinks struct {
	Demo   string `json:"demo,omitempty"`
	Video  string `json:"video,omitempty"`
	Slides string `json:"slides,omitempty"`
	Source string `json:"source,omitempty"`
}

// Project is a team's entry. Members is the roster of contact addresses.
type Project struct {
	ID            string          `json:"id"`
	Kind          ProjectKind     `json:"kind"`
	Name          string          `json:"name"`
	TeamName      string          `json:"teamName,omitempty"`
	Members       []string        `json:"members"`
	Links         ProjectLinks    `json:"links"`
	Challenges    []ChallengeKind `json:"challenges,omitempty"`
	BountyID      string          `json:"bountyId,omitempty"`
	Status        ProjectStatus   `json:"status"`
	Tags          []string        `json:"tags,omitempty"`
	Collaborators []string        `json:"collaborators,omitempty"`
	StartedFrom   string          `json:"startedFrom,omitempty"`
	SubmittedAt   *time.Time      `json:"submittedAt,omitempty"`
}

// DisplayTeam is the team name shown for members: TeamName, or Name when unset.
func (p Project) DisplayTeam() string {
	if p.TeamName != "" {
		return p.TeamName
	}
	return p.Name
}

// Challenge is a sponsor-defined prize track.
type Challenge struct {
	ID           string        `json:"id"`
	Kind         ChallengeKind `json:"kind"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Prizes       []string      `json:"prizes,omitempty"`
	Requirements []string      `json:"requirements,omitempty"`
	SponsorID    string        `json:"sponsorId"`
}

// StarterProject is the template a bounty team may start from.
type StarterProject struct {
	Name        string `json:"name"`
	Repository  string `json:"repository,omitempty"`
	Description string `json:"description,omitempty"`
}

// Bounty is a sponsor task claimable by up to MaxTeams projects.
type Bounty struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Requirements   []string        `json:"requirements,omitempty"`
	Prizes         []string        `json:"prizes,omitempty"`
	Status         BountyStatus    `json:"status"`
	SponsorID      string          `json:"sponsorId"`
	MaxTeams       int             `json:"maxTeams"`
	ClaimedBy      []string        `json:"claimedBy,omitempty"`
	StarterProject *StarterProject `json:"starterProject,omitempty"`
}

// Capacity is the effective claim capacity; anything below one counts as one.
func (b Bounty) Capacity() int {
	if b.MaxTeams < 1 {
		return 1
	}
	return b.MaxTeams
}

// Goodie is a sponsor giveaway.
type Goodie struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Details     string `json:"details,omitempty"`
	Quantity    *int   `json:"quantity,omitempty"`
	ForEveryone bool   `json:"forEveryone"`
	SponsorID   string `json:"sponsorId"`
}

// FaqItem is one question and answer.
type FaqItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Phase is the global award-process state.
type Phase struct {
	VotingOpen bool `json:"votingOpen"`
	Announced  bool `json:"announced"`
}

// Winners maps each challenge kind and each bounty id to at most one project id.
type Winners struct {
	Challenge map[ChallengeKind]string `json:"challenge"`
	Bounty    map[string]string        `json:"bounty"`
}
