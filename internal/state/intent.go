package state

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hacksync/internal/model"
)

// Op names the kind of mutation an Intent carries.
type Op string

const (
	OpReplace    Op = "replace"
	OpAdd        Op = "add"
	OpPatch      Op = "patch"
	OpRemove     Op = "remove"
	OpReplaceAll Op = "replace_all"

	OpAssignChallengeWinner Op = "assign_challenge_winner"
	OpClearChallengeWinner  Op = "clear_challenge_winner"
	OpAssignBountyWinner    Op = "assign_bounty_winner"
	OpClearBountyWinner     Op = "clear_bounty_winner"
	OpPhase                 Op = "phase"

	OpClaimBounty    Op = "claim_bounty"
	OpReleaseBounty  Op = "release_bounty"
	OpCompleteBounty Op = "complete_bounty"
)

// Kind names an entity collection.
type Kind string

const (
	KindProject   Kind = "project"
	KindPerson    Kind = "person"
	KindChallenge Kind = "challenge"
	KindBounty    Kind = "bounty"
	KindGoodie    Kind = "goodie"
	KindFAQ       Kind = "faq"
)

// Kinds lists every entity collection in snapshot order.
var Kinds = []Kind{KindProject, KindChallenge, KindBounty, KindGoodie, KindPerson, KindFAQ}

// PhaseAction is an administrative award-phase transition.
type PhaseAction string

const (
	PhaseOpenVoting  PhaseAction = "open_voting"
	PhaseCloseVoting PhaseAction = "close_voting"
	PhaseAnnounce    PhaseAction = "announce"
	PhaseUnannounce  PhaseAction = "unannounce"
	PhaseReset       PhaseAction = "reset"
)

// Intent is one mutation request. Which fields matter depends on Op:
//
//	replace      Kind, Value ([]model.X)
//	add          Kind, Value (model.X)
//	patch        Kind, ID, Fields
//	remove       Kind, ID
//	replace_all  Value (model.Snapshot)
//	*_winner     Challenge or ID (bounty), ProjectID
//	phase        Phase
//	*_bounty     ID (bounty), ProjectID
type Intent struct {
	Op        Op
	Kind      Kind
	ID        string
	Value     any
	Fields    map[string]any
	ProjectID string
	Challenge model.ChallengeKind
	Phase     PhaseAction
}

// String renders the intent for logs.
func (in Intent) String() string {
	switch {
	case in.Kind != "" && in.ID != "":
		return fmt.Sprintf("%s %s/%s", in.Op, in.Kind, in.ID)
	case in.Kind != "":
		return fmt.Sprintf("%s %s", in.Op, in.Kind)
	case in.Phase != "":
		return fmt.Sprintf("%s %s", in.Op, in.Phase)
	case in.Challenge != "":
		return fmt.Sprintf("%s %s->%s", in.Op, in.Challenge, in.ProjectID)
	case in.ID != "":
		return fmt.Sprintf("%s %s->%s", in.Op, in.ID, in.ProjectID)
	}
	return string(in.Op)
}

// Replace builds a replace-collection intent. The kind is inferred from the
// slice element type; an unsupported type yields an intent Apply ignores.
func Replace(items any) Intent {
	return Intent{Op: OpReplace, Kind: kindOfSlice(items), Value: items}
}

// Add builds an add-one intent. The kind is inferred from the value type.
func Add(item any) Intent {
	return Intent{Op: OpAdd, Kind: kindOf(item), Value: item}
}

// Patch builds a patch-one intent. Fields are merged over the entity's wire
// form; a nil value clears the field.
func Patch(kind Kind, id string, fields map[string]any) Intent {
	return Intent{Op: OpPatch, Kind: kind, ID: id, Fields: fields}
}

// Remove builds a remove-one intent.
func Remove(kind Kind, id string) Intent {
	return Intent{Op: OpRemove, Kind: kind, ID: id}
}

// ReplaceAll builds an intent that swaps in an entire snapshot.
func ReplaceAll(s model.Snapshot) Intent {
	return Intent{Op: OpReplaceAll, Value: s}
}

// AssignChallengeWinner builds a challenge winner assignment.
func AssignChallengeWinner(kind model.ChallengeKind, projectID string) Intent {
	return Intent{Op: OpAssignChallengeWinner, Challenge: kind, ProjectID: projectID}
}

// ClearChallengeWinner builds an intent removing the winner for kind.
func ClearChallengeWinner(kind model.ChallengeKind) Intent {
	return Intent{Op: OpClearChallengeWinner, Challenge: kind}
}

// AssignBountyWinner builds a bounty winner assignment.
func AssignBountyWinner(bountyID, projectID string) Intent {
	return Intent{Op: OpAssignBountyWinner, ID: bountyID, ProjectID: projectID}
}

// ClearBountyWinner builds an intent removing the winner for a bounty.
func ClearBountyWinner(bountyID string) Intent {
	return Intent{Op: OpClearBountyWinner, ID: bountyID}
}

// SetPhase builds an administrative phase transition.
func SetPhase(action PhaseAction) Intent {
	return Intent{Op: OpPhase, Phase: action}
}

// ClaimBounty builds a bounty claim by a project.
func ClaimBounty(bountyID, projectID string) Intent {
	return Intent{Op: OpClaimBounty, ID: bountyID, ProjectID: projectID}
}

// ReleaseBounty builds an intent withdrawing a project's claim.
func ReleaseBounty(bountyID, projectID string) Intent {
	return Intent{Op: OpReleaseBounty, ID: bountyID, ProjectID: projectID}
}

// CompleteBounty builds an intent marking a bounty completed.
func CompleteBounty(bountyID string) Intent {
	return Intent{Op: OpCompleteBounty, ID: bountyID}
}

// AddJSON decodes a single entity of the given kind from its wire form and
// builds an add-one intent for it.
func AddJSON(kind Kind, data []byte) (Intent, error) {
	v, err := decodeEntity(kind, data, false)
	if err != nil {
		return Intent{}, fmt.Errorf("add %s: %w", kind, err)
	}
	return Intent{Op: OpAdd, Kind: kind, Value: v}, nil
}

// ReplaceJSON decodes a collection of the given kind from its wire form and
// builds a replace-collection intent for it.
func ReplaceJSON(kind Kind, data []byte) (Intent, error) {
	v, err := decodeEntity(kind, data, true)
	if err != nil {
		return Intent{}, fmt.Errorf("replace %s: %w", kind, err)
	}
	return Intent{Op: OpReplace, Kind: kind, Value: v}, nil
}

func decodeEntity(kind Kind, data []byte, many bool) (any, error) {
	switch kind {
	case KindProject:
		return decodeAs[model.Project](data, many)
	case KindPerson:
		return decodeAs[model.Person](data, many)
	case KindChallenge:
		return decodeAs[model.Challenge](data, many)
	case KindBounty:
		return decodeAs[model.Bounty](data, many)
	case KindGoodie:
		return decodeAs[model.Goodie](data, many)
	case KindFAQ:
		return decodeAs[model.FaqItem](data, many)
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func decodeAs[T any](data []byte, many bool) (any, error) {
	if many {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return item, nil
}

func kindOf(v any) Kind {
	switch v.(type) {
	case model.Project, *model.Project:
		return KindProject
	case model.Person, *model.Person:
		return KindPerson
	case model.Challenge, *model.Challenge:
		return KindChallenge
	case model.Bounty, *model.Bounty:
		return KindBounty
	case model.Goodie, *model.Goodie:
		return KindGoodie
	case model.FaqItem, *model.FaqItem:
		return KindFAQ
	}
	return ""
}

func kindOfSlice(v any) Kind {
	switch v.(type) {
	case []model.Project:
		return KindProject
	case []model.Person:
		return KindPerson
	case []model.Challenge:
		return KindChallenge
	case []model.Bounty:
		return KindBounty
	case []model.Goodie:
		return KindGoodie
	case []model.FaqItem:
		return KindFAQ
	}
	return ""
}
