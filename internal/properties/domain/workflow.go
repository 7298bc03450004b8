// Package domain provides core business rules for the properties bounded
// context: the publication workflow state machine a property moves through
// from listing review to going live.
package domain

// Node is the coarse stage of the publication pipeline. A property's node
// is never set directly; it is always derived from its substate.
type Node string

const (
	NodeReview   Node = "review"
	NodeApproved Node = "approved"
	NodePilot    Node = "pilot"
	NodePost     Node = "post"
	NodeLive     Node = "live"
)

// Nodes lists the pipeline nodes in order.
var Nodes = []Node{NodeReview, NodeApproved, NodePilot, NodePost, NodeLive}

// Substate is the fine-grained workflow stage. Each substate maps to
// exactly one Node and a completion percentage.
type Substate string

const (
	SubstateSubmitted        Substate = "submitted"
	SubstateUnderReview      Substate = "under_review"
	SubstateChangesRequested Substate = "changes_requested"

	SubstateApprovedForShoot Substate = "approved_for_shoot"
	SubstateShootPending     Substate = "shoot_pending"

	SubstateInviting   Substate = "inviting"
	SubstateAssigned   Substate = "assigned"
	SubstateScheduling Substate = "scheduling"
	SubstateScheduled  Substate = "scheduled"
	SubstateShooting   Substate = "shooting"
	SubstateFinished   Substate = "finished"

	SubstateUploading       Substate = "uploading"
	SubstateReceived        Substate = "received"
	SubstateQC              Substate = "qc"
	SubstateEditing         Substate = "editing"
	SubstatePreviewReady    Substate = "preview_ready"
	SubstateReadyForPublish Substate = "ready_for_publish"

	SubstatePublished Substate = "published"
	SubstateArchived  Substate = "archived"
)

// Definition fixes the node and completion percentage of a substate.
type Definition struct {
	Node    Node
	Percent int
}

// definitions is the closed substate table. Every substate known to the
// system appears here; TestDefinitionsCoverAllSubstates enforces that the
// table and the constant set cannot drift apart.
var definitions = map[Substate]Definition{
	SubstateSubmitted:        {NodeReview, 5},
	SubstateUnderReview:      {NodeReview, 10},
	SubstateChangesRequested: {NodeReview, 12},

	SubstateApprovedForShoot: {NodeApproved, 15},
	SubstateShootPending:     {NodeApproved, 18},

	SubstateInviting:   {NodePilot, 20},
	SubstateAssigned:   {NodePilot, 25},
	SubstateScheduling: {NodePilot, 30},
	SubstateScheduled:  {NodePilot, 35},
	SubstateShooting:   {NodePilot, 40},
	SubstateFinished:   {NodePilot, 45},

	SubstateUploading:       {NodePost, 50},
	SubstateReceived:        {NodePost, 55},
	SubstateQC:              {NodePost, 60},
	SubstateEditing:         {NodePost, 70},
	SubstatePreviewReady:    {NodePost, 80},
	SubstateReadyForPublish: {NodePost, 90},

	SubstatePublished: {NodeLive, 100},
	SubstateArchived:  {NodeLive, 100},
}

// AllSubstates lists every known substate in pipeline order.
var AllSubstates = []Substate{
	SubstateSubmitted, SubstateUnderReview, SubstateChangesRequested,
	SubstateApprovedForShoot, SubstateShootPending,
	SubstateInviting, SubstateAssigned, SubstateScheduling,
	SubstateScheduled, SubstateShooting, SubstateFinished,
	SubstateUploading, SubstateReceived, SubstateQC,
	SubstateEditing, SubstatePreviewReady, SubstateReadyForPublish,
	SubstatePublished, SubstateArchived,
}

// IsKnown reports whether s is a substate the system recognizes.
func IsKnown(s Substate) bool {
	_, ok := definitions[s]
	return ok
}

// Lookup returns the definition for a substate. The boolean is false for
// unknown substates.
func Lookup(s Substate) (Definition, bool) {
	def, ok := definitions[s]
	return def, ok
}

// NodeFor returns the coarse node a substate belongs to. Unknown substates
// return the empty Node; callers must validate with IsKnown first.
func NodeFor(s Substate) Node {
	return definitions[s].Node
}

// PercentFor returns the completion percentage of a substate.
func PercentFor(s Substate) int {
	return definitions[s].Percent
}
