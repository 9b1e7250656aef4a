package metalog

// Offset is the position assigned to a record by the replicated log.
// Offsets are strictly increasing in log order.
type Offset int64

// RecordType identifies one of the membership record kinds carried
// by the metadata log.
type RecordType string

const (
	TypeRegisterNode       RecordType = "register_node"
	TypeUnregisterNode     RecordType = "unregister_node"
	TypeFenceNode          RecordType = "fence_node"
	TypeUnfenceNode        RecordType = "unfence_node"
	TypeRegistrationChange RecordType = "registration_change"
)

// FencedDelta describes how a registration change record affects
// a node's fencing state.
type FencedDelta int8

const (
	// FencedNoChange leaves the fencing state as it is.
	FencedNoChange FencedDelta = 0
	// FencedSet fences the node.
	FencedSet FencedDelta = 1
	// FencedCleared unfences the node.
	FencedCleared FencedDelta = -1
)

// Record is the closed set of membership records understood by the
// cluster registry. The implementations are exactly RegisterNode,
// UnregisterNode, FenceNode, UnfenceNode, and RegistrationChange.
// Consumers dispatch on the concrete type and can treat the set as
// exhaustive.
type Record interface {
	// Type returns the record kind
	Type() RecordType
	record()
}

var _ Record = (*RegisterNode)(nil)
var _ Record = (*UnregisterNode)(nil)
var _ Record = (*FenceNode)(nil)
var _ Record = (*UnfenceNode)(nil)
var _ Record = (*RegistrationChange)(nil)

// Listener is one advertised endpoint of a node.
type Listener struct {
	Name             string `json:"name"`
	Host             string `json:"host"`
	Port             uint16 `json:"port"`
	SecurityProtocol string `json:"securityProtocol"`
}

// FeatureRange is the version range of a feature supported by a node.
type FeatureRange struct {
	MinVersion int16 `json:"minVersion"`
	MaxVersion int16 `json:"maxVersion"`
}

// RegisterNode records the registration of a node. Replaying it for an
// id that is already registered re-registers the node provided the
// record's epoch is strictly greater than the stored epoch.
type RegisterNode struct {
	ID            int32                   `json:"id"`
	Epoch         int64                   `json:"epoch"`
	IncarnationID string                  `json:"incarnationId"`
	Rack          string                  `json:"rack,omitempty"`
	Listeners     []Listener              `json:"listeners"`
	Features      map[string]FeatureRange `json:"supportedFeatures,omitempty"`
	// Unfenced is true only when the record explicitly clears the
	// fencing state. The zero value registers the node fenced: a
	// node is unusable until a record says otherwise, so a record
	// built or decoded without this field stays on the safe side.
	Unfenced bool `json:"unfenced,omitempty"`
}

// Fenced returns the fencing state the node is in once the record is
// applied.
func (record *RegisterNode) Fenced() bool {
	return !record.Unfenced
}

// Type implements Record.Type
func (record *RegisterNode) Type() RecordType {
	return TypeRegisterNode
}

func (record *RegisterNode) record() {}

// UnregisterNode removes a node's registration. It only takes effect
// if its epoch matches the stored epoch exactly.
type UnregisterNode struct {
	ID    int32 `json:"id"`
	Epoch int64 `json:"epoch"`
}

// Type implements Record.Type
func (record *UnregisterNode) Type() RecordType {
	return TypeUnregisterNode
}

func (record *UnregisterNode) record() {}

// FenceNode marks a registered node as unusable for placement and
// routing without removing its registration.
type FenceNode struct {
	ID    int32 `json:"id"`
	Epoch int64 `json:"epoch"`
}

// Type implements Record.Type
func (record *FenceNode) Type() RecordType {
	return TypeFenceNode
}

func (record *FenceNode) record() {}

// UnfenceNode marks a registered node as usable again.
type UnfenceNode struct {
	ID    int32 `json:"id"`
	Epoch int64 `json:"epoch"`
}

// Type implements Record.Type
func (record *UnfenceNode) Type() RecordType {
	return TypeUnfenceNode
}

func (record *UnfenceNode) record() {}

// RegistrationChange carries a fencing delta for a registered node.
// It is equivalent to a FenceNode or UnfenceNode record applied in
// strict log order.
type RegistrationChange struct {
	ID          int32       `json:"id"`
	Epoch       int64       `json:"epoch"`
	FencedDelta FencedDelta `json:"fencedDelta"`
}

// Type implements Record.Type
func (record *RegistrationChange) Type() RecordType {
	return TypeRegistrationChange
}

func (record *RegistrationChange) record() {}
