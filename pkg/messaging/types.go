package messaging

type ChangeTopic string

const (
	ContentChanged  ChangeTopic = "content_changed"
	ContactReceived ChangeTopic = "contact_received"
)

type ChangeAction string

const (
	ActionUpsert ChangeAction = "upsert"
	ActionDelete ChangeAction = "delete"
	// ActionReload asks listeners to reload every item of the kind.
	ActionReload ChangeAction = "reload"
)

// ContentChange is broadcast after content is written so every server
// instance can refresh its catalog.
type ContentChange struct {
	Kind   string       `json:"kind"`
	Id     string       `json:"id,omitempty"`
	Action ChangeAction `json:"action"`
	// Source identifies the publishing instance so it can skip its own events.
	Source string `json:"source,omitempty"`
}
