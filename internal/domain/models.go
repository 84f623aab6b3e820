package domain

// Domain contains core models shared across the poster.

// Store identifies the storefront a game came from.
type Store string

const (
	StoreSteam Store = "steam"
	StoreEpic  Store = "epic"
)

// Mode is the content source chosen for a run.
type Mode string

const (
	ModeSteam Mode = "steam"
	ModeEpic  Mode = "epic"
	ModeTopic Mode = "topic"
)

// Modes lists the content source modes in selection order.
var Modes = []Mode{ModeSteam, ModeEpic, ModeTopic}

// Game is a storefront giveaway normalized from either source.
type Game struct {
	Title       string
	ID          string
	Link        string
	Store       Store
	ImageURL    string
	Description string
}

// PublishedRecord is one entry of the publish history. ID is the dedup key.
type PublishedRecord struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}

// Post is a formatted message ready for the channel.
type Post struct {
	Caption  string
	ImageURL string
	DedupKey string
	Mode     Mode
}

// PollSpec is a question with its answer options.
type PollSpec struct {
	Question string
	Options  []string
}
