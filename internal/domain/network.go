package domain

import "time"

// RelationType classifies how two wallets are connected.
type RelationType string

const (
	RelationFundsTransfer        RelationType = "funds_transfer"
	RelationSameSeedPattern      RelationType = "same_seed_pattern"
	RelationCoordinatedLaunch    RelationType = "coordinated_launches"
	RelationSharedInfrastructure RelationType = "shared_infrastructure"
)

// NetworkLink is an undirected edge between two wallets with a typed
// relationship and a confidence weight in [0,1]. WalletA sorts before
// WalletB so each unordered pair has one canonical form.
type NetworkLink struct {
	WalletA   string
	WalletB   string
	Relation  RelationType
	Strength  float64
	FirstSeen time.Time
	LastSeen  time.Time
}

// CanonicalPair returns the two wallets in canonical (sorted) order.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Other returns the opposite endpoint of the edge, empty if wallet is
// not an endpoint.
func (l *NetworkLink) Other(wallet string) string {
	switch wallet {
	case l.WalletA:
		return l.WalletB
	case l.WalletB:
		return l.WalletA
	}
	return ""
}
