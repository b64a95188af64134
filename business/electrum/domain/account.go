package domain

// Balance is the confirmed and unconfirmed balance of one address, in satoshis.
type Balance struct {
	Confirmed   int64  `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`
	Address     string `json:"addr,omitempty"`
}

// MultiBalance aggregates balances for many addresses.
type MultiBalance struct {
	Confirmed   int64              `json:"balance"`
	Unconfirmed int64              `json:"unconfirmed_balance"`
	Addresses   map[string]Balance `json:"addresses"`
}

// Utxo is an unspent output owned by Address.
type Utxo struct {
	Address string `json:"address"`
	TxID    string `json:"txid"`
	Vout    uint32 `json:"vout"`
	Value   int64  `json:"value"`
	Height  int64  `json:"height"`
}

// HistoryItem is one entry of an address history.
type HistoryItem struct {
	TxHash  string `json:"tx_hash"`
	Height  int64  `json:"height"`
	Fee     int64  `json:"fee,omitempty"`
	Address string `json:"address,omitempty"`
}

// MempoolItem is an unconfirmed transaction touching an address.
type MempoolItem struct {
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height"`
	Fee    int64  `json:"fee"`
}

// Profile is the on-chain profile record of a script hash.
type Profile struct {
	Creator            string `json:"creator"`
	Owner              string `json:"owner"`
	Signer             string `json:"signer"`
	Name               string `json:"name"`
	Link               string `json:"link"`
	AppData            string `json:"appData"`
	RPs                int64  `json:"rps"`
	GeneratedRPs       int64  `json:"generatedRPs"`
	OwnedProfilesCount int    `json:"ownedProfilesCount"`
	IsRented           bool   `json:"isRented"`
	Tenant             string `json:"tenant"`
	RentedAt           int64  `json:"rentedAt"`
	Duration           int64  `json:"duration"`
	IsCandidate        bool   `json:"isCandidate"`
	IsBanned           bool   `json:"isBanned"`
	Contribution       int64  `json:"contribution"`
	IsDomain           bool   `json:"isDomain"`
	OfferedAt          int64  `json:"offeredAt"`
	BidAmount          int64  `json:"bidAmount"`
	Buyer              string `json:"buyer"`
	Balance            int64  `json:"balance"`
	BidTarget          string `json:"bidTarget"`
	OwnedProfiles      []any  `json:"ownedProfiles"`
}
