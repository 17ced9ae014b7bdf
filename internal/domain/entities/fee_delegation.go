package entities

// RelayInput carries a sender-signed fee delegated transaction
type RelayInput struct {
	UserSignedTx string `json:"userSignedTx" binding:"required"`
}

// RelayResult is the hash returned by the node
type RelayResult struct {
	Hash string `json:"hash"`
}

// FeePayerBalance is the native balance of one fee payer account
type FeePayerBalance struct {
	Address string `json:"publicAddress"`
	Balance string `json:"balance"`
	Raw     string `json:"raw"`
}

// PotInfo is the on-chain savings pot of an address
type PotInfo struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Raw      string `json:"raw"`
	Deadline string `json:"deadline"`
	Owner    string `json:"owner"`
}
